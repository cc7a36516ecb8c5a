// Package storage provides object storage for uploaded recipe images.
// It defines the ObjectStore interface (port) for hexagonal architecture and
// implementations backed by S3-compatible services and by memory.
package storage

import "context"

// ObjectStore defines the interface for storing image objects under opaque keys.
// A put or delete is atomic at single-key granularity: it either fully
// succeeds or fully fails, there are no partial-object states.
type ObjectStore interface {
	// Put writes data under the given key, overwriting any existing object.
	Put(ctx context.Context, key string, data []byte) error

	// Get reads the object stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object stored under key.
	// Deleting a key that does not exist is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteBatch removes all objects for the given keys in a single call
	// where the backend supports it. Absent keys are not an error.
	DeleteBatch(ctx context.Context, keys []string) error

	// PublicURL returns the URL under which the object for key is served.
	PublicURL(key string) string
}
