// Package image provides the image lifecycle pipeline for recipe pictures:
// upload normalization, metadata persistence, promotion from temporary to
// permanent, and expiry sweeping of unclaimed uploads.
package image

import (
	"encoding/base64"
	"errors"
	"time"
)

// Errors surfaced by the pipeline. Handlers map these onto HTTP statuses.
var (
	// ErrNotFound is returned when an image record id does not resolve.
	ErrNotFound = errors.New("image record not found")
	// ErrDecode is returned when the uploaded bytes are not a valid image.
	ErrDecode = errors.New("image cannot be decoded")
	// ErrUnsupportedFormat is returned for valid images in a disallowed format.
	ErrUnsupportedFormat = errors.New("image format not allowed")
	// ErrTooLarge is returned when an upload exceeds the configured size limit.
	ErrTooLarge = errors.New("image exceeds the upload size limit")
	// ErrStorageWrite is returned when the object store put failed.
	// No metadata row is created for a failed write.
	ErrStorageWrite = errors.New("object store write failed")
	// ErrMetadataWrite is returned when the record insert failed after a
	// successful store write. A compensating object delete has been attempted.
	ErrMetadataWrite = errors.New("image record write failed")
)

// Record is the metadata row persisted for every uploaded image.
type Record struct {
	// ID is the opaque identifier assigned at creation.
	ID string
	// StorageKey uniquely identifies the object in the object store.
	// Immutable once set.
	StorageKey string
	// IsTemporary starts true on upload and flips to false exactly once
	// when a finalized recipe references the image.
	IsTemporary bool
	// ExpirationAt marks when a temporary image becomes eligible for
	// sweeping. Ignored after promotion.
	ExpirationAt time.Time
	// CreatedAt is when the record was created.
	CreatedAt time.Time
}

// Expired reports whether the record is eligible for deletion at now.
// Permanent records never expire regardless of ExpirationAt.
func (r *Record) Expired(now time.Time) bool {
	return r.IsTemporary && !r.ExpirationAt.After(now)
}

// Clone creates a copy of the record for safe reads.
func (r *Record) Clone() *Record {
	c := *r
	return &c
}

// refKind discriminates the Reference union.
type refKind int

const (
	refByRecord refKind = iota
	refByURL
	refEmbedded
)

// Reference is a tagged union describing how an image is referenced at the
// API boundary: by record id, by an already-resolved URL, or as embedded
// bytes. The variant is chosen once at the boundary and resolved through
// Service.ResolveURL.
type Reference struct {
	kind refKind
	id   string
	url  string
	data []byte
}

// RefByRecord references an image by its record id.
func RefByRecord(id string) Reference {
	return Reference{kind: refByRecord, id: id}
}

// RefByURL references an image by an already-resolved URL.
func RefByURL(url string) Reference {
	return Reference{kind: refByURL, url: url}
}

// RefEmbedded references an image by its raw JPEG bytes.
func RefEmbedded(data []byte) Reference {
	return Reference{kind: refEmbedded, data: data}
}

// embeddedDataURL renders embedded bytes as a data URI.
func embeddedDataURL(data []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
}
