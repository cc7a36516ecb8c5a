package image

import (
	"context"
	"time"
)

// Repository defines the interface for image record persistence.
// It acts as a port in the hexagonal architecture pattern.
type Repository interface {
	// Create persists a new record.
	Create(ctx context.Context, rec *Record) error

	// FindByID retrieves a record by its identifier.
	// Returns ErrNotFound if the record does not exist.
	FindByID(ctx context.Context, id string) (*Record, error)

	// FindExpired returns a snapshot of all temporary records whose
	// expiration is at or before now.
	FindExpired(ctx context.Context, now time.Time) ([]*Record, error)

	// Promote flips a record to permanent. Promoting an already-permanent
	// record is a no-op. Returns ErrNotFound if the id does not resolve.
	Promote(ctx context.Context, id string) error

	// Delete removes a record.
	// Returns ErrNotFound if the record does not exist.
	Delete(ctx context.Context, id string) error

	// DeleteTemporaryByIDs removes the given records in one batch, but only
	// those still marked temporary. Records promoted since the caller's
	// snapshot are left untouched. Returns the number of rows deleted.
	DeleteTemporaryByIDs(ctx context.Context, ids []string) (int, error)
}
