package image

import (
	"context"
	"sync"
	"time"
)

// Compile-time check that MemoryRepository implements Repository.
var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository is an in-memory implementation of Repository.
// It uses a map with RWMutex for thread-safe access.
// Suitable for development and testing; production uses SQLiteRepository.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryRepository creates a new in-memory image record repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records: make(map[string]*Record),
	}
}

// Create persists a clone of the record.
func (r *MemoryRepository) Create(_ context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = rec.Clone()
	return nil
}

// FindByID retrieves a record by its identifier.
// Returns a clone to prevent external mutations.
func (r *MemoryRepository) FindByID(_ context.Context, id string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

// FindExpired returns all temporary records expired at now.
func (r *MemoryRepository) FindExpired(_ context.Context, now time.Time) ([]*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*Record
	for _, rec := range r.records {
		if rec.Expired(now) {
			result = append(result, rec.Clone())
		}
	}
	return result, nil
}

// Promote flips a record to permanent.
func (r *MemoryRepository) Promote(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.IsTemporary = false
	return nil
}

// Delete removes a record.
func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return ErrNotFound
	}
	delete(r.records, id)
	return nil
}

// DeleteTemporaryByIDs removes the given records that are still temporary.
func (r *MemoryRepository) DeleteTemporaryByIDs(_ context.Context, ids []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for _, id := range ids {
		rec, ok := r.records[id]
		if !ok || !rec.IsTemporary {
			continue
		}
		delete(r.records, id)
		deleted++
	}
	return deleted, nil
}

// Len returns the number of stored records.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
