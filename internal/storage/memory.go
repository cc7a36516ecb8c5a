package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrObjectNotFound is returned by Get when no object exists under the key.
var ErrObjectNotFound = errors.New("object not found")

// Compile-time check that MemoryStore implements ObjectStore.
var _ ObjectStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory implementation of ObjectStore.
// It uses a map with RWMutex for thread-safe access.
// Suitable for development and testing; swap for S3Store in production.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// failKeys maps keys to errors, letting tests inject per-key
	// delete failures.
	failKeys map[string]error
}

// NewMemoryStore creates a new in-memory object store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects:  make(map[string][]byte),
		failKeys: make(map[string]error),
	}
}

// Put stores a copy of data under key.
func (s *MemoryStore) Put(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[key] = buf
	return nil
}

// Get returns a copy of the object stored under key.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

// Delete removes the object stored under key. Absent keys are a no-op.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failKeys[key]; ok {
		return err
	}
	delete(s.objects, key)
	return nil
}

// DeleteBatch removes all objects for the given keys.
// It stops at the first injected failure, mirroring a partially failed
// batch delete.
func (s *MemoryStore) DeleteBatch(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		if err, ok := s.failKeys[key]; ok {
			return err
		}
		delete(s.objects, key)
	}
	return nil
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Exists reports whether an object is stored under key.
func (s *MemoryStore) Exists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok
}

// PublicURL returns a synthetic URL for the object under key.
func (s *MemoryStore) PublicURL(key string) string {
	return "memory://" + key
}

// FailDeleteWith makes subsequent deletes of key return err.
func (s *MemoryStore) FailDeleteWith(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failKeys[key] = err
}
