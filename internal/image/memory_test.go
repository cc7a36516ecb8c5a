package image

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepository_CreateFind(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	rec := testRecord("img-1", "a.jpeg", true, time.Now().Add(24*time.Hour))
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := repo.FindByID(ctx, "img-1")
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if found.StorageKey != "a.jpeg" {
		t.Errorf("storage key = %s, want a.jpeg", found.StorageKey)
	}

	// Returned record is a clone; mutating it must not affect the store.
	found.IsTemporary = false
	again, _ := repo.FindByID(ctx, "img-1")
	if !again.IsTemporary {
		t.Error("stored record mutated through the returned clone")
	}
}

func TestMemoryRepository_FindExpired(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_ = repo.Create(ctx, testRecord("a", "a.jpeg", true, now.Add(-time.Minute)))
	_ = repo.Create(ctx, testRecord("b", "b.jpeg", true, now.Add(time.Minute)))
	_ = repo.Create(ctx, testRecord("c", "c.jpeg", false, now.Add(-time.Minute)))

	expired, err := repo.FindExpired(ctx, now)
	if err != nil {
		t.Fatalf("FindExpired() error = %v", err)
	}
	if len(expired) != 1 || expired[0].ID != "a" {
		t.Errorf("expected only record a, got %v", expired)
	}
}

func TestMemoryRepository_PromoteAndConditionalDelete(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	exp := time.Now().Add(-time.Hour)

	_ = repo.Create(ctx, testRecord("a", "a.jpeg", true, exp))
	_ = repo.Create(ctx, testRecord("b", "b.jpeg", true, exp))

	if err := repo.Promote(ctx, "b"); err != nil {
		t.Fatalf("Promote() error = %v", err)
	}
	if err := repo.Promote(ctx, "b"); err != nil {
		t.Fatalf("second Promote() error = %v", err)
	}
	if err := repo.Promote(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	deleted, err := repo.DeleteTemporaryByIDs(ctx, []string{"a", "b"})
	if err != nil {
		t.Fatalf("DeleteTemporaryByIDs() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if repo.Len() != 1 {
		t.Errorf("Len() = %d, want 1", repo.Len())
	}
}
