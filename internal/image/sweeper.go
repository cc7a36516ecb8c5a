package image

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mpetrova/recipe-api/internal/storage"
)

// Sweeper deletes temporary images past their expiration: first the object
// from the store, then the metadata row. It runs once per invocation and is
// scheduled externally (cron or similar); it is not itself a scheduler.
type Sweeper struct {
	repo   Repository
	store  storage.ObjectStore
	logger *slog.Logger
	now    func() time.Time
}

// SweeperOption is a function that configures a Sweeper instance.
type SweeperOption func(*Sweeper)

// WithSweeperClock overrides the time source, mainly for tests.
func WithSweeperClock(now func() time.Time) SweeperOption {
	return func(w *Sweeper) {
		if now != nil {
			w.now = now
		}
	}
}

// NewSweeper creates a new Sweeper.
func NewSweeper(repo Repository, store storage.ObjectStore, logger *slog.Logger, opts ...SweeperOption) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Sweeper{
		repo:   repo,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run executes one sweep and returns the number of records deleted.
//
// The pass works over a snapshot of temporary-and-expired records.
// Objects are deleted from the store first; only records whose object
// delete succeeded (or whose object was already absent) have their
// metadata removed, in one batch. A per-record store failure is logged
// and skipped, leaving that row for the next run. Ordering matters:
// deleting metadata first could leak an orphan object forever, while a
// dangling row is repaired naturally by the next sweep.
func (w *Sweeper) Run(ctx context.Context) (int, error) {
	now := w.now()

	expired, err := w.repo.FindExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("query expired images: %w", err)
	}

	if len(expired) == 0 {
		w.logger.Info("sweep complete", slog.Int("deleted", 0))
		return 0, nil
	}

	w.logger.Info("sweep started",
		slog.Int("candidates", len(expired)),
		slog.Time("cutoff", now),
	)

	swept := make([]string, 0, len(expired))
	for _, rec := range expired {
		if err := w.store.Delete(ctx, rec.StorageKey); err != nil {
			w.logger.Warn("object delete failed, keeping record for next run",
				slog.String("image_id", rec.ID),
				slog.String("storage_key", rec.StorageKey),
				slog.String("error", err.Error()),
			)
			continue
		}
		swept = append(swept, rec.ID)
	}

	deleted, err := w.repo.DeleteTemporaryByIDs(ctx, swept)
	if err != nil {
		return 0, fmt.Errorf("delete expired image records: %w", err)
	}

	w.logger.Info("sweep complete",
		slog.Int("candidates", len(expired)),
		slog.Int("deleted", deleted),
	)
	return deleted, nil
}
