package image

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mpetrova/recipe-api/internal/storage"
)

// defaultTTL is how long an unclaimed upload stays before it is swept.
const defaultTTL = 24 * time.Hour

// Service orchestrates the upload pipeline: validate, transcode, write to
// the object store, persist metadata. It also owns promotion and the
// cascading deletion hook used by every path that removes an image record.
type Service struct {
	repo       Repository
	store      storage.ObjectStore
	transcoder *Transcoder
	logger     *slog.Logger

	ttl            time.Duration
	maxUploadBytes int64
	now            func() time.Time
}

// ServiceOption is a function that configures a Service instance.
type ServiceOption func(*Service)

// WithTTL sets how long a temporary upload lives before expiring.
func WithTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithMaxUploadBytes sets the upload size limit. Zero disables the check.
func WithMaxUploadBytes(n int64) ServiceOption {
	return func(s *Service) {
		s.maxUploadBytes = n
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new image Service.
func NewService(repo Repository, store storage.ObjectStore, transcoder *Transcoder, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:       repo,
		store:      store,
		transcoder: transcoder,
		logger:     logger,
		ttl:        defaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload runs the full pipeline for one incoming image and returns the
// created record. The record starts temporary with an expiration of
// now + TTL; it stays eligible for sweeping until a finalized recipe
// promotes it.
//
// Failure semantics: a failed store write leaves no metadata row behind.
// A failed metadata write after a successful store write triggers a
// best-effort compensating delete of the just-written object; if that
// also fails an orphan object remains and is logged.
func (s *Service) Upload(ctx context.Context, raw []byte, filename string) (*Record, error) {
	if s.maxUploadBytes > 0 && int64(len(raw)) > s.maxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(raw))
	}

	normalized, err := s.transcoder.Convert(raw, filename)
	if err != nil {
		return nil, err
	}

	// The storage key is a fresh token, never derived from the
	// user-supplied filename.
	key := uuid.New().String() + ".jpeg"

	if err := s.store.Put(ctx, key, normalized.Data); err != nil {
		s.logger.Error("object store put failed",
			slog.String("storage_key", key),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}

	now := s.now()
	rec := &Record{
		ID:           uuid.New().String(),
		StorageKey:   key,
		IsTemporary:  true,
		ExpirationAt: now.Add(s.ttl),
		CreatedAt:    now,
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		s.logger.Error("image record insert failed, compensating",
			slog.String("storage_key", key),
			slog.String("error", err.Error()),
		)
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			// The one seam where an orphan object can remain.
			s.logger.Error("compensating delete failed, orphan object remains",
				slog.String("storage_key", key),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, fmt.Errorf("%w: %v", ErrMetadataWrite, err)
	}

	s.logger.Info("image uploaded",
		slog.String("image_id", rec.ID),
		slog.String("storage_key", key),
		slog.Int("width", normalized.Width),
		slog.Int("height", normalized.Height),
		slog.Time("expiration_at", rec.ExpirationAt),
	)

	return rec, nil
}

// Get retrieves a record by id.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.repo.FindByID(ctx, id)
}

// Promote flips a record to permanent, exempting it from sweeping.
// Promoting an already-permanent record is a no-op, not an error.
// Returns ErrNotFound if the id does not resolve.
func (s *Service) Promote(ctx context.Context, id string) error {
	if err := s.repo.Promote(ctx, id); err != nil {
		return err
	}
	s.logger.Info("image promoted", slog.String("image_id", id))
	return nil
}

// Delete removes a record together with its backing object. This is the
// single deletion hook: every path that drops an image record goes through
// it, so no record row is ever removed without an attempted object delete.
// The object is deleted first; on failure the record is kept so the
// inconsistency stays visible and retryable.
func (s *Service) Delete(ctx context.Context, id string) error {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, rec.StorageKey); err != nil {
		s.logger.Error("backing object delete failed, record kept",
			slog.String("image_id", id),
			slog.String("storage_key", rec.StorageKey),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("delete backing object: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("image deleted",
		slog.String("image_id", id),
		slog.String("storage_key", rec.StorageKey),
	)
	return nil
}

// ResolveURL resolves a Reference to a public URL, one resolution path per
// variant.
func (s *Service) ResolveURL(ctx context.Context, ref Reference) (string, error) {
	switch ref.kind {
	case refByRecord:
		rec, err := s.repo.FindByID(ctx, ref.id)
		if err != nil {
			return "", err
		}
		return s.store.PublicURL(rec.StorageKey), nil
	case refByURL:
		return ref.url, nil
	case refEmbedded:
		return embeddedDataURL(ref.data), nil
	default:
		return "", fmt.Errorf("unknown image reference variant %d", ref.kind)
	}
}

// URL returns the public URL for an existing record.
func (s *Service) URL(rec *Record) string {
	return s.store.PublicURL(rec.StorageKey)
}
