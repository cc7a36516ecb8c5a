package image

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/gif"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mpetrova/recipe-api/internal/storage"
)

// mockObjectStore implements storage.ObjectStore for failure injection.
type mockObjectStore struct {
	mock.Mock
}

func (m *mockObjectStore) Put(ctx context.Context, key string, data []byte) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

func (m *mockObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockObjectStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockObjectStore) DeleteBatch(ctx context.Context, keys []string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *mockObjectStore) PublicURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

// mockRepository implements Repository for failure injection.
type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, rec *Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *mockRepository) FindByID(ctx context.Context, id string) (*Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *mockRepository) FindExpired(ctx context.Context, now time.Time) ([]*Record, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Record), args.Error(1)
}

func (m *mockRepository) Promote(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepository) DeleteTemporaryByIDs(ctx context.Context, ids []string) (int, error) {
	args := m.Called(ctx, ids)
	return args.Int(0), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService(t *testing.T) (*Service, *MemoryRepository, *storage.MemoryStore) {
	t.Helper()
	repo := NewMemoryRepository()
	store := storage.NewMemoryStore()
	svc := NewService(repo, store, NewTranscoder(TranscoderConfig{}), testLogger(),
		WithClock(func() time.Time {
			return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		}),
	)
	return svc, repo, store
}

func TestService_Upload(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Upload(ctx, encodePNG(t, newTestImage(30, 20)), "dinner.png")
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.True(t, strings.HasSuffix(rec.StorageKey, ".jpeg"))
	assert.NotContains(t, rec.StorageKey, "dinner")
	assert.True(t, rec.IsTemporary)
	assert.Equal(t, rec.CreatedAt.Add(24*time.Hour), rec.ExpirationAt)

	// Round-trip: the stored object is exactly the transcoder's output.
	stored, err := store.Get(ctx, rec.StorageKey)
	require.NoError(t, err)
	decoded, format, err := image.Decode(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 30, decoded.Bounds().Dx())

	saved, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.StorageKey, saved.StorageKey)
}

func TestService_Upload_UnsupportedFormatLeavesNothing(t *testing.T) {
	svc, repo, store := newTestService(t)

	var gifData bytes.Buffer
	require.NoError(t, gif.Encode(&gifData, newTestImage(10, 10), nil))

	_, err := svc.Upload(context.Background(), gifData.Bytes(), "anim.gif")
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.Equal(t, 0, repo.Len())
	assert.Equal(t, 0, store.Len())
}

func TestService_Upload_TooLarge(t *testing.T) {
	repo := NewMemoryRepository()
	store := storage.NewMemoryStore()
	svc := NewService(repo, store, NewTranscoder(TranscoderConfig{}), testLogger(),
		WithMaxUploadBytes(10),
	)

	_, err := svc.Upload(context.Background(), encodePNG(t, newTestImage(10, 10)), "big.png")
	require.ErrorIs(t, err, ErrTooLarge)
	assert.Equal(t, 0, repo.Len())
	assert.Equal(t, 0, store.Len())
}

func TestService_Upload_StorageWriteFailure(t *testing.T) {
	repo := NewMemoryRepository()
	store := &mockObjectStore{}
	store.On("Put", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("bucket unavailable"))

	svc := NewService(repo, store, NewTranscoder(TranscoderConfig{}), testLogger())

	_, err := svc.Upload(context.Background(), encodePNG(t, newTestImage(10, 10)), "a.png")
	require.ErrorIs(t, err, ErrStorageWrite)

	// No orphan record: the metadata write never happened.
	assert.Equal(t, 0, repo.Len())
	store.AssertExpectations(t)
}

func TestService_Upload_MetadataFailureCompensates(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Create", mock.Anything, mock.Anything).
		Return(errors.New("db insert failed"))

	store := storage.NewMemoryStore()
	svc := NewService(repo, store, NewTranscoder(TranscoderConfig{}), testLogger())

	_, err := svc.Upload(context.Background(), encodePNG(t, newTestImage(10, 10)), "a.png")
	require.ErrorIs(t, err, ErrMetadataWrite)

	// The compensating delete removed the just-written object.
	assert.Equal(t, 0, store.Len())
	repo.AssertExpectations(t)
}

func TestService_Upload_CompensationFailureStillSurfacesMetadataError(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Create", mock.Anything, mock.Anything).
		Return(errors.New("db insert failed"))

	store := &mockObjectStore{}
	store.On("Put", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store.On("Delete", mock.Anything, mock.Anything).
		Return(errors.New("delete also failed"))

	svc := NewService(repo, store, NewTranscoder(TranscoderConfig{}), testLogger())

	_, err := svc.Upload(context.Background(), encodePNG(t, newTestImage(10, 10)), "a.png")
	require.ErrorIs(t, err, ErrMetadataWrite)
	store.AssertExpectations(t)
}

func TestService_Promote_Idempotent(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Upload(ctx, encodePNG(t, newTestImage(10, 10)), "a.png")
	require.NoError(t, err)

	require.NoError(t, svc.Promote(ctx, rec.ID))
	require.NoError(t, svc.Promote(ctx, rec.ID))

	found, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.False(t, found.IsTemporary)
}

func TestService_Promote_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.Promote(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Delete_RemovesObjectAndRecord(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Upload(ctx, encodePNG(t, newTestImage(10, 10)), "a.png")
	require.NoError(t, err)
	require.NoError(t, svc.Promote(ctx, rec.ID))

	require.NoError(t, svc.Delete(ctx, rec.ID))

	assert.False(t, store.Exists(rec.StorageKey))
	_, err = repo.FindByID(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Delete_KeepsRecordWhenObjectDeleteFails(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Upload(ctx, encodePNG(t, newTestImage(10, 10)), "a.png")
	require.NoError(t, err)

	store.FailDeleteWith(rec.StorageKey, errors.New("backend down"))

	err = svc.Delete(ctx, rec.ID)
	require.Error(t, err)

	// Record survives so the inconsistency stays visible and retryable.
	_, err = repo.FindByID(ctx, rec.ID)
	assert.NoError(t, err)
}

func TestService_ResolveURL(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Upload(ctx, encodePNG(t, newTestImage(10, 10)), "a.png")
	require.NoError(t, err)

	t.Run("by record", func(t *testing.T) {
		url, err := svc.ResolveURL(ctx, RefByRecord(rec.ID))
		require.NoError(t, err)
		assert.Equal(t, "memory://"+rec.StorageKey, url)
	})

	t.Run("by record not found", func(t *testing.T) {
		_, err := svc.ResolveURL(ctx, RefByRecord("missing"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("by url", func(t *testing.T) {
		url, err := svc.ResolveURL(ctx, RefByURL("https://cdn.example.com/x.jpeg"))
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/x.jpeg", url)
	})

	t.Run("embedded", func(t *testing.T) {
		url, err := svc.ResolveURL(ctx, RefEmbedded([]byte{0xFF, 0xD8}))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(url, "data:image/jpeg;base64,"))
	})
}
