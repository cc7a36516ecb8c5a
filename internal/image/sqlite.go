package image

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Compile-time check that SQLiteRepository implements Repository.
var _ Repository = (*SQLiteRepository)(nil)

// imageSchema is executed at construction. Timestamps are stored as unix
// seconds so that range comparisons stay driver-independent.
const imageSchema = `
CREATE TABLE IF NOT EXISTS images (
  id TEXT PRIMARY KEY,
  storage_key TEXT UNIQUE NOT NULL,
  is_temporary BOOLEAN NOT NULL DEFAULT TRUE,
  expiration_at INTEGER NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_images_expiry ON images(is_temporary, expiration_at);
`

// SQLiteRepository implements Repository on a SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates the repository and applies the images schema.
func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if _, err := db.Exec(imageSchema); err != nil {
		return nil, fmt.Errorf("apply images schema: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// Create persists a new record.
func (r *SQLiteRepository) Create(ctx context.Context, rec *Record) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO images (id, storage_key, is_temporary, expiration_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.StorageKey, rec.IsTemporary, rec.ExpirationAt.Unix(), rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert image record %s: %w", rec.ID, err)
	}
	return nil
}

// FindByID retrieves a record by its identifier.
func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, storage_key, is_temporary, expiration_at, created_at
		 FROM images WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select image record %s: %w", id, err)
	}
	return rec, nil
}

// FindExpired returns a snapshot of temporary records expired at now.
func (r *SQLiteRepository) FindExpired(ctx context.Context, now time.Time) ([]*Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, storage_key, is_temporary, expiration_at, created_at
		 FROM images WHERE is_temporary = TRUE AND expiration_at <= ?`, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("select expired image records: %w", err)
	}
	defer rows.Close()

	var result []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expired image record: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// Promote flips a record to permanent. Idempotent.
func (r *SQLiteRepository) Promote(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE images SET is_temporary = FALSE WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("promote image record %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("promote image record %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a record.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete image record %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete image record %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTemporaryByIDs removes the given records in a single statement,
// guarded on is_temporary so that records promoted after the caller's
// snapshot survive.
func (r *SQLiteRepository) DeleteTemporaryByIDs(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM images WHERE id IN (%s) AND is_temporary = TRUE`, placeholders),
		args...)
	if err != nil {
		return 0, fmt.Errorf("batch delete image records: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("batch delete image records: %w", err)
	}
	return int(affected), nil
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var expirationAt, createdAt int64
	if err := row.Scan(&rec.ID, &rec.StorageKey, &rec.IsTemporary, &expirationAt, &createdAt); err != nil {
		return nil, err
	}
	rec.ExpirationAt = time.Unix(expirationAt, 0).UTC()
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &rec, nil
}
