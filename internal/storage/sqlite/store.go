// Package sqlite persists studio state and uploaded model binaries in a
// single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"pose-studio/internal/storage/sqlite/migrations"
)

// ErrNotFound is returned when a key or blob does not exist.
var ErrNotFound = errors.New("sqlite: not found")

// Store holds the key-value and blob tables.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite: storage path is required")
	}
	clean := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: create dir: %w", err)
	}
	dsn := "file:" + clean + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if err := applyMigrations(context.Background(), db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GetValue returns the raw value stored under key.
func (s *Store) GetValue(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get %q: %w", key, err)
	}
	return v, nil
}

// PutValue stores value under key, replacing any previous value.
func (s *Store) PutValue(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("sqlite: put %q: %w", key, err)
	}
	return nil
}

// DeleteValue removes key. Deleting a missing key is not an error.
func (s *Store) DeleteValue(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite: delete %q: %w", key, err)
	}
	return nil
}

// PutBlob stores data under id, replacing any previous blob.
func (s *Store) PutBlob(ctx context.Context, id string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blobs (id, data, size, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, size = excluded.size`,
		id, data, len(data), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("sqlite: put blob %q: %w", id, err)
	}
	return nil
}

// GetBlob returns the blob stored under id.
func (s *Store) GetBlob(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM blobs WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get blob %q: %w", id, err)
	}
	return data, nil
}

// DeleteBlob removes the blob stored under id, if any.
func (s *Store) DeleteBlob(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: delete blob %q: %w", id, err)
	}
	return nil
}

// BlobInfo describes a stored blob without its contents.
type BlobInfo struct {
	ID        string
	Size      int64
	CreatedAt time.Time
}

// ListBlobs returns every stored blob, oldest first.
func (s *Store) ListBlobs(ctx context.Context) ([]BlobInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, size, created_at FROM blobs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list blobs: %w", err)
	}
	defer rows.Close()

	var out []BlobInfo
	for rows.Next() {
		var (
			info BlobInfo
			ms   int64
		)
		if err := rows.Scan(&info.ID, &info.Size, &ms); err != nil {
			return nil, fmt.Errorf("sqlite: scan blob: %w", err)
		}
		info.CreatedAt = time.UnixMilli(ms).UTC()
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list blobs: %w", err)
	}
	return out, nil
}
