// Package modelstore keeps uploaded model binaries by id and hands out
// ephemeral in-memory URLs for loading them.
package modelstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pose-studio/internal/storage/sqlite"
)

// URLScheme prefixes every ephemeral URL.
const URLScheme = "blob:"

// DefaultMaxBytes caps uploads at 50 MiB.
const DefaultMaxBytes = 50 << 20

// ErrNotFound is returned by Open for an unknown or revoked URL.
var ErrNotFound = errors.New("modelstore: not found")

// Blobs is the binary surface of the backing store.
type Blobs interface {
	PutBlob(ctx context.Context, id string, data []byte) error
	GetBlob(ctx context.Context, id string) ([]byte, error)
	DeleteBlob(ctx context.Context, id string) error
	ListBlobs(ctx context.Context) ([]sqlite.BlobInfo, error)
}

// Store is safe for concurrent use.
type Store struct {
	blobs    Blobs
	maxBytes int64
	log      *zap.Logger

	mu   sync.Mutex
	urls map[string][]byte
}

// New wraps blobs. maxBytes <= 0 selects DefaultMaxBytes.
func New(blobs Blobs, maxBytes int64, log *zap.Logger) *Store {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{blobs: blobs, maxBytes: maxBytes, log: log, urls: make(map[string][]byte)}
}

// MaxBytes returns the upload size cap.
func (s *Store) MaxBytes() int64 { return s.maxBytes }

// Save stores data under id.
func (s *Store) Save(ctx context.Context, id string, data []byte) error {
	if id == "" {
		return errors.New("modelstore: id is required")
	}
	if err := s.blobs.PutBlob(ctx, id, data); err != nil {
		return fmt.Errorf("modelstore: save %s: %w", id, err)
	}
	return nil
}

// Get returns the bytes stored under id, or nil with no error when absent.
func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	data, err := s.blobs.GetBlob(ctx, id)
	if errors.Is(err, sqlite.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("modelstore: get %s: %w", id, err)
	}
	return data, nil
}

// Delete removes id. Deleting a missing id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.blobs.DeleteBlob(ctx, id); err != nil {
		return fmt.Errorf("modelstore: delete %s: %w", id, err)
	}
	return nil
}

// IDs returns the ids of every stored model.
func (s *Store) IDs(ctx context.Context) ([]string, error) {
	infos, err := s.blobs.ListBlobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("modelstore: %w", err)
	}
	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.ID
	}
	return ids, nil
}

// CreateEphemeralURL registers data under a fresh blob: URL. The URL holds
// the bytes in memory until Revoke.
func (s *Store) CreateEphemeralURL(data []byte) string {
	url := URLScheme + uuid.NewString()
	s.mu.Lock()
	s.urls[url] = data
	s.mu.Unlock()
	return url
}

// Open returns the bytes behind an ephemeral URL.
func (s *Store) Open(url string) ([]byte, error) {
	s.mu.Lock()
	data, ok := s.urls[url]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	return data, nil
}

// Revoke releases an ephemeral URL. Non-blob URLs, such as built-in model
// paths, and already revoked URLs are ignored.
func (s *Store) Revoke(url string) {
	if !strings.HasPrefix(url, URLScheme) {
		return
	}
	s.mu.Lock()
	delete(s.urls, url)
	s.mu.Unlock()
}

// Live returns the number of unrevoked URLs.
func (s *Store) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.urls)
}

// Import validates an upload and stores it under a new custom-<uuid> id.
func (s *Store) Import(ctx context.Context, filename string, data []byte) (string, error) {
	if err := s.Validate(filename, data); err != nil {
		return "", err
	}
	id := "custom-" + uuid.NewString()
	if err := s.Save(ctx, id, data); err != nil {
		return "", err
	}
	s.log.Info("model imported",
		zap.String("id", id),
		zap.String("file", filename),
		zap.Int("bytes", len(data)))
	return id, nil
}
