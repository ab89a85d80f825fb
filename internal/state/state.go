// Package state persists per-feature UI state as JSON under namespaced keys.
// A missing or corrupted key always yields the compiled-in default.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"pose-studio/internal/storage/sqlite"
)

// KV is the key-value surface of the backing store.
type KV interface {
	GetValue(ctx context.Context, key string) ([]byte, error)
	PutValue(ctx context.Context, key string, value []byte) error
	DeleteValue(ctx context.Context, key string) error
}

// Key is a typed persisted value with its default.
type Key[T any] struct {
	Name    string
	Default func() T
}

func (k Key[T]) def() T {
	if k.Default == nil {
		var zero T
		return zero
	}
	return k.Default()
}

// Load returns the stored value, or the default when the key is missing,
// unreadable or does not decode. Read failures and corrupted values are
// logged as warnings, never returned.
func (k Key[T]) Load(ctx context.Context, kv KV, log *zap.Logger) T {
	if log == nil {
		log = zap.NewNop()
	}
	raw, err := kv.GetValue(ctx, k.Name)
	if errors.Is(err, sqlite.ErrNotFound) {
		return k.def()
	}
	if err != nil {
		log.Warn("state read failed, using defaults", zap.String("key", k.Name), zap.Error(err))
		return k.def()
	}
	v := k.def()
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Warn("state corrupted, using defaults", zap.String("key", k.Name), zap.Error(err))
		return k.def()
	}
	return v
}

// Save stores v as JSON.
func (k Key[T]) Save(ctx context.Context, kv KV, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("state: encode %s: %w", k.Name, err)
	}
	if err := kv.PutValue(ctx, k.Name, raw); err != nil {
		return fmt.Errorf("state: save %s: %w", k.Name, err)
	}
	return nil
}

// Clear removes the stored value so the next Load yields the default.
func (k Key[T]) Clear(ctx context.Context, kv KV) error {
	if err := kv.DeleteValue(ctx, k.Name); err != nil {
		return fmt.Errorf("state: clear %s: %w", k.Name, err)
	}
	return nil
}
