// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"bookclub_bot/internal/model"
)

// ErrNotFound is returned by Get for a key that has no value.
var ErrNotFound = errors.New("key not found")

// Storage is the interface for all persistence operations.
type Storage interface {
	// Get returns the blob stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	// Clear removes every stored key and the progress log.
	Clear(ctx context.Context) error

	RecordProgress(ctx context.Context, title string, percent int, at time.Time) (model.ProgressEntry, error)
	// ListProgress returns the latest entries for title, newest first.
	ListProgress(ctx context.Context, title string, limit int) ([]model.ProgressEntry, error)

	Close() error
}
