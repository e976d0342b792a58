package storage

import (
	"context"
	"errors"
	"io"
)

var ErrNotExist = errors.New("storage: object does not exist")

// Storage persists binary objects under relative keys.
type Storage interface {
	// Save writes content under key, replacing anything already stored there.
	Save(ctx context.Context, key string, content io.Reader) error

	// Get opens the object stored under key. Returns ErrNotExist when absent.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
