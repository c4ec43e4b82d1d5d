package ports

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a StateStore when a key holds no value.
var ErrNotFound = errors.New("not found")

// StateStore persists serialized values in named slots.
type StateStore interface {
	// Get returns the stored bytes, or ErrNotFound when the slot is empty.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set overwrites the slot.
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
