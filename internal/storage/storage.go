// Package storage provides the single named byte slot the event store
// mirrors itself into. A slot knows nothing about events; it loads and
// overwrites one opaque value.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmpty is returned by Load when nothing has been saved yet.
var ErrEmpty = errors.New("storage: slot is empty")

// Slot is a one-key byte store.
type Slot interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// Options selects and configures a slot backend.
type Options struct {
	// Driver is "file", "redis" or "memory".
	Driver string

	// Path is the file location for the file driver.
	Path string

	// Key is the redis key for the redis driver.
	Key string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open builds the slot described by opts.
func Open(opts Options) (Slot, error) {
	switch opts.Driver {
	case "", "file":
		return NewFileSlot(opts.Path)
	case "redis":
		return NewRedisSlot(RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Key:      opts.Key,
		})
	case "memory":
		return NewMemorySlot(), nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", opts.Driver)
	}
}
