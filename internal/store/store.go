// Package store persists flags. It is the authoritative source the shared
// cache is filled from; mutations always go through it first.
package store

import (
	"context"

	"github.com/OrlandoBitencourt/gonfalon/internal/domain"
)

// Store is the flag persistence contract.
type Store interface {
	// Get returns the flag or a NotFoundError.
	Get(ctx context.Context, key string) (*domain.Flag, error)

	// List returns flags ordered by key, applying skip/limit pagination.
	List(ctx context.Context, skip, limit int) ([]domain.Flag, error)

	// Create persists a new flag. Fails with a ValidationError when the key
	// already exists.
	Create(ctx context.Context, flag domain.Flag) error

	// Update replaces an existing flag. Fails with a NotFoundError when the
	// key does not exist.
	Update(ctx context.Context, flag domain.Flag) error

	// Delete removes a flag. Fails with a NotFoundError when absent.
	Delete(ctx context.Context, key string) error

	// Close releases backing resources.
	Close() error
}
