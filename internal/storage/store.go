// Package storage provides abstractions for archiving families.
package storage

import (
	"context"
	"errors"

	"github.com/TheFirstGuy/AncestrE/internal/models"
)

// ErrNotFound is returned when no archived family has the requested name.
var ErrNotFound = errors.New("family not found")

// FamilySummary describes one archived family.
type FamilySummary struct {
	// Name is the family's display name, unique within a store.
	Name string

	// Members is the number of persons in the snapshot.
	Members int

	// SavedAt is the Unix timestamp of the last SaveFamily.
	SavedAt int64
}

// Store defines the interface for family archive operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// SaveFamily stores a snapshot of f, replacing any snapshot with the
	// same name. Links to non-members are dropped, as in the file format.
	SaveFamily(ctx context.Context, f *models.Family) error

	// GetFamily rebuilds the snapshot stored under name.
	// Returns ErrNotFound if there is none.
	GetFamily(ctx context.Context, name string) (*models.Family, error)

	// ListFamilies returns every snapshot, ordered by name.
	ListFamilies(ctx context.Context) ([]FamilySummary, error)

	// DeleteFamily removes the snapshot stored under name.
	// Returns ErrNotFound if there is none.
	DeleteFamily(ctx context.Context, name string) error

	// Close releases any resources held by the store.
	Close() error
}
