package categories

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("category not found")

// Category is one entry in the flat event taxonomy. The taxonomy is
// seeded once and never mutated by the approval workflow.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SeedCategory is one entry of the seed file, keyed by slug.
type SeedCategory struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

type Repository interface {
	List(ctx context.Context) ([]Category, error)
	GetByID(ctx context.Context, id string) (*Category, error)
	// Upsert inserts the category or updates name/description when the
	// slug already exists.
	Upsert(ctx context.Context, seed SeedCategory) error
}
