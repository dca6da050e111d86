package categories

import (
	"context"
	"fmt"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the full taxonomy ordered by name.
func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx)
}

// Seed upserts the given categories by slug. Entries missing a name or
// slug are rejected before any write.
func (s *Service) Seed(ctx context.Context, seeds []SeedCategory) error {
	for _, seed := range seeds {
		if strings.TrimSpace(seed.Name) == "" || strings.TrimSpace(seed.Slug) == "" {
			return fmt.Errorf("seed category requires name and slug: %+v", seed)
		}
	}
	for _, seed := range seeds {
		if err := s.repo.Upsert(ctx, seed); err != nil {
			return fmt.Errorf("seed category %q: %w", seed.Slug, err)
		}
	}
	return nil
}
