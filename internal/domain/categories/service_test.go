package categories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCategoryRepo struct {
	upserts []SeedCategory
}

func (f *fakeCategoryRepo) List(_ context.Context) ([]Category, error) { return nil, nil }

func (f *fakeCategoryRepo) GetByID(_ context.Context, _ string) (*Category, error) {
	return nil, ErrNotFound
}

func (f *fakeCategoryRepo) Upsert(_ context.Context, seed SeedCategory) error {
	f.upserts = append(f.upserts, seed)
	return nil
}

func TestSeed(t *testing.T) {
	repo := &fakeCategoryRepo{}
	service := NewService(repo)

	err := service.Seed(context.Background(), []SeedCategory{
		{Name: "Hackathon", Slug: "hackathon"},
		{Name: "Quiz", Slug: "quiz", Description: "General knowledge quizzes"},
	})
	require.NoError(t, err)
	assert.Len(t, repo.upserts, 2)
}

func TestSeedValidatesBeforeAnyWrite(t *testing.T) {
	repo := &fakeCategoryRepo{}
	service := NewService(repo)

	err := service.Seed(context.Background(), []SeedCategory{
		{Name: "Hackathon", Slug: "hackathon"},
		{Name: " ", Slug: "blank-name"},
	})
	require.Error(t, err)
	assert.Empty(t, repo.upserts, "invalid entry aborts the whole seed")
}
