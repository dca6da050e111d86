package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/eventhall/server/internal/domain/categories"
	"github.com/eventhall/server/internal/domain/ids"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ categories.Repository = (*CategoryRepository)(nil)

func (r *CategoryRepository) List(ctx context.Context) ([]categories.Category, error) {
	q := pick(r.pool, r.tx)

	rows, err := q.Query(ctx, `
SELECT id, name, slug, description, created_at
  FROM event_categories
 ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	items := make([]categories.Category, 0)
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return items, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*categories.Category, error) {
	q := pick(r.pool, r.tx)

	row := q.QueryRow(ctx, `
SELECT id, name, slug, description, created_at
  FROM event_categories
 WHERE id = $1`,
		id,
	)
	category, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, categories.ErrNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return category, nil
}

func (r *CategoryRepository) Upsert(ctx context.Context, seed categories.SeedCategory) error {
	q := pick(r.pool, r.tx)

	id, err := ids.NewULID()
	if err != nil {
		return fmt.Errorf("mint category id: %w", err)
	}

	if _, err := q.Exec(ctx, `
INSERT INTO event_categories (id, name, slug, description)
VALUES ($1, $2, $3, $4)
ON CONFLICT (slug) DO UPDATE
   SET name = EXCLUDED.name, description = EXCLUDED.description`,
		id, seed.Name, seed.Slug, nullableString(seed.Description),
	); err != nil {
		return fmt.Errorf("upsert category: %w", err)
	}
	return nil
}

func scanCategory(row pgx.Row) (*categories.Category, error) {
	var (
		category    categories.Category
		description *string
		createdAt   pgtype.Timestamptz
	)
	if err := row.Scan(&category.ID, &category.Name, &category.Slug, &description, &createdAt); err != nil {
		return nil, err
	}
	category.Description = derefString(description)
	category.CreatedAt = createdAt.Time
	return &category, nil
}
