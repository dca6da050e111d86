package postgres

import (
	"context"
	"fmt"

	"github.com/eventhall/server/internal/domain/applications"
	"github.com/eventhall/server/internal/domain/categories"
	"github.com/eventhall/server/internal/domain/events"
	"github.com/eventhall/server/internal/domain/interactions"
	"github.com/eventhall/server/internal/domain/users"
	"github.com/eventhall/server/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Users() users.Repository {
	return &UserRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Categories() categories.Repository {
	return &CategoryRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Events() events.Repository {
	return &EventRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Applications() applications.Repository {
	return &ApplicationRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Interactions() interactions.Repository {
	return &InteractionRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, storage.Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := &Repository{pool: r.pool, tx: tx}
	if err := fn(ctx, wrapped); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type UserRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

type CategoryRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

type EventRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

type ApplicationRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

type InteractionRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}
