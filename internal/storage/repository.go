package storage

import (
	"context"

	"github.com/eventhall/server/internal/domain/applications"
	"github.com/eventhall/server/internal/domain/categories"
	"github.com/eventhall/server/internal/domain/events"
	"github.com/eventhall/server/internal/domain/interactions"
	"github.com/eventhall/server/internal/domain/users"
)

// Repository groups data access by domain.
type Repository interface {
	Users() users.Repository
	Categories() categories.Repository
	Events() events.Repository
	Applications() applications.Repository
	Interactions() interactions.Repository

	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
}
