package interactions

import (
	"context"
	"errors"

	"github.com/eventhall/server/internal/domain/events"
)

var (
	// ErrAlreadyRegistered is returned on duplicate registration.
	// Registration is not a toggle and has no undo.
	ErrAlreadyRegistered = errors.New("already registered for this event")

	ErrEventNotFound = errors.New("event not found")
)

type Repository interface {
	HasLike(ctx context.Context, userID, eventID string) (bool, error)
	CreateLike(ctx context.Context, id, userID, eventID string) error
	DeleteLike(ctx context.Context, userID, eventID string) error
	CreateRegistration(ctx context.Context, id, userID, eventID string) error
	// LikedEventIDs and RegisteredEventIDs return the subset of
	// eventIDs the user has liked or registered for.
	LikedEventIDs(ctx context.Context, userID string, eventIDs []string) ([]string, error)
	RegisteredEventIDs(ctx context.Context, userID string, eventIDs []string) ([]string, error)
	// ListLikedEvents and ListRegisteredEvents return the full event
	// views newest-interaction-first for the /me collections.
	ListLikedEvents(ctx context.Context, userID string) ([]events.Event, error)
	ListRegisteredEvents(ctx context.Context, userID string) ([]events.Event, error)
}
