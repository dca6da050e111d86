package interactions

import (
	"context"
	"fmt"

	"github.com/eventhall/server/internal/domain/events"
	"github.com/eventhall/server/internal/domain/ids"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ToggleLike flips the like state for (user, event) and reports the
// resulting state: true when the call created a like, false when it
// removed one.
func (s *Service) ToggleLike(ctx context.Context, userID, eventID string) (bool, error) {
	liked, err := s.repo.HasLike(ctx, userID, eventID)
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}

	if liked {
		if err := s.repo.DeleteLike(ctx, userID, eventID); err != nil {
			return false, fmt.Errorf("delete like: %w", err)
		}
		return false, nil
	}

	id, err := ids.NewULID()
	if err != nil {
		return false, fmt.Errorf("mint like id: %w", err)
	}
	if err := s.repo.CreateLike(ctx, id, userID, eventID); err != nil {
		return false, err
	}
	return true, nil
}

// Register records a one-time registration for (user, event). A second
// registration always fails with ErrAlreadyRegistered; there is no
// unregister operation.
func (s *Service) Register(ctx context.Context, userID, eventID string) error {
	id, err := ids.NewULID()
	if err != nil {
		return fmt.Errorf("mint registration id: %w", err)
	}
	return s.repo.CreateRegistration(ctx, id, userID, eventID)
}

// InteractionSets annotates a set of events with the caller's likes
// and registrations.
type InteractionSets struct {
	LikedEventIDs      []string `json:"likedEventIds"`
	RegisteredEventIDs []string `json:"registeredEventIds"`
}

// Check returns, for the given event ids, the subsets the user has
// liked and registered for. Used by listing views to avoid per-event
// lookups.
func (s *Service) Check(ctx context.Context, userID string, eventIDs []string) (InteractionSets, error) {
	sets := InteractionSets{LikedEventIDs: []string{}, RegisteredEventIDs: []string{}}

	liked, err := s.repo.LikedEventIDs(ctx, userID, eventIDs)
	if err != nil {
		return sets, fmt.Errorf("check likes: %w", err)
	}
	registered, err := s.repo.RegisteredEventIDs(ctx, userID, eventIDs)
	if err != nil {
		return sets, fmt.Errorf("check registrations: %w", err)
	}

	if liked != nil {
		sets.LikedEventIDs = liked
	}
	if registered != nil {
		sets.RegisteredEventIDs = registered
	}
	return sets, nil
}

// ListLikedEvents returns the events the user has liked.
func (s *Service) ListLikedEvents(ctx context.Context, userID string) ([]events.Event, error) {
	return s.repo.ListLikedEvents(ctx, userID)
}

// ListRegisteredEvents returns the events the user has registered for.
func (s *Service) ListRegisteredEvents(ctx context.Context, userID string) ([]events.Event, error) {
	return s.repo.ListRegisteredEvents(ctx, userID)
}
