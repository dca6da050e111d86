package postgres

import (
	"context"
	"fmt"

	"github.com/eventhall/server/internal/domain/events"
	"github.com/eventhall/server/internal/domain/interactions"
)

var _ interactions.Repository = (*InteractionRepository)(nil)

func (r *InteractionRepository) HasLike(ctx context.Context, userID, eventID string) (bool, error) {
	q := pick(r.pool, r.tx)

	var exists bool
	err := q.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM event_likes WHERE user_id = $1 AND event_id = $2)`,
		userID, eventID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return exists, nil
}

func (r *InteractionRepository) CreateLike(ctx context.Context, id, userID, eventID string) error {
	q := pick(r.pool, r.tx)

	if _, err := q.Exec(ctx, `
INSERT INTO event_likes (id, user_id, event_id) VALUES ($1, $2, $3)
ON CONFLICT (user_id, event_id) DO NOTHING`,
		id, userID, eventID,
	); err != nil {
		if isForeignKeyViolation(err) {
			return interactions.ErrEventNotFound
		}
		return fmt.Errorf("create like: %w", err)
	}
	return nil
}

func (r *InteractionRepository) DeleteLike(ctx context.Context, userID, eventID string) error {
	q := pick(r.pool, r.tx)

	if _, err := q.Exec(ctx, `
DELETE FROM event_likes WHERE user_id = $1 AND event_id = $2`,
		userID, eventID,
	); err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	return nil
}

func (r *InteractionRepository) CreateRegistration(ctx context.Context, id, userID, eventID string) error {
	q := pick(r.pool, r.tx)

	if _, err := q.Exec(ctx, `
INSERT INTO event_registrations (id, user_id, event_id) VALUES ($1, $2, $3)`,
		id, userID, eventID,
	); err != nil {
		if isUniqueViolation(err, "") {
			return interactions.ErrAlreadyRegistered
		}
		if isForeignKeyViolation(err) {
			return interactions.ErrEventNotFound
		}
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

func (r *InteractionRepository) LikedEventIDs(ctx context.Context, userID string, eventIDs []string) ([]string, error) {
	return r.interactedEventIDs(ctx, "event_likes", userID, eventIDs)
}

func (r *InteractionRepository) RegisteredEventIDs(ctx context.Context, userID string, eventIDs []string) ([]string, error) {
	return r.interactedEventIDs(ctx, "event_registrations", userID, eventIDs)
}

func (r *InteractionRepository) interactedEventIDs(ctx context.Context, table, userID string, eventIDs []string) ([]string, error) {
	ids := make([]string, 0)
	if len(eventIDs) == 0 {
		return ids, nil
	}

	q := pick(r.pool, r.tx)
	rows, err := q.Query(ctx, fmt.Sprintf(`
SELECT event_id FROM %s WHERE user_id = $1 AND event_id = ANY($2::text[])`, table),
		userID, eventIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s ids: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s id: %w", table, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s ids: %w", table, err)
	}
	return ids, nil
}

func (r *InteractionRepository) ListLikedEvents(ctx context.Context, userID string) ([]events.Event, error) {
	return r.listInteractedEvents(ctx, "event_likes", userID)
}

func (r *InteractionRepository) ListRegisteredEvents(ctx context.Context, userID string) ([]events.Event, error) {
	return r.listInteractedEvents(ctx, "event_registrations", userID)
}

func (r *InteractionRepository) listInteractedEvents(ctx context.Context, table, userID string) ([]events.Event, error) {
	q := pick(r.pool, r.tx)

	rows, err := q.Query(ctx, eventSelect+fmt.Sprintf(`
  JOIN %s i ON i.event_id = e.id
 WHERE i.user_id = $1
 ORDER BY i.created_at DESC`, table),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s events: %w", table, err)
	}
	defer rows.Close()

	items, err := collectEvents(rows)
	if err != nil {
		return nil, err
	}
	eventRepo := &EventRepository{pool: r.pool, tx: r.tx}
	return eventRepo.attachAdditionalCategories(ctx, items)
}
