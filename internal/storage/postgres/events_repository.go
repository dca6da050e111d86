package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/eventhall/server/internal/domain/categories"
	"github.com/eventhall/server/internal/domain/events"
	"github.com/eventhall/server/internal/domain/ids"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ events.Repository = (*EventRepository)(nil)

const eventSelect = `
SELECT e.id, e.title, e.description, e.date, e.time, e.location, e.district, e.google_maps_link,
       e.primary_category_id, e.entry_fee, e.is_free, e.prize_details, e.contact_email,
       e.contact_phone, e.external_registration_link, e.how_to_register_link, e.instagram_url,
       e.facebook_url, e.youtube_url, e.banner_url, e.status, e.rejection_reason,
       e.created_by_user_id, e.created_at, e.updated_at,
       c.id, c.name, c.slug, c.description, c.created_at,
       u.id, u.full_name, u.email, u.photo_url,
       (SELECT count(*) FROM event_likes l WHERE l.event_id = e.id) AS like_count,
       (SELECT count(*) FROM event_registrations g WHERE g.event_id = e.id) AS registration_count
  FROM events e
  JOIN event_categories c ON c.id = e.primary_category_id
  JOIN users u ON u.id = e.created_by_user_id`

func (r *EventRepository) List(ctx context.Context, filters events.Filters) ([]events.Event, error) {
	q := pick(r.pool, r.tx)

	var dateFrom, dateTo *time.Time
	if filters.DateFrom != nil {
		value := filters.DateFrom.UTC()
		dateFrom = &value
	}
	if filters.DateTo != nil {
		value := filters.DateTo.UTC()
		dateTo = &value
	}

	orderBy := "e.date ASC, e.created_at DESC"
	if filters.Sort == events.SortNewest {
		orderBy = "e.created_at DESC"
	}

	rows, err := q.Query(ctx, eventSelect+`
 WHERE ($1 = '' OR e.status = $1)
   AND ($2 = '' OR e.primary_category_id = $2 OR EXISTS (
         SELECT 1 FROM event_additional_categories ac
          WHERE ac.event_id = e.id AND ac.category_id = $2))
   AND ($3 = '' OR e.district = $3)
   AND ($4 = '' OR e.title ILIKE '%' || $4 || '%'
               OR e.description ILIKE '%' || $4 || '%'
               OR e.location ILIKE '%' || $4 || '%')
   AND ($5::date IS NULL OR e.date >= $5::date)
   AND ($6::date IS NULL OR e.date <= $6::date)
   AND ($7::boolean IS NULL OR e.is_free = $7::boolean)
   AND ($8 = '' OR e.created_by_user_id = $8)
 ORDER BY `+orderBy,
		filters.Status,
		filters.CategoryID,
		filters.District,
		filters.Search,
		dateFrom,
		dateTo,
		filters.IsFree,
		filters.CreatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	items, err := collectEvents(rows)
	if err != nil {
		return nil, err
	}
	return r.attachAdditionalCategories(ctx, items)
}

func (r *EventRepository) ListByCategory(ctx context.Context, categoryID string, limit int) ([]events.Event, error) {
	q := pick(r.pool, r.tx)

	rows, err := q.Query(ctx, eventSelect+`
 WHERE e.status = $1
   AND (e.primary_category_id = $2 OR EXISTS (
         SELECT 1 FROM event_additional_categories ac
          WHERE ac.event_id = e.id AND ac.category_id = $2))
 ORDER BY e.date ASC, e.created_at DESC
 LIMIT $3`,
		string(events.StatusPublished),
		categoryID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events by category: %w", err)
	}
	defer rows.Close()

	items, err := collectEvents(rows)
	if err != nil {
		return nil, err
	}
	return r.attachAdditionalCategories(ctx, items)
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*events.Event, error) {
	q := pick(r.pool, r.tx)

	rows, err := q.Query(ctx, eventSelect+` WHERE e.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	defer rows.Close()

	items, err := collectEvents(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, events.ErrNotFound
	}

	items, err = r.attachAdditionalCategories(ctx, items)
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (r *EventRepository) Create(ctx context.Context, record events.Record) (*events.Event, error) {
	if r.tx != nil {
		return r.create(ctx, r.tx, record)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	created, err := r.create(ctx, tx, record)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return r.GetByID(ctx, created.ID)
}

func (r *EventRepository) create(ctx context.Context, q queryer, record events.Record) (*events.Event, error) {
	if _, err := q.Exec(ctx, `
INSERT INTO events (
	id, title, description, date, time, location, district, google_maps_link,
	primary_category_id, entry_fee, is_free, prize_details, contact_email, contact_phone,
	external_registration_link, how_to_register_link, instagram_url, facebook_url,
	youtube_url, banner_url, status, created_by_user_id
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22
)`,
		record.ID,
		record.Title,
		record.Description,
		record.Date,
		record.Time,
		record.Location,
		record.District,
		nullableString(record.GoogleMapsLink),
		record.PrimaryCategoryID,
		record.EntryFee,
		record.IsFree,
		nullableString(record.PrizeDetails),
		record.ContactEmail,
		record.ContactPhone,
		nullableString(record.ExternalRegistrationLink),
		nullableString(record.HowToRegisterLink),
		nullableString(record.InstagramURL),
		nullableString(record.FacebookURL),
		nullableString(record.YoutubeURL),
		nullableString(record.BannerURL),
		string(record.Status),
		record.CreatedByUserID,
	); err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("create event: unknown category or user: %w", err)
		}
		return nil, fmt.Errorf("create event: %w", err)
	}

	if record.AdditionalCategoryIDs != nil {
		if err := replaceEventCategories(ctx, q, record.ID, record.AdditionalCategoryIDs); err != nil {
			return nil, err
		}
	}
	return &events.Event{ID: record.ID}, nil
}

func (r *EventRepository) Update(ctx context.Context, record events.Record) (*events.Event, error) {
	if r.tx != nil {
		if err := r.update(ctx, r.tx, record); err != nil {
			return nil, err
		}
		return r.GetByID(ctx, record.ID)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	if err := r.update(ctx, tx, record); err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return r.GetByID(ctx, record.ID)
}

func (r *EventRepository) update(ctx context.Context, q queryer, record events.Record) error {
	tag, err := q.Exec(ctx, `
UPDATE events
   SET title = $2, description = $3, date = $4, time = $5, location = $6, district = $7,
       google_maps_link = $8, primary_category_id = $9, entry_fee = $10, is_free = $11,
       prize_details = $12, contact_email = $13, contact_phone = $14,
       external_registration_link = $15, how_to_register_link = $16, instagram_url = $17,
       facebook_url = $18, youtube_url = $19, banner_url = $20, status = $21,
       updated_at = now()
 WHERE id = $1`,
		record.ID,
		record.Title,
		record.Description,
		record.Date,
		record.Time,
		record.Location,
		record.District,
		nullableString(record.GoogleMapsLink),
		record.PrimaryCategoryID,
		record.EntryFee,
		record.IsFree,
		nullableString(record.PrizeDetails),
		record.ContactEmail,
		record.ContactPhone,
		nullableString(record.ExternalRegistrationLink),
		nullableString(record.HowToRegisterLink),
		nullableString(record.InstagramURL),
		nullableString(record.FacebookURL),
		nullableString(record.YoutubeURL),
		nullableString(record.BannerURL),
		string(record.Status),
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}

	if record.AdditionalCategoryIDs != nil {
		if err := replaceEventCategories(ctx, q, record.ID, record.AdditionalCategoryIDs); err != nil {
			return err
		}
	}
	return nil
}

func (r *EventRepository) UpdateStatus(ctx context.Context, id string, status events.Status, rejectionReason *string) (*events.Event, error) {
	q := pick(r.pool, r.tx)

	tag, err := q.Exec(ctx, `
UPDATE events
   SET status = $2,
       rejection_reason = CASE WHEN $2 = 'REJECTED' THEN COALESCE($3, rejection_reason) ELSE rejection_reason END,
       updated_at = now()
 WHERE id = $1`,
		id, string(status), rejectionReason,
	)
	if err != nil {
		return nil, fmt.Errorf("update event status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, events.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func replaceEventCategories(ctx context.Context, q queryer, eventID string, categoryIDs []string) error {
	if _, err := q.Exec(ctx, `DELETE FROM event_additional_categories WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("clear additional categories: %w", err)
	}
	for _, categoryID := range categoryIDs {
		id, err := ids.NewULID()
		if err != nil {
			return fmt.Errorf("mint category link id: %w", err)
		}
		if _, err := q.Exec(ctx, `
INSERT INTO event_additional_categories (id, event_id, category_id) VALUES ($1, $2, $3)`,
			id, eventID, categoryID,
		); err != nil {
			return fmt.Errorf("insert additional category: %w", err)
		}
	}
	return nil
}

func (r *EventRepository) attachAdditionalCategories(ctx context.Context, items []events.Event) ([]events.Event, error) {
	if len(items) == 0 {
		return items, nil
	}

	eventIDs := make([]string, 0, len(items))
	index := make(map[string]int, len(items))
	for i, item := range items {
		eventIDs = append(eventIDs, item.ID)
		index[item.ID] = i
	}

	q := pick(r.pool, r.tx)
	rows, err := q.Query(ctx, `
SELECT ac.event_id, c.id, c.name, c.slug, c.description, c.created_at
  FROM event_additional_categories ac
  JOIN event_categories c ON c.id = ac.category_id
 WHERE ac.event_id = ANY($1::text[])
 ORDER BY c.name ASC`,
		eventIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("load additional categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			eventID     string
			category    categories.Category
			description *string
			createdAt   pgtype.Timestamptz
		)
		if err := rows.Scan(&eventID, &category.ID, &category.Name, &category.Slug, &description, &createdAt); err != nil {
			return nil, fmt.Errorf("scan additional category: %w", err)
		}
		category.Description = derefString(description)
		category.CreatedAt = createdAt.Time
		if i, ok := index[eventID]; ok {
			items[i].AdditionalCategories = append(items[i].AdditionalCategories, category)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate additional categories: %w", err)
	}
	return items, nil
}

func collectEvents(rows pgx.Rows) ([]events.Event, error) {
	items := make([]events.Event, 0)
	for rows.Next() {
		var (
			event               events.Event
			googleMapsLink      *string
			prizeDetails        *string
			externalRegLink     *string
			howToRegisterLink   *string
			instagramURL        *string
			facebookURL         *string
			youtubeURL          *string
			bannerURL           *string
			rejectionReason     *string
			status              string
			date                pgtype.Date
			createdAt           pgtype.Timestamptz
			updatedAt           pgtype.Timestamptz
			category            categories.Category
			categoryDescription *string
			categoryCreatedAt   pgtype.Timestamptz
			creator             events.CreatorSummary
			creatorPhotoURL     *string
		)
		if err := rows.Scan(
			&event.ID,
			&event.Title,
			&event.Description,
			&date,
			&event.Time,
			&event.Location,
			&event.District,
			&googleMapsLink,
			&event.PrimaryCategoryID,
			&event.EntryFee,
			&event.IsFree,
			&prizeDetails,
			&event.ContactEmail,
			&event.ContactPhone,
			&externalRegLink,
			&howToRegisterLink,
			&instagramURL,
			&facebookURL,
			&youtubeURL,
			&bannerURL,
			&status,
			&rejectionReason,
			&event.CreatedByUserID,
			&createdAt,
			&updatedAt,
			&category.ID,
			&category.Name,
			&category.Slug,
			&categoryDescription,
			&categoryCreatedAt,
			&creator.ID,
			&creator.FullName,
			&creator.Email,
			&creatorPhotoURL,
			&event.LikeCount,
			&event.RegistrationCount,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		event.GoogleMapsLink = derefString(googleMapsLink)
		event.PrizeDetails = derefString(prizeDetails)
		event.ExternalRegistrationLink = derefString(externalRegLink)
		event.HowToRegisterLink = derefString(howToRegisterLink)
		event.InstagramURL = derefString(instagramURL)
		event.FacebookURL = derefString(facebookURL)
		event.YoutubeURL = derefString(youtubeURL)
		event.BannerURL = derefString(bannerURL)
		event.RejectionReason = derefString(rejectionReason)
		event.Status = events.Status(status)
		event.Date = date.Time
		event.CreatedAt = createdAt.Time
		event.UpdatedAt = updatedAt.Time

		category.Description = derefString(categoryDescription)
		category.CreatedAt = categoryCreatedAt.Time
		event.PrimaryCategory = &category

		creator.PhotoURL = derefString(creatorPhotoURL)
		event.CreatedBy = &creator

		event.AdditionalCategories = []categories.Category{}
		items = append(items, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return items, nil
}
