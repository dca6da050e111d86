package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/eventhall/server/internal/auth"
	"github.com/eventhall/server/internal/domain/categories"
	"github.com/eventhall/server/internal/domain/ids"
	"github.com/eventhall/server/internal/domain/users"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ users.Repository = (*UserRepository)(nil)

const userColumns = `id, subject_id, email, full_name, photo_url, role, is_student, college_name, created_at, updated_at`

func (r *UserRepository) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *UserRepository) GetBySubjectID(ctx context.Context, subjectID string) (*users.User, error) {
	return r.getBy(ctx, "subject_id = $1", subjectID)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.getBy(ctx, "lower(email) = lower($1)", email)
}

func (r *UserRepository) getBy(ctx context.Context, predicate string, arg any) (*users.User, error) {
	q := pick(r.pool, r.tx)

	row := q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+predicate, arg)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	interests, err := r.loadInterests(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Interests = interests
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, params users.CreateParams) (*users.User, error) {
	q := pick(r.pool, r.tx)

	row := q.QueryRow(ctx, `
INSERT INTO users (id, subject_id, email, full_name, photo_url, role, is_student, college_name)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+userColumns,
		params.ID,
		params.SubjectID,
		params.Email,
		params.FullName,
		nullableString(params.PhotoURL),
		string(params.Role),
		params.IsStudent,
		nullableString(params.CollegeName),
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	user.Interests = []users.Interest{}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, id string, update users.Update) (*users.User, error) {
	q := pick(r.pool, r.tx)

	var role *string
	if update.Role != nil {
		value := string(*update.Role)
		role = &value
	}

	row := q.QueryRow(ctx, `
UPDATE users
   SET email        = COALESCE($2, email),
       full_name    = COALESCE($3, full_name),
       photo_url    = COALESCE($4, photo_url),
       is_student   = COALESCE($5, is_student),
       college_name = COALESCE($6, college_name),
       role         = COALESCE($7, role),
       updated_at   = now()
 WHERE id = $1
RETURNING `+userColumns,
		id,
		update.Email,
		update.FullName,
		update.PhotoURL,
		update.IsStudent,
		update.CollegeName,
		role,
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	interests, err := r.loadInterests(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Interests = interests
	return user, nil
}

// ReplaceInterests swaps the interest set inside one transaction so no
// reader observes the intermediate empty set.
func (r *UserRepository) ReplaceInterests(ctx context.Context, userID string, categoryIDs []string) error {
	if r.tx != nil {
		return replaceInterests(ctx, r.tx, userID, categoryIDs)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := replaceInterests(ctx, tx, userID, categoryIDs); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func replaceInterests(ctx context.Context, q queryer, userID string, categoryIDs []string) error {
	if _, err := q.Exec(ctx, `DELETE FROM user_interests WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear interests: %w", err)
	}
	for _, categoryID := range categoryIDs {
		id, err := ids.NewULID()
		if err != nil {
			return fmt.Errorf("mint interest id: %w", err)
		}
		if _, err := q.Exec(ctx, `
INSERT INTO user_interests (id, user_id, category_id) VALUES ($1, $2, $3)`,
			id, userID, categoryID,
		); err != nil {
			return fmt.Errorf("insert interest: %w", err)
		}
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, filters users.Filters) ([]users.User, error) {
	q := pick(r.pool, r.tx)

	rows, err := q.Query(ctx, `
SELECT u.id, u.subject_id, u.email, u.full_name, u.photo_url, u.role, u.is_student, u.college_name,
       u.created_at, u.updated_at,
       (SELECT count(*) FROM events e WHERE e.created_by_user_id = u.id) AS created_events,
       (SELECT count(*) FROM event_likes l WHERE l.user_id = u.id) AS liked_events,
       (SELECT count(*) FROM event_registrations g WHERE g.user_id = u.id) AS registrations
  FROM users u
 WHERE ($1 = '' OR u.role = $1)
 ORDER BY u.created_at DESC`,
		filters.Role,
	)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	items := make([]users.User, 0)
	for rows.Next() {
		var (
			user        users.User
			photoURL    *string
			collegeName *string
			role        string
			createdAt   pgtype.Timestamptz
			updatedAt   pgtype.Timestamptz
			counts      users.ActivityCounts
		)
		if err := rows.Scan(
			&user.ID,
			&user.SubjectID,
			&user.Email,
			&user.FullName,
			&photoURL,
			&role,
			&user.IsStudent,
			&collegeName,
			&createdAt,
			&updatedAt,
			&counts.CreatedEvents,
			&counts.LikedEvents,
			&counts.Registrations,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		user.PhotoURL = derefString(photoURL)
		user.CollegeName = derefString(collegeName)
		user.Role = auth.ParseRole(role)
		user.CreatedAt = createdAt.Time
		user.UpdatedAt = updatedAt.Time
		user.Counts = &counts
		items = append(items, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	for i := range items {
		interests, err := r.loadInterests(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Interests = interests
	}
	return items, nil
}

func (r *UserRepository) loadInterests(ctx context.Context, userID string) ([]users.Interest, error) {
	q := pick(r.pool, r.tx)

	rows, err := q.Query(ctx, `
SELECT i.id, c.id, c.name, c.slug, c.description, c.created_at
  FROM user_interests i
  JOIN event_categories c ON c.id = i.category_id
 WHERE i.user_id = $1
 ORDER BY c.name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("load interests: %w", err)
	}
	defer rows.Close()

	interests := make([]users.Interest, 0)
	for rows.Next() {
		var (
			interest    users.Interest
			category    categories.Category
			description *string
			createdAt   pgtype.Timestamptz
		)
		if err := rows.Scan(&interest.ID, &category.ID, &category.Name, &category.Slug, &description, &createdAt); err != nil {
			return nil, fmt.Errorf("scan interest: %w", err)
		}
		category.Description = derefString(description)
		category.CreatedAt = createdAt.Time
		interest.Category = category
		interests = append(interests, interest)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interests: %w", err)
	}
	return interests, nil
}

func scanUser(row pgx.Row) (*users.User, error) {
	var (
		user        users.User
		photoURL    *string
		collegeName *string
		role        string
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
	)
	if err := row.Scan(
		&user.ID,
		&user.SubjectID,
		&user.Email,
		&user.FullName,
		&photoURL,
		&role,
		&user.IsStudent,
		&collegeName,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	user.PhotoURL = derefString(photoURL)
	user.CollegeName = derefString(collegeName)
	user.Role = auth.ParseRole(role)
	user.CreatedAt = createdAt.Time
	user.UpdatedAt = updatedAt.Time
	return &user, nil
}
