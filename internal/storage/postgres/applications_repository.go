package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/eventhall/server/internal/domain/applications"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ applications.Repository = (*ApplicationRepository)(nil)

const applicationSelect = `
SELECT a.id, a.user_id, a.motivation_text, a.status, a.reviewed_by_user_id, a.reviewed_at,
       a.created_at, a.updated_at,
       u.id, u.full_name, u.email, u.photo_url, u.is_student, u.college_name,
       r.id, r.full_name, r.email
  FROM admin_applications a
  JOIN users u ON u.id = a.user_id
  LEFT JOIN users r ON r.id = a.reviewed_by_user_id`

func (r *ApplicationRepository) Create(ctx context.Context, params applications.CreateParams) (*applications.Application, error) {
	q := pick(r.pool, r.tx)

	if _, err := q.Exec(ctx, `
INSERT INTO admin_applications (id, user_id, motivation_text, status)
VALUES ($1, $2, $3, $4)`,
		params.ID, params.UserID, params.MotivationText, string(applications.StatusPending),
	); err != nil {
		if isUniqueViolation(err, "admin_applications_pending_user_idx") {
			return nil, applications.ErrPendingExists
		}
		return nil, fmt.Errorf("create admin application: %w", err)
	}
	return r.GetByID(ctx, params.ID)
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*applications.Application, error) {
	q := pick(r.pool, r.tx)

	rows, err := q.Query(ctx, applicationSelect+` WHERE a.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get admin application: %w", err)
	}
	defer rows.Close()

	items, err := collectApplications(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, applications.ErrNotFound
	}
	return &items[0], nil
}

func (r *ApplicationRepository) HasPending(ctx context.Context, userID string) (bool, error) {
	q := pick(r.pool, r.tx)

	var exists bool
	err := q.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1 FROM admin_applications WHERE user_id = $1 AND status = $2
)`,
		userID, string(applications.StatusPending),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check pending application: %w", err)
	}
	return exists, nil
}

func (r *ApplicationRepository) List(ctx context.Context, filters applications.Filters) ([]applications.Application, error) {
	q := pick(r.pool, r.tx)

	rows, err := q.Query(ctx, applicationSelect+`
 WHERE ($1 = '' OR a.status = $1)
 ORDER BY a.created_at DESC`,
		filters.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("list admin applications: %w", err)
	}
	defer rows.Close()

	return collectApplications(rows)
}

// Review stamps the decision and, on approval, promotes the applicant in
// the same transaction so the pair can never be observed half applied.
func (r *ApplicationRepository) Review(ctx context.Context, params applications.ReviewParams) (*applications.Application, error) {
	if r.tx != nil {
		if err := r.review(ctx, r.tx, params); err != nil {
			return nil, err
		}
		return r.GetByID(ctx, params.ID)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	if err := r.review(ctx, tx, params); err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return r.GetByID(ctx, params.ID)
}

func (r *ApplicationRepository) review(ctx context.Context, tx pgx.Tx, params applications.ReviewParams) error {
	var userID string
	err := tx.QueryRow(ctx, `
UPDATE admin_applications
   SET status = $2, reviewed_by_user_id = $3, reviewed_at = $4, updated_at = now()
 WHERE id = $1 AND status = $5
RETURNING user_id`,
		params.ID,
		string(params.Status),
		params.ReviewedByUserID,
		params.ReviewedAt,
		string(applications.StatusPending),
	).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the application is gone or another reviewer got there first.
		var current string
		checkErr := tx.QueryRow(ctx, `SELECT status FROM admin_applications WHERE id = $1`, params.ID).Scan(&current)
		if errors.Is(checkErr, pgx.ErrNoRows) {
			return applications.ErrNotFound
		}
		if checkErr != nil {
			return fmt.Errorf("review admin application: %w", checkErr)
		}
		return applications.ErrAlreadyReviewed
	}
	if err != nil {
		return fmt.Errorf("review admin application: %w", err)
	}

	if params.Status == applications.StatusApproved {
		if _, err := tx.Exec(ctx, `
UPDATE users SET role = 'EVENT_ADMIN', updated_at = now()
 WHERE id = $1 AND role = 'STANDARD_USER'`,
			userID,
		); err != nil {
			return fmt.Errorf("promote applicant: %w", err)
		}
	}
	return nil
}

func collectApplications(rows pgx.Rows) ([]applications.Application, error) {
	items := make([]applications.Application, 0)
	for rows.Next() {
		var (
			app              applications.Application
			status           string
			reviewedByUserID *string
			reviewedAt       pgtype.Timestamptz
			createdAt        pgtype.Timestamptz
			updatedAt        pgtype.Timestamptz
			applicant        applications.UserSummary
			applicantPhoto   *string
			applicantStudent bool
			applicantCollege *string
			reviewerID       *string
			reviewerName     *string
			reviewerEmail    *string
		)
		if err := rows.Scan(
			&app.ID,
			&app.UserID,
			&app.MotivationText,
			&status,
			&reviewedByUserID,
			&reviewedAt,
			&createdAt,
			&updatedAt,
			&applicant.ID,
			&applicant.FullName,
			&applicant.Email,
			&applicantPhoto,
			&applicantStudent,
			&applicantCollege,
			&reviewerID,
			&reviewerName,
			&reviewerEmail,
		); err != nil {
			return nil, fmt.Errorf("scan admin application: %w", err)
		}

		app.Status = applications.Status(status)
		app.ReviewedByUserID = reviewedByUserID
		if reviewedAt.Valid {
			value := reviewedAt.Time
			app.ReviewedAt = &value
		}
		app.CreatedAt = createdAt.Time
		app.UpdatedAt = updatedAt.Time

		applicant.PhotoURL = derefString(applicantPhoto)
		applicant.IsStudent = &applicantStudent
		applicant.CollegeName = derefString(applicantCollege)
		app.Applicant = &applicant

		if reviewerID != nil {
			app.ReviewedBy = &applications.UserSummary{
				ID:       *reviewerID,
				FullName: derefString(reviewerName),
				Email:    derefString(reviewerEmail),
			}
		}
		items = append(items, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admin applications: %w", err)
	}
	return items, nil
}
