package applications

import (
	"context"
	"errors"
	"time"
)

// Status is the review state of an admin application.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

var (
	ErrNotFound = errors.New("application not found")

	// ErrAlreadyReviewed is returned when reviewing an application that
	// has already left the PENDING state.
	ErrAlreadyReviewed = errors.New("application has already been reviewed")

	// ErrPendingExists is returned when the applicant already has a
	// PENDING application. Also produced by the storage layer's partial
	// unique index under concurrent submission.
	ErrPendingExists = errors.New("a pending application already exists")

	ErrAlreadyAdmin = errors.New("caller already holds admin privileges")

	ErrMotivationTooShort = errors.New("motivation text must be at least 50 characters")
)

// UserSummary is the embedded applicant or reviewer view.
type UserSummary struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FullName    string `json:"fullName"`
	PhotoURL    string `json:"photoUrl,omitempty"`
	IsStudent   *bool  `json:"isStudent,omitempty"`
	CollegeName string `json:"collegeName,omitempty"`
}

type Application struct {
	ID             string `json:"id"`
	UserID         string `json:"userId"`
	MotivationText string `json:"motivationText"`
	Status         Status `json:"status"`

	Applicant *UserSummary `json:"user,omitempty"`

	// Reviewer fields are populated only on transition out of PENDING.
	ReviewedByUserID *string      `json:"reviewedByUserId,omitempty"`
	ReviewedBy       *UserSummary `json:"reviewedBy,omitempty"`
	ReviewedAt       *time.Time   `json:"reviewedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateParams struct {
	ID             string
	UserID         string
	MotivationText string
}

// ReviewParams stamps a review outcome. On approval the storage layer
// promotes the applicant to EVENT_ADMIN in the same transaction.
type ReviewParams struct {
	ID               string
	Status           Status
	ReviewedByUserID string
	ReviewedAt       time.Time
}

type Filters struct {
	Status string
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Application, error)
	GetByID(ctx context.Context, id string) (*Application, error)
	HasPending(ctx context.Context, userID string) (bool, error)
	// List returns applications newest-first with applicant and reviewer
	// summaries joined.
	List(ctx context.Context, filters Filters) ([]Application, error)
	// Review updates the application and, when approving, the
	// applicant's role, atomically.
	Review(ctx context.Context, params ReviewParams) (*Application, error)
}
