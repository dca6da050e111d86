package users

import (
	"context"
	"errors"
	"time"

	"github.com/eventhall/server/internal/auth"
	"github.com/eventhall/server/internal/domain/categories"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrEmailRequired = errors.New("email is required")
)

// User is the internal account created on first successful token
// verification. Role is mutated only by the admin-application approval
// transition or the ultimate-admin email allow-list.
type User struct {
	ID          string     `json:"id"`
	SubjectID   string     `json:"subjectId"`
	Email       string     `json:"email"`
	FullName    string     `json:"fullName"`
	PhotoURL    string     `json:"photoUrl,omitempty"`
	Role        auth.Role  `json:"role"`
	IsStudent   bool       `json:"isStudent"`
	CollegeName string     `json:"collegeName,omitempty"`
	Interests   []Interest `json:"interests"`

	// Counts is populated only on admin user listings.
	Counts *ActivityCounts `json:"counts,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Interest is a user's subscribed event category.
type Interest struct {
	ID       string              `json:"id"`
	Category categories.Category `json:"category"`
}

type ActivityCounts struct {
	CreatedEvents int `json:"createdEvents"`
	LikedEvents   int `json:"likedEvents"`
	Registrations int `json:"registrations"`
}

type CreateParams struct {
	ID          string
	SubjectID   string
	Email       string
	FullName    string
	PhotoURL    string
	Role        auth.Role
	IsStudent   bool
	CollegeName string
}

// Update carries the mutable profile fields. Present and non-nil
// overrides; absent preserves.
type Update struct {
	Email       *string
	FullName    *string
	PhotoURL    *string
	IsStudent   *bool
	CollegeName *string
	Role        *auth.Role
}

type Filters struct {
	Role string
}

type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetBySubjectID(ctx context.Context, subjectID string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, params CreateParams) (*User, error)
	Update(ctx context.Context, id string, update Update) (*User, error)
	// ReplaceInterests atomically swaps the user's interest set for the
	// given category ids.
	ReplaceInterests(ctx context.Context, userID string, categoryIDs []string) error
	// List returns users newest-first with activity counts attached.
	List(ctx context.Context, filters Filters) ([]User, error)
}
