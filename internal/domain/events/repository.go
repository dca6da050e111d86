package events

import (
	"context"
	"time"

	"github.com/eventhall/server/internal/domain/categories"
)

// Status is the moderation state of an event.
type Status string

const (
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusPublished       Status = "PUBLISHED"
	StatusRejected        Status = "REJECTED"
)

// IsValidStatus reports whether value names one of the three states.
func IsValidStatus(value string) bool {
	switch Status(value) {
	case StatusPendingApproval, StatusPublished, StatusRejected:
		return true
	default:
		return false
	}
}

// CreatorSummary is the embedded view of the event's creator.
type CreatorSummary struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email,omitempty"`
	PhotoURL string `json:"photoUrl,omitempty"`
}

type Event struct {
	ID                   string                `json:"id"`
	Title                string                `json:"title"`
	Description          string                `json:"description"`
	Date                 time.Time             `json:"date"`
	Time                 string                `json:"time"`
	Location             string                `json:"location"`
	District             string                `json:"district"`
	GoogleMapsLink       string                `json:"googleMapsLink,omitempty"`
	PrimaryCategoryID    string                `json:"primaryCategoryId"`
	PrimaryCategory      *categories.Category  `json:"primaryCategory,omitempty"`
	AdditionalCategories []categories.Category `json:"additionalCategories"`

	// EntryFee is nil whenever IsFree is true; free implies no fee.
	EntryFee *int `json:"entryFee"`
	IsFree   bool `json:"isFree"`

	PrizeDetails             string `json:"prizeDetails,omitempty"`
	ContactEmail             string `json:"contactEmail"`
	ContactPhone             string `json:"contactPhone"`
	ExternalRegistrationLink string `json:"externalRegistrationLink,omitempty"`
	HowToRegisterLink        string `json:"howToRegisterLink,omitempty"`
	InstagramURL             string `json:"instagramUrl,omitempty"`
	FacebookURL              string `json:"facebookUrl,omitempty"`
	YoutubeURL               string `json:"youtubeUrl,omitempty"`
	BannerURL                string `json:"bannerUrl,omitempty"`

	Status          Status `json:"status"`
	RejectionReason string `json:"rejectionReason,omitempty"`

	CreatedByUserID string          `json:"createdByUserId"`
	CreatedBy       *CreatorSummary `json:"createdBy,omitempty"`

	LikeCount         int `json:"likeCount"`
	RegistrationCount int `json:"registrationCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Record is the full column set written on create, and on update after
// the service has merged the partial request into the existing row.
type Record struct {
	ID                       string
	Title                    string
	Description              string
	Date                     time.Time
	Time                     string
	Location                 string
	District                 string
	GoogleMapsLink           string
	PrimaryCategoryID        string
	EntryFee                 *int
	IsFree                   bool
	PrizeDetails             string
	ContactEmail             string
	ContactPhone             string
	ExternalRegistrationLink string
	HowToRegisterLink        string
	InstagramURL             string
	FacebookURL              string
	YoutubeURL               string
	BannerURL                string
	Status                   Status
	CreatedByUserID          string

	// AdditionalCategoryIDs replaces the entire prior category set when
	// non-nil. The swap is atomic at the storage boundary.
	AdditionalCategoryIDs []string
}

// SortNewest orders a listing by creation time descending, used by
// the moderation queue. The zero value keeps the default event-date
// order.
const SortNewest = "newest"

type Filters struct {
	CategoryID string
	District   string
	Search     string
	DateFrom   *time.Time
	DateTo     *time.Time
	IsFree     *bool
	Status     string
	CreatorID  string
	Sort       string
}

type Repository interface {
	// List returns events matching the AND of the given predicates,
	// ordered by date ascending then creation time descending, or by
	// creation time descending when Sort is SortNewest.
	List(ctx context.Context, filters Filters) ([]Event, error)
	// ListByCategory returns up to limit PUBLISHED events whose primary
	// or additional category matches, ordered by date ascending.
	ListByCategory(ctx context.Context, categoryID string, limit int) ([]Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	Create(ctx context.Context, record Record) (*Event, error)
	// Update overwrites the row and, when AdditionalCategoryIDs is
	// non-nil, replaces the category set in the same transaction.
	Update(ctx context.Context, record Record) (*Event, error)
	UpdateStatus(ctx context.Context, id string, status Status, rejectionReason *string) (*Event, error)
}
