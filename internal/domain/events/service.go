package events

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/eventhall/server/internal/auth"
	"github.com/eventhall/server/internal/domain/categories"
	"github.com/eventhall/server/internal/domain/ids"
	"github.com/eventhall/server/internal/sanitize"
	"golang.org/x/sync/errgroup"
)

// byCategoryLimit caps the events returned per category on the
// personalized home feed.
const byCategoryLimit = 10

type Service struct {
	repo       Repository
	categories categories.Repository
}

func NewService(repo Repository, categoryRepo categories.Repository) *Service {
	return &Service{repo: repo, categories: categoryRepo}
}

// List applies the public-visibility default: without an explicit
// status filter, listings show PUBLISHED events only, unless scoped to
// a creator, in which case all of that creator's events are visible.
func (s *Service) List(ctx context.Context, filters Filters) ([]Event, error) {
	if filters.Status == "" && filters.CreatorID == "" {
		filters.Status = string(StatusPublished)
	}
	return s.repo.List(ctx, filters)
}

// ListAll bypasses the public-visibility default for admin views: an
// empty status filter matches every status.
func (s *Service) ListAll(ctx context.Context, filters Filters) ([]Event, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) GetByID(ctx context.Context, id string) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

// CategoryFeed groups a category with its upcoming published events.
type CategoryFeed struct {
	Category *categories.Category `json:"category"`
	Events   []Event              `json:"events"`
}

// ByCategories fetches the home-feed slices for each requested
// category concurrently. Categories with no published events are
// omitted from the result.
func (s *Service) ByCategories(ctx context.Context, categoryIDs []string) (map[string]CategoryFeed, error) {
	feeds := make([]CategoryFeed, len(categoryIDs))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, categoryID := range categoryIDs {
		group.Go(func() error {
			items, err := s.repo.ListByCategory(groupCtx, categoryID, byCategoryLimit)
			if err != nil {
				return fmt.Errorf("list events for category %s: %w", categoryID, err)
			}
			if len(items) == 0 {
				return nil
			}
			category, err := s.categories.GetByID(groupCtx, categoryID)
			if err != nil {
				return fmt.Errorf("load category %s: %w", categoryID, err)
			}
			feeds[i] = CategoryFeed{Category: category, Events: items}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	result := make(map[string]CategoryFeed)
	for i, categoryID := range categoryIDs {
		if feeds[i].Category != nil {
			result[categoryID] = feeds[i]
		}
	}
	return result, nil
}

// CreateParams carries the fields of a new event submission. Required
// fields are validated at the handler; the service enforces the
// free-implies-no-fee rule and the PENDING_APPROVAL starting state.
type CreateParams struct {
	Title                    string
	Description              string
	Date                     time.Time
	Time                     string
	Location                 string
	District                 string
	GoogleMapsLink           string
	PrimaryCategoryID        string
	AdditionalCategoryIDs    []string
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
}

func (s *Service) Create(ctx context.Context, creatorID string, params CreateParams) (*Event, error) {
	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint event id: %w", err)
	}

	entryFee := params.EntryFee
	if params.IsFree {
		// Free implies no fee regardless of any supplied value.
		entryFee = nil
	}

	record := Record{
		ID:                       id,
		Title:                    sanitize.Text(params.Title),
		Description:              sanitize.Text(params.Description),
		Date:                     params.Date,
		Time:                     params.Time,
		Location:                 sanitize.Text(params.Location),
		District:                 sanitize.Text(params.District),
		GoogleMapsLink:           params.GoogleMapsLink,
		PrimaryCategoryID:        params.PrimaryCategoryID,
		EntryFee:                 entryFee,
		IsFree:                   params.IsFree,
		PrizeDetails:             sanitize.Text(params.PrizeDetails),
		ContactEmail:             params.ContactEmail,
		ContactPhone:             params.ContactPhone,
		ExternalRegistrationLink: params.ExternalRegistrationLink,
		HowToRegisterLink:        params.HowToRegisterLink,
		InstagramURL:             params.InstagramURL,
		FacebookURL:              params.FacebookURL,
		YoutubeURL:               params.YoutubeURL,
		BannerURL:                params.BannerURL,
		Status:                   StatusPendingApproval,
		CreatedByUserID:          creatorID,
		AdditionalCategoryIDs:    params.AdditionalCategoryIDs,
	}
	if record.AdditionalCategoryIDs == nil {
		record.AdditionalCategoryIDs = []string{}
	}
	return s.repo.Create(ctx, record)
}

// UpdateParams carries a partial update: nil fields preserve the
// existing value. A non-nil AdditionalCategoryIDs replaces the entire
// prior category set.
type UpdateParams struct {
	Title                    *string
	Description              *string
	Date                     *time.Time
	Time                     *string
	Location                 *string
	District                 *string
	GoogleMapsLink           *string
	PrimaryCategoryID        *string
	AdditionalCategoryIDs    []string
	EntryFee                 *int
	IsFree                   *bool
	PrizeDetails             *string
	ContactEmail             *string
	ContactPhone             *string
	ExternalRegistrationLink *string
	HowToRegisterLink        *string
	InstagramURL             *string
	FacebookURL              *string
	YoutubeURL               *string
	BannerURL                *string
}

// Update applies a partial edit. Only the creator or an ultimate admin
// may edit; the creator never changes; an edit by anyone below
// ultimate admin on a PUBLISHED event resets it to PENDING_APPROVAL
// for re-review.
func (s *Service) Update(ctx context.Context, id, editorID string, editorRole auth.Role, params UpdateParams) (*Event, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !auth.IsUltimateAdmin(editorRole) && existing.CreatedByUserID != editorID {
		return nil, ErrForbidden
	}

	record := recordFromEvent(existing)
	mergeUpdate(&record, params)

	if record.IsFree {
		record.EntryFee = nil
	}

	if !auth.IsUltimateAdmin(editorRole) && existing.Status == StatusPublished {
		record.Status = StatusPendingApproval
	}

	return s.repo.Update(ctx, record)
}

// UpdateStatus is the ultimate-admin override: it may force any of the
// three states directly and bypasses the edit-triggered reset rule.
// The rejection reason is persisted only when rejecting.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status, rejectionReason string) (*Event, error) {
	if !IsValidStatus(string(status)) {
		return nil, ErrInvalidStatus
	}

	var reason *string
	if status == StatusRejected && rejectionReason != "" {
		cleaned := sanitize.Text(rejectionReason)
		reason = &cleaned
	}
	return s.repo.UpdateStatus(ctx, id, status, reason)
}

func recordFromEvent(event *Event) Record {
	return Record{
		ID:                       event.ID,
		Title:                    event.Title,
		Description:              event.Description,
		Date:                     event.Date,
		Time:                     event.Time,
		Location:                 event.Location,
		District:                 event.District,
		GoogleMapsLink:           event.GoogleMapsLink,
		PrimaryCategoryID:        event.PrimaryCategoryID,
		EntryFee:                 event.EntryFee,
		IsFree:                   event.IsFree,
		PrizeDetails:             event.PrizeDetails,
		ContactEmail:             event.ContactEmail,
		ContactPhone:             event.ContactPhone,
		ExternalRegistrationLink: event.ExternalRegistrationLink,
		HowToRegisterLink:        event.HowToRegisterLink,
		InstagramURL:             event.InstagramURL,
		FacebookURL:              event.FacebookURL,
		YoutubeURL:               event.YoutubeURL,
		BannerURL:                event.BannerURL,
		Status:                   event.Status,
		CreatedByUserID:          event.CreatedByUserID,
		AdditionalCategoryIDs:    nil,
	}
}

func mergeUpdate(record *Record, params UpdateParams) {
	if params.Title != nil {
		record.Title = sanitize.Text(*params.Title)
	}
	if params.Description != nil {
		record.Description = sanitize.Text(*params.Description)
	}
	if params.Date != nil {
		record.Date = *params.Date
	}
	if params.Time != nil {
		record.Time = *params.Time
	}
	if params.Location != nil {
		record.Location = sanitize.Text(*params.Location)
	}
	if params.District != nil {
		record.District = sanitize.Text(*params.District)
	}
	if params.GoogleMapsLink != nil {
		record.GoogleMapsLink = *params.GoogleMapsLink
	}
	if params.PrimaryCategoryID != nil {
		record.PrimaryCategoryID = *params.PrimaryCategoryID
	}
	if params.EntryFee != nil {
		record.EntryFee = params.EntryFee
	}
	if params.IsFree != nil {
		record.IsFree = *params.IsFree
	}
	if params.PrizeDetails != nil {
		record.PrizeDetails = sanitize.Text(*params.PrizeDetails)
	}
	if params.ContactEmail != nil {
		record.ContactEmail = *params.ContactEmail
	}
	if params.ContactPhone != nil {
		record.ContactPhone = *params.ContactPhone
	}
	if params.ExternalRegistrationLink != nil {
		record.ExternalRegistrationLink = *params.ExternalRegistrationLink
	}
	if params.HowToRegisterLink != nil {
		record.HowToRegisterLink = *params.HowToRegisterLink
	}
	if params.InstagramURL != nil {
		record.InstagramURL = *params.InstagramURL
	}
	if params.FacebookURL != nil {
		record.FacebookURL = *params.FacebookURL
	}
	if params.YoutubeURL != nil {
		record.YoutubeURL = *params.YoutubeURL
	}
	if params.BannerURL != nil {
		record.BannerURL = *params.BannerURL
	}
	record.AdditionalCategoryIDs = params.AdditionalCategoryIDs
}

type FilterError struct {
	Field   string
	Message string
}

func (e FilterError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ParseFilters builds listing filters from query parameters.
func ParseFilters(values url.Values) (Filters, error) {
	filters := Filters{}

	filters.CategoryID = strings.TrimSpace(values.Get("category"))
	if filters.CategoryID != "" {
		if err := ids.ValidateULID(filters.CategoryID); err != nil {
			return filters, FilterError{Field: "category", Message: "invalid id"}
		}
	}

	filters.District = strings.TrimSpace(values.Get("district"))
	filters.Search = strings.TrimSpace(values.Get("search"))

	dateFrom, err := parseDate("dateFrom", values.Get("dateFrom"))
	if err != nil {
		return filters, err
	}
	dateTo, err := parseDate("dateTo", values.Get("dateTo"))
	if err != nil {
		return filters, err
	}
	if dateFrom != nil && dateTo != nil && dateTo.Before(*dateFrom) {
		return filters, FilterError{Field: "dateTo", Message: "must be on or after dateFrom"}
	}
	filters.DateFrom = dateFrom
	filters.DateTo = dateTo

	if raw := strings.TrimSpace(values.Get("isFree")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return filters, FilterError{Field: "isFree", Message: "must be true or false"}
		}
		filters.IsFree = &parsed
	}

	if raw := strings.TrimSpace(values.Get("status")); raw != "" {
		if !IsValidStatus(raw) {
			return filters, FilterError{Field: "status", Message: "unsupported event status"}
		}
		filters.Status = raw
	}

	filters.CreatorID = strings.TrimSpace(values.Get("userId"))
	if filters.CreatorID != "" {
		if err := ids.ValidateULID(filters.CreatorID); err != nil {
			return filters, FilterError{Field: "userId", Message: "invalid id"}
		}
	}

	return filters, nil
}

// ParseCategoryIDs splits and validates the comma-separated category
// id list of the by-categories feed. Duplicates are removed.
func ParseCategoryIDs(raw string) ([]string, error) {
	parts := strings.Split(raw, ",")
	seen := make(map[string]struct{}, len(parts))
	idsOut := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		if err := ids.ValidateULID(item); err != nil {
			return nil, FilterError{Field: "categoryIds", Message: fmt.Sprintf("invalid id %q", item)}
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		idsOut = append(idsOut, item)
	}
	if len(idsOut) == 0 {
		return nil, FilterError{Field: "categoryIds", Message: "required"}
	}
	sort.Strings(idsOut)
	return idsOut, nil
}

func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, FilterError{Field: field, Message: "must be an ISO8601 date"}
	}
	return &parsed, nil
}
