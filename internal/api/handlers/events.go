package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/eventhall/server/internal/api/apierror"
	"github.com/eventhall/server/internal/api/middleware"
	"github.com/eventhall/server/internal/domain/events"
	"github.com/eventhall/server/internal/domain/ids"
	"github.com/eventhall/server/internal/domain/interactions"
	"github.com/eventhall/server/internal/metrics"
)

// EventsHandler serves event browsing, submission, editing, and the
// like/register interactions.
type EventsHandler struct {
	Service      *events.Service
	Interactions *interactions.Service
	Env          string
}

func NewEventsHandler(service *events.Service, interactionsService *interactions.Service, env string) *EventsHandler {
	return &EventsHandler{Service: service, Interactions: interactionsService, Env: env}
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, err := events.ParseFilters(r.URL.Query())
	if err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid filter", err, h.Env)
		return
	}

	items, err := h.Service.List(r.Context(), filters)
	if err != nil {
		apierror.Write(w, r, http.StatusInternalServerError, "Failed to list events", err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": items})
}

// ByCategories serves the home feed: up to ten published events per
// requested category, fetched concurrently.
func (h *EventsHandler) ByCategories(w http.ResponseWriter, r *http.Request) {
	categoryIDs, err := events.ParseCategoryIDs(r.URL.Query().Get("categoryIds"))
	if err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid category ids", err, h.Env)
		return
	}

	feeds, err := h.Service.ByCategories(r.Context(), categoryIDs)
	if err != nil {
		apierror.Write(w, r, http.StatusInternalServerError, "Failed to load category feeds", err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"eventsByCategory": feeds})
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if err := ids.ValidateULID(id); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid event id", err, h.Env)
		return
	}

	item, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			apierror.Write(w, r, http.StatusNotFound, "Event not found", err, h.Env)
			return
		}
		apierror.Write(w, r, http.StatusInternalServerError, "Failed to load event", err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": item})
}

type createEventRequest struct {
	Title                    string   `json:"title" validate:"required,max=200"`
	Description              string   `json:"description" validate:"required"`
	Date                     string   `json:"date" validate:"required"`
	Time                     string   `json:"time" validate:"required"`
	Location                 string   `json:"location" validate:"required"`
	District                 string   `json:"district" validate:"required"`
	GoogleMapsLink           string   `json:"googleMapsLink,omitempty"`
	PrimaryCategoryID        string   `json:"primaryCategoryId" validate:"required"`
	AdditionalCategoryIDs    []string `json:"additionalCategoryIds,omitempty"`
	EntryFee                 *int     `json:"entryFee,omitempty" validate:"omitempty,min=0"`
	IsFree                   bool     `json:"isFree"`
	PrizeDetails             string   `json:"prizeDetails,omitempty"`
	ContactEmail             string   `json:"contactEmail" validate:"required,email"`
	ContactPhone             string   `json:"contactPhone" validate:"required"`
	ExternalRegistrationLink string   `json:"externalRegistrationLink,omitempty"`
	HowToRegisterLink        string   `json:"howToRegisterLink,omitempty"`
	InstagramURL             string   `json:"instagramUrl,omitempty"`
	FacebookURL              string   `json:"facebookUrl,omitempty"`
	YoutubeURL               string   `json:"youtubeUrl,omitempty"`
	BannerURL                string   `json:"bannerUrl,omitempty"`
}

// Create accepts an event submission from an event admin. New events
// always enter moderation as PENDING_APPROVAL.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		apierror.Write(w, r, http.StatusUnauthorized, "Authentication required", nil, h.Env)
		return
	}

	var input createEventRequest
	if err := decodeJSON(r, &input); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid request body", err, h.Env,
			apierror.WithDetails(validationDetails(err)))
		return
	}

	date, err := time.Parse("2006-01-02", input.Date)
	if err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err, h.Env)
		return
	}
	if err := ids.ValidateULID(input.PrimaryCategoryID); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid primary category id", err, h.Env)
		return
	}
	for _, categoryID := range input.AdditionalCategoryIDs {
		if err := ids.ValidateULID(categoryID); err != nil {
			apierror.Write(w, r, http.StatusBadRequest, "Invalid additional category id", err, h.Env)
			return
		}
	}

	item, err := h.Service.Create(r.Context(), user.ID, events.CreateParams{
		Title:                    input.Title,
		Description:              input.Description,
		Date:                     date,
		Time:                     input.Time,
		Location:                 input.Location,
		District:                 input.District,
		GoogleMapsLink:           input.GoogleMapsLink,
		PrimaryCategoryID:        input.PrimaryCategoryID,
		AdditionalCategoryIDs:    input.AdditionalCategoryIDs,
		EntryFee:                 input.EntryFee,
		IsFree:                   input.IsFree,
		PrizeDetails:             input.PrizeDetails,
		ContactEmail:             input.ContactEmail,
		ContactPhone:             input.ContactPhone,
		ExternalRegistrationLink: input.ExternalRegistrationLink,
		HowToRegisterLink:        input.HowToRegisterLink,
		InstagramURL:             input.InstagramURL,
		FacebookURL:              input.FacebookURL,
		YoutubeURL:               input.YoutubeURL,
		BannerURL:                input.BannerURL,
	})
	if err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Failed to create event", err, h.Env)
		return
	}

	metrics.EventsCreatedTotal.Inc()
	writeJSON(w, http.StatusCreated, map[string]any{
		"event":   item,
		"message": "Event submitted for approval",
	})
}

type updateEventRequest struct {
	Title                    *string  `json:"title,omitempty" validate:"omitempty,max=200"`
	Description              *string  `json:"description,omitempty"`
	Date                     *string  `json:"date,omitempty"`
	Time                     *string  `json:"time,omitempty"`
	Location                 *string  `json:"location,omitempty"`
	District                 *string  `json:"district,omitempty"`
	GoogleMapsLink           *string  `json:"googleMapsLink,omitempty"`
	PrimaryCategoryID        *string  `json:"primaryCategoryId,omitempty"`
	AdditionalCategoryIDs    []string `json:"additionalCategoryIds,omitempty"`
	EntryFee                 *int     `json:"entryFee,omitempty" validate:"omitempty,min=0"`
	IsFree                   *bool    `json:"isFree,omitempty"`
	PrizeDetails             *string  `json:"prizeDetails,omitempty"`
	ContactEmail             *string  `json:"contactEmail,omitempty" validate:"omitempty,email"`
	ContactPhone             *string  `json:"contactPhone,omitempty"`
	ExternalRegistrationLink *string  `json:"externalRegistrationLink,omitempty"`
	HowToRegisterLink        *string  `json:"howToRegisterLink,omitempty"`
	InstagramURL             *string  `json:"instagramUrl,omitempty"`
	FacebookURL              *string  `json:"facebookUrl,omitempty"`
	YoutubeURL               *string  `json:"youtubeUrl,omitempty"`
	BannerURL                *string  `json:"bannerUrl,omitempty"`
}

// Update applies a partial edit. The creator or an ultimate admin may
// edit; an edit on a PUBLISHED event by anyone below ultimate admin
// sends it back through moderation.
func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		apierror.Write(w, r, http.StatusUnauthorized, "Authentication required", nil, h.Env)
		return
	}

	id := pathParam(r, "id")
	if err := ids.ValidateULID(id); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid event id", err, h.Env)
		return
	}

	var input updateEventRequest
	if err := decodeJSON(r, &input); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid request body", err, h.Env,
			apierror.WithDetails(validationDetails(err)))
		return
	}

	params := events.UpdateParams{
		Title:                    input.Title,
		Description:              input.Description,
		Time:                     input.Time,
		Location:                 input.Location,
		District:                 input.District,
		GoogleMapsLink:           input.GoogleMapsLink,
		PrimaryCategoryID:        input.PrimaryCategoryID,
		AdditionalCategoryIDs:    input.AdditionalCategoryIDs,
		EntryFee:                 input.EntryFee,
		IsFree:                   input.IsFree,
		PrizeDetails:             input.PrizeDetails,
		ContactEmail:             input.ContactEmail,
		ContactPhone:             input.ContactPhone,
		ExternalRegistrationLink: input.ExternalRegistrationLink,
		HowToRegisterLink:        input.HowToRegisterLink,
		InstagramURL:             input.InstagramURL,
		FacebookURL:              input.FacebookURL,
		YoutubeURL:               input.YoutubeURL,
		BannerURL:                input.BannerURL,
	}
	if input.Date != nil {
		date, err := time.Parse("2006-01-02", *input.Date)
		if err != nil {
			apierror.Write(w, r, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err, h.Env)
			return
		}
		params.Date = &date
	}
	if input.PrimaryCategoryID != nil {
		if err := ids.ValidateULID(*input.PrimaryCategoryID); err != nil {
			apierror.Write(w, r, http.StatusBadRequest, "Invalid primary category id", err, h.Env)
			return
		}
	}
	for _, categoryID := range input.AdditionalCategoryIDs {
		if err := ids.ValidateULID(categoryID); err != nil {
			apierror.Write(w, r, http.StatusBadRequest, "Invalid additional category id", err, h.Env)
			return
		}
	}

	item, err := h.Service.Update(r.Context(), id, user.ID, user.Role, params)
	if err != nil {
		switch {
		case errors.Is(err, events.ErrNotFound):
			apierror.Write(w, r, http.StatusNotFound, "Event not found", err, h.Env)
		case errors.Is(err, events.ErrForbidden):
			apierror.Write(w, r, http.StatusForbidden, "You can only edit your own events", err, h.Env)
		default:
			apierror.Write(w, r, http.StatusInternalServerError, "Failed to update event", err, h.Env)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": item})
}

// ToggleLike flips the caller's like on an event and reports the
// resulting state.
func (h *EventsHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		apierror.Write(w, r, http.StatusUnauthorized, "Authentication required", nil, h.Env)
		return
	}

	id := pathParam(r, "id")
	if err := ids.ValidateULID(id); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid event id", err, h.Env)
		return
	}

	liked, err := h.Interactions.ToggleLike(r.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, interactions.ErrEventNotFound) {
			apierror.Write(w, r, http.StatusNotFound, "Event not found", err, h.Env)
			return
		}
		apierror.Write(w, r, http.StatusInternalServerError, "Failed to toggle like", err, h.Env)
		return
	}

	message := "Event unliked"
	if liked {
		message = "Event liked"
	}
	metrics.LikesToggledTotal.WithLabelValues(boolLabel(liked)).Inc()
	writeJSON(w, http.StatusOK, map[string]any{"liked": liked, "message": message})
}

// Register records a one-time registration. Duplicate registrations
// are rejected; there is no unregister.
func (h *EventsHandler) Register(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		apierror.Write(w, r, http.StatusUnauthorized, "Authentication required", nil, h.Env)
		return
	}

	id := pathParam(r, "id")
	if err := ids.ValidateULID(id); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid event id", err, h.Env)
		return
	}

	if err := h.Interactions.Register(r.Context(), user.ID, id); err != nil {
		switch {
		case errors.Is(err, interactions.ErrAlreadyRegistered):
			apierror.Write(w, r, http.StatusConflict, "Already registered for this event", err, h.Env)
		case errors.Is(err, interactions.ErrEventNotFound):
			apierror.Write(w, r, http.StatusNotFound, "Event not found", err, h.Env)
		default:
			apierror.Write(w, r, http.StatusInternalServerError, "Failed to register", err, h.Env)
		}
		return
	}

	metrics.RegistrationsTotal.Inc()
	writeJSON(w, http.StatusOK, map[string]any{"message": "Registered for event"})
}

type checkInteractionsRequest struct {
	EventIDs []string `json:"eventIds" validate:"required,min=1,dive,required"`
}

// CheckInteractions returns which of the given events the caller has
// liked and registered for, in one round trip.
func (h *EventsHandler) CheckInteractions(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		apierror.Write(w, r, http.StatusUnauthorized, "Authentication required", nil, h.Env)
		return
	}

	var input checkInteractionsRequest
	if err := decodeJSON(r, &input); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid request body", err, h.Env,
			apierror.WithDetails(validationDetails(err)))
		return
	}
	for _, eventID := range input.EventIDs {
		if err := ids.ValidateULID(eventID); err != nil {
			apierror.Write(w, r, http.StatusBadRequest, "Invalid event id", err, h.Env)
			return
		}
	}

	sets, err := h.Interactions.Check(r.Context(), user.ID, input.EventIDs)
	if err != nil {
		apierror.Write(w, r, http.StatusInternalServerError, "Failed to check interactions", err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, sets)
}

func boolLabel(value bool) string {
	if value {
		return "true"
	}
	return "false"
}
