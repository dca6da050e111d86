package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/eventhall/server/internal/api/apierror"
	"github.com/eventhall/server/internal/api/middleware"
	"github.com/eventhall/server/internal/domain/applications"
	"github.com/eventhall/server/internal/domain/events"
	"github.com/eventhall/server/internal/domain/ids"
	"github.com/eventhall/server/internal/domain/users"
	"github.com/eventhall/server/internal/metrics"
	"github.com/rs/zerolog"
)

// ModerationNotifier delivers best-effort moderation-outcome emails to
// event creators. A failed send never fails the moderation.
type ModerationNotifier interface {
	EventModerated(ctx context.Context, to, fullName, eventTitle string, published bool, reason string) error
}

// AdminHandler serves the admin-application workflow and
// ultimate-admin moderation surface.
type AdminHandler struct {
	Applications *applications.Service
	Events       *events.Service
	Users        *users.Service
	Notifier     ModerationNotifier
	Env          string
}

func NewAdminHandler(applicationsService *applications.Service, eventsService *events.Service, usersService *users.Service, notifier ModerationNotifier, env string) *AdminHandler {
	return &AdminHandler{
		Applications: applicationsService,
		Events:       eventsService,
		Users:        usersService,
		Notifier:     notifier,
		Env:          env,
	}
}

type applyRequest struct {
	MotivationText string `json:"motivationText" validate:"required"`
}

// Apply submits an admin application for the caller.
func (h *AdminHandler) Apply(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		apierror.Write(w, r, http.StatusUnauthorized, "Authentication required", nil, h.Env)
		return
	}

	var input applyRequest
	if err := decodeJSON(r, &input); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid request body", err, h.Env,
			apierror.WithDetails(validationDetails(err)))
		return
	}

	application, err := h.Applications.Submit(r.Context(), user.ID, user.Role, input.MotivationText)
	if err != nil {
		switch {
		case errors.Is(err, applications.ErrMotivationTooShort):
			apierror.Write(w, r, http.StatusBadRequest, "Motivation text must be at least 50 characters", err, h.Env)
		case errors.Is(err, applications.ErrAlreadyAdmin):
			apierror.Write(w, r, http.StatusBadRequest, "You already have admin privileges", err, h.Env)
		case errors.Is(err, applications.ErrPendingExists):
			apierror.Write(w, r, http.StatusConflict, "You already have a pending application", err, h.Env)
		default:
			apierror.Write(w, r, http.StatusInternalServerError, "Failed to submit application", err, h.Env)
		}
		return
	}

	metrics.AdminApplicationsTotal.WithLabelValues("submitted").Inc()
	writeJSON(w, http.StatusCreated, map[string]any{
		"application": application,
		"message":     "Application submitted",
	})
}

// ListApplications returns applications for review, optionally
// filtered by status.
func (h *AdminHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	items, err := h.Applications.List(r.Context(), applications.Filters{
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Failed to list applications", err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applications": items})
}

type reviewRequest struct {
	Status string `json:"status" validate:"required,oneof=APPROVED REJECTED"`
}

// ReviewApplication decides a pending application. Approval promotes
// the applicant to EVENT_ADMIN atomically with the status change.
func (h *AdminHandler) ReviewApplication(w http.ResponseWriter, r *http.Request) {
	reviewer, ok := middleware.UserFromContext(r.Context())
	if !ok {
		apierror.Write(w, r, http.StatusUnauthorized, "Authentication required", nil, h.Env)
		return
	}

	id := pathParam(r, "id")
	if err := ids.ValidateULID(id); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid application id", err, h.Env)
		return
	}

	var input reviewRequest
	if err := decodeJSON(r, &input); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid request body", err, h.Env,
			apierror.WithDetails(validationDetails(err)))
		return
	}

	application, err := h.Applications.Review(r.Context(), id, reviewer.ID, applications.Status(input.Status))
	if err != nil {
		switch {
		case errors.Is(err, applications.ErrNotFound):
			apierror.Write(w, r, http.StatusNotFound, "Application not found", err, h.Env)
		case errors.Is(err, applications.ErrAlreadyReviewed):
			apierror.Write(w, r, http.StatusConflict, "Application has already been reviewed", err, h.Env)
		default:
			apierror.Write(w, r, http.StatusInternalServerError, "Failed to review application", err, h.Env)
		}
		return
	}

	action := "rejected"
	if application.Status == applications.StatusApproved {
		action = "approved"
	}
	metrics.AdminApplicationsTotal.WithLabelValues(action).Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"application": application,
		"message":     "Application " + action,
	})
}

// PendingEvents lists events awaiting moderation, newest submissions
// first.
func (h *AdminHandler) PendingEvents(w http.ResponseWriter, r *http.Request) {
	items, err := h.Events.List(r.Context(), events.Filters{
		Status: string(events.StatusPendingApproval),
		Sort:   events.SortNewest,
	})
	if err != nil {
		apierror.Write(w, r, http.StatusInternalServerError, "Failed to list pending events", err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": items})
}

// AllEvents lists events in every status for the moderation dashboard,
// honoring the standard listing filters.
func (h *AdminHandler) AllEvents(w http.ResponseWriter, r *http.Request) {
	filters, err := events.ParseFilters(r.URL.Query())
	if err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid filter", err, h.Env)
		return
	}
	items, err := h.Events.ListAll(r.Context(), filters)
	if err != nil {
		apierror.Write(w, r, http.StatusInternalServerError, "Failed to list events", err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": items})
}

type eventStatusRequest struct {
	Status          string `json:"status" validate:"required"`
	RejectionReason string `json:"rejectionReason,omitempty"`
}

// UpdateEventStatus is the ultimate-admin moderation decision. The
// creator is notified best-effort by email.
func (h *AdminHandler) UpdateEventStatus(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if err := ids.ValidateULID(id); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid event id", err, h.Env)
		return
	}

	var input eventStatusRequest
	if err := decodeJSON(r, &input); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid request body", err, h.Env,
			apierror.WithDetails(validationDetails(err)))
		return
	}

	item, err := h.Events.UpdateStatus(r.Context(), id, events.Status(input.Status), input.RejectionReason)
	if err != nil {
		switch {
		case errors.Is(err, events.ErrInvalidStatus):
			apierror.Write(w, r, http.StatusBadRequest, "Unsupported event status", err, h.Env)
		case errors.Is(err, events.ErrNotFound):
			apierror.Write(w, r, http.StatusNotFound, "Event not found", err, h.Env)
		default:
			apierror.Write(w, r, http.StatusInternalServerError, "Failed to update event status", err, h.Env)
		}
		return
	}

	metrics.EventsModeratedTotal.WithLabelValues(string(item.Status)).Inc()

	if h.Notifier != nil && item.CreatedBy != nil && item.Status != events.StatusPendingApproval {
		published := item.Status == events.StatusPublished
		if err := h.Notifier.EventModerated(r.Context(), item.CreatedBy.Email, item.CreatedBy.FullName, item.Title, published, input.RejectionReason); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("event_id", item.ID).Msg("moderation email failed")
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"event":   item,
		"message": "Event status updated",
	})
}

// ListUsers returns users for the ultimate-admin dashboard, optionally
// filtered by role.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	items, err := h.Users.List(r.Context(), users.Filters{
		Role: r.URL.Query().Get("role"),
	})
	if err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Failed to list users", err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": items})
}
