package handlers

import (
	"net/http"

	"github.com/eventhall/server/internal/api/apierror"
	"github.com/eventhall/server/internal/api/middleware"
	"github.com/eventhall/server/internal/domain/events"
	"github.com/eventhall/server/internal/domain/interactions"
	"github.com/eventhall/server/internal/domain/users"
)

// MeHandler serves the caller's own profile and collections.
type MeHandler struct {
	Users        *users.Service
	Events       *events.Service
	Interactions *interactions.Service
	Env          string
}

func NewMeHandler(usersService *users.Service, eventsService *events.Service, interactionsService *interactions.Service, env string) *MeHandler {
	return &MeHandler{Users: usersService, Events: eventsService, Interactions: interactionsService, Env: env}
}

func (h *MeHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		apierror.Write(w, r, http.StatusUnauthorized, "Authentication required", nil, h.Env)
		return
	}

	// Reload to pick up interests and activity counts.
	loaded, err := h.Users.GetByID(r.Context(), user.ID)
	if err != nil {
		apierror.Write(w, r, http.StatusInternalServerError, "Failed to load profile", err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": loaded})
}

func (h *MeHandler) LikedEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		apierror.Write(w, r, http.StatusUnauthorized, "Authentication required", nil, h.Env)
		return
	}

	items, err := h.Interactions.ListLikedEvents(r.Context(), user.ID)
	if err != nil {
		apierror.Write(w, r, http.StatusInternalServerError, "Failed to load liked events", err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": items})
}

func (h *MeHandler) RegisteredEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		apierror.Write(w, r, http.StatusUnauthorized, "Authentication required", nil, h.Env)
		return
	}

	items, err := h.Interactions.ListRegisteredEvents(r.Context(), user.ID)
	if err != nil {
		apierror.Write(w, r, http.StatusInternalServerError, "Failed to load registered events", err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": items})
}

// CreatedEvents lists the caller's own submissions in every status.
func (h *MeHandler) CreatedEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		apierror.Write(w, r, http.StatusUnauthorized, "Authentication required", nil, h.Env)
		return
	}

	items, err := h.Events.List(r.Context(), events.Filters{CreatorID: user.ID})
	if err != nil {
		apierror.Write(w, r, http.StatusInternalServerError, "Failed to load your events", err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": items})
}
