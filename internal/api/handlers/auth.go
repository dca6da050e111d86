package handlers

import (
	"errors"
	"net/http"

	"github.com/eventhall/server/internal/api/apierror"
	"github.com/eventhall/server/internal/auth"
	"github.com/eventhall/server/internal/config"
	"github.com/eventhall/server/internal/domain/categories"
	"github.com/eventhall/server/internal/domain/users"
)

// AuthHandler serves identity resolution and profile management. These
// endpoints carry the id token in the request body, so the handler
// verifies it directly instead of relying on the auth middleware.
type AuthHandler struct {
	Users      *users.Service
	Categories *categories.Service
	Verifier   auth.TokenVerifier
	AuthConfig config.AuthConfig
	Env        string
}

func NewAuthHandler(usersService *users.Service, categoriesService *categories.Service, verifier auth.TokenVerifier, authConfig config.AuthConfig, env string) *AuthHandler {
	return &AuthHandler{
		Users:      usersService,
		Categories: categoriesService,
		Verifier:   verifier,
		AuthConfig: authConfig,
		Env:        env,
	}
}

type syncUserRequest struct {
	IDToken string              `json:"idToken" validate:"required"`
	Profile *users.ProfileInput `json:"profile,omitempty"`
}

type syncUserResponse struct {
	User                   *users.User `json:"user"`
	NeedsProfileCompletion bool        `json:"needsProfileCompletion"`
}

// SyncUser resolves the supplied id token to the internal user record,
// creating it on first login. The optional profile carries fields
// collected during onboarding.
func (h *AuthHandler) SyncUser(w http.ResponseWriter, r *http.Request) {
	var input syncUserRequest
	if err := decodeJSON(r, &input); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "ID token is required", err, h.Env,
			apierror.WithDetails(validationDetails(err)))
		return
	}

	identity, err := h.resolveIdentity(r, input.IDToken)
	if err != nil {
		apierror.Write(w, r, http.StatusUnauthorized, "Invalid or expired token", err, h.Env)
		return
	}

	result, err := h.Users.Sync(r.Context(), identity, input.Profile)
	if err != nil {
		if errors.Is(err, users.ErrEmailRequired) {
			apierror.Write(w, r, http.StatusBadRequest, "Token has no email claim", err, h.Env)
			return
		}
		apierror.Write(w, r, http.StatusInternalServerError, "Failed to sync user", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, syncUserResponse{
		User:                   result.User,
		NeedsProfileCompletion: result.NeedsProfileCompletion,
	})
}

type updateProfileRequest struct {
	IDToken string             `json:"idToken" validate:"required"`
	Profile users.ProfileInput `json:"profile"`
}

// UpdateProfile merges the supplied profile fields into the caller's
// record. A non-nil interests list replaces the whole interest set.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var input updateProfileRequest
	if err := decodeJSON(r, &input); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "ID token is required", err, h.Env,
			apierror.WithDetails(validationDetails(err)))
		return
	}

	identity, err := h.resolveIdentity(r, input.IDToken)
	if err != nil {
		apierror.Write(w, r, http.StatusUnauthorized, "Invalid or expired token", err, h.Env)
		return
	}

	user, err := h.Users.UpdateProfile(r.Context(), identity.SubjectID, input.Profile)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			apierror.Write(w, r, http.StatusNotFound, "User not found", err, h.Env)
			return
		}
		apierror.Write(w, r, http.StatusBadRequest, "Failed to update profile", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// ListCategories returns the category catalog for onboarding and
// event forms.
func (h *AuthHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := h.Categories.List(r.Context())
	if err != nil {
		apierror.Write(w, r, http.StatusInternalServerError, "Failed to load categories", err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": items})
}

// resolveIdentity verifies the id token, honoring the non-production
// dev bypass token.
func (h *AuthHandler) resolveIdentity(r *http.Request, idToken string) (auth.Identity, error) {
	if h.AuthConfig.DevToken != "" && idToken == h.AuthConfig.DevToken {
		user, err := h.Users.GetByEmail(r.Context(), h.AuthConfig.DevEmail)
		if err != nil {
			return auth.Identity{}, err
		}
		return auth.Identity{
			SubjectID: user.SubjectID,
			Email:     user.Email,
			Name:      user.FullName,
		}, nil
	}
	return h.Verifier.Verify(r.Context(), idToken)
}
