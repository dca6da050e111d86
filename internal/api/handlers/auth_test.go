package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eventhall/server/internal/auth"
	"github.com/eventhall/server/internal/config"
	"github.com/eventhall/server/internal/domain/categories"
	"github.com/eventhall/server/internal/domain/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticVerifier struct {
	identity auth.Identity
	err      error
}

func (v staticVerifier) Verify(_ context.Context, _ string) (auth.Identity, error) {
	return v.identity, v.err
}

func newAuthHandler(userRepo *fakeUserRepo, verifier auth.TokenVerifier, authConfig config.AuthConfig) *AuthHandler {
	return NewAuthHandler(
		users.NewService(userRepo, nil, authConfig, zerolog.Nop()),
		categories.NewService(&fakeCategoryRepo{items: []categories.Category{
			{ID: testCategoryID, Name: "Hackathon", Slug: "hackathon"},
		}}),
		verifier,
		authConfig,
		"test",
	)
}

func TestSyncUserFirstLogin(t *testing.T) {
	userRepo := newFakeUserRepo()
	handler := newAuthHandler(userRepo, staticVerifier{identity: auth.Identity{
		SubjectID: "sub-1",
		Email:     "new@example.com",
		Name:      "New User",
	}}, config.AuthConfig{})

	req := jsonRequest(t, http.MethodPost, "/api/auth/sync-user", map[string]any{"idToken": "token"}, nil)
	rec := httptest.NewRecorder()
	handler.SyncUser(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["needsProfileCompletion"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "new@example.com", user["email"])
	assert.Equal(t, string(auth.RoleStandardUser), user["role"])
}

func TestSyncUserMissingToken(t *testing.T) {
	handler := newAuthHandler(newFakeUserRepo(), staticVerifier{}, config.AuthConfig{})

	req := jsonRequest(t, http.MethodPost, "/api/auth/sync-user", map[string]any{}, nil)
	rec := httptest.NewRecorder()
	handler.SyncUser(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ID token is required", decodeBody(t, rec)["error"])
}

func TestSyncUserInvalidToken(t *testing.T) {
	handler := newAuthHandler(newFakeUserRepo(), staticVerifier{err: auth.ErrInvalidToken}, config.AuthConfig{})

	req := jsonRequest(t, http.MethodPost, "/api/auth/sync-user", map[string]any{"idToken": "bad"}, nil)
	rec := httptest.NewRecorder()
	handler.SyncUser(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSyncUserDevToken(t *testing.T) {
	userRepo := newFakeUserRepo()
	userRepo.add(&users.User{ID: "dev-user", SubjectID: "dev-sub", Email: "dev@example.com"})
	handler := newAuthHandler(userRepo, staticVerifier{err: auth.ErrInvalidToken}, config.AuthConfig{
		DevToken: "local-dev",
		DevEmail: "dev@example.com",
	})

	req := jsonRequest(t, http.MethodPost, "/api/auth/sync-user", map[string]any{"idToken": "local-dev"}, nil)
	rec := httptest.NewRecorder()
	handler.SyncUser(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	user := decodeBody(t, rec)["user"].(map[string]any)
	assert.Equal(t, "dev@example.com", user["email"])
}

func TestUpdateProfile(t *testing.T) {
	userRepo := newFakeUserRepo()
	userRepo.add(&users.User{ID: testUserID, SubjectID: "sub-1", Email: "u@example.com"})
	handler := newAuthHandler(userRepo, staticVerifier{identity: auth.Identity{SubjectID: "sub-1"}}, config.AuthConfig{})

	req := jsonRequest(t, http.MethodPost, "/api/auth/update-profile", map[string]any{
		"idToken": "token",
		"profile": map[string]any{
			"fullName":  "Updated Name",
			"interests": []string{testCategoryID},
		},
	}, nil)
	rec := httptest.NewRecorder()
	handler.UpdateProfile(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	user := decodeBody(t, rec)["user"].(map[string]any)
	assert.Equal(t, "Updated Name", user["fullName"])
	assert.Len(t, user["interests"], 1)
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	handler := newAuthHandler(newFakeUserRepo(), staticVerifier{identity: auth.Identity{SubjectID: "ghost"}}, config.AuthConfig{})

	req := jsonRequest(t, http.MethodPost, "/api/auth/update-profile", map[string]any{
		"idToken": "token",
		"profile": map[string]any{"fullName": "X"},
	}, nil)
	rec := httptest.NewRecorder()
	handler.UpdateProfile(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCategories(t *testing.T) {
	handler := newAuthHandler(newFakeUserRepo(), staticVerifier{}, config.AuthConfig{})

	rec := httptest.NewRecorder()
	handler.ListCategories(rec, httptest.NewRequest(http.MethodGet, "/api/auth/categories", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	listed := decodeBody(t, rec)["categories"].([]any)
	require.Len(t, listed, 1)
	assert.Equal(t, "hackathon", listed[0].(map[string]any)["slug"])
}
