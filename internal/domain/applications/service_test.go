package applications

import (
	"context"
	"strings"
	"testing"

	"github.com/eventhall/server/internal/auth"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeApplicationRepo struct {
	applications map[string]*Application
	pending      map[string]bool

	created    []CreateParams
	lastReview *ReviewParams
}

func newFakeApplicationRepo() *fakeApplicationRepo {
	return &fakeApplicationRepo{
		applications: make(map[string]*Application),
		pending:      make(map[string]bool),
	}
}

func (f *fakeApplicationRepo) Create(_ context.Context, params CreateParams) (*Application, error) {
	if f.pending[params.UserID] {
		return nil, ErrPendingExists
	}
	f.created = append(f.created, params)
	application := &Application{
		ID:             params.ID,
		UserID:         params.UserID,
		MotivationText: params.MotivationText,
		Status:         StatusPending,
	}
	f.applications[params.ID] = application
	f.pending[params.UserID] = true
	return application, nil
}

func (f *fakeApplicationRepo) GetByID(_ context.Context, id string) (*Application, error) {
	if application, ok := f.applications[id]; ok {
		copied := *application
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (f *fakeApplicationRepo) HasPending(_ context.Context, userID string) (bool, error) {
	return f.pending[userID], nil
}

func (f *fakeApplicationRepo) List(_ context.Context, filters Filters) ([]Application, error) {
	var out []Application
	for _, application := range f.applications {
		if filters.Status != "" && string(application.Status) != filters.Status {
			continue
		}
		out = append(out, *application)
	}
	return out, nil
}

func (f *fakeApplicationRepo) Review(_ context.Context, params ReviewParams) (*Application, error) {
	application, ok := f.applications[params.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if application.Status != StatusPending {
		return nil, ErrAlreadyReviewed
	}
	f.lastReview = &params
	application.Status = params.Status
	application.ReviewedByUserID = &params.ReviewedByUserID
	application.ReviewedAt = &params.ReviewedAt
	f.pending[application.UserID] = false
	copied := *application
	return &copied, nil
}

type recordingNotifier struct {
	calls []struct {
		Email    string
		Approved bool
	}
}

func (r *recordingNotifier) ApplicationReviewed(_ context.Context, to, _ string, approved bool) {
	r.calls = append(r.calls, struct {
		Email    string
		Approved bool
	}{Email: to, Approved: approved})
}

func newTestService(repo Repository, notifier Notifier) *Service {
	return NewService(repo, notifier, zerolog.Nop())
}

const validMotivation = "I have organized a dozen campus events and want to publish them directly for my community."

func TestSubmit(t *testing.T) {
	repo := newFakeApplicationRepo()
	service := newTestService(repo, nil)

	application, err := service.Submit(context.Background(), "user-1", auth.RoleStandardUser, validMotivation)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, application.Status)
	assert.Equal(t, "user-1", application.UserID)
}

func TestSubmitMotivationTooShort(t *testing.T) {
	service := newTestService(newFakeApplicationRepo(), nil)

	_, err := service.Submit(context.Background(), "user-1", auth.RoleStandardUser, "too short")
	assert.ErrorIs(t, err, ErrMotivationTooShort)
}

func TestSubmitMotivationLengthAfterSanitizing(t *testing.T) {
	service := newTestService(newFakeApplicationRepo(), nil)

	// The raw string clears the length bar only by markup that gets
	// stripped before the check.
	padded := "<div><span>short</span></div>" + strings.Repeat("<br/>", 20)
	_, err := service.Submit(context.Background(), "user-1", auth.RoleStandardUser, padded)
	assert.ErrorIs(t, err, ErrMotivationTooShort)
}

func TestSubmitAlreadyAdmin(t *testing.T) {
	service := newTestService(newFakeApplicationRepo(), nil)

	_, err := service.Submit(context.Background(), "user-1", auth.RoleEventAdmin, validMotivation)
	assert.ErrorIs(t, err, ErrAlreadyAdmin)

	_, err = service.Submit(context.Background(), "user-1", auth.RoleUltimateAdmin, validMotivation)
	assert.ErrorIs(t, err, ErrAlreadyAdmin)
}

func TestSubmitPendingExists(t *testing.T) {
	repo := newFakeApplicationRepo()
	service := newTestService(repo, nil)

	_, err := service.Submit(context.Background(), "user-1", auth.RoleStandardUser, validMotivation)
	require.NoError(t, err)

	_, err = service.Submit(context.Background(), "user-1", auth.RoleStandardUser, validMotivation)
	assert.ErrorIs(t, err, ErrPendingExists)
}

func TestListRejectsInvalidStatus(t *testing.T) {
	service := newTestService(newFakeApplicationRepo(), nil)

	_, err := service.List(context.Background(), Filters{Status: "WAITING"})
	assert.Error(t, err)
}

func TestReviewApprove(t *testing.T) {
	repo := newFakeApplicationRepo()
	notifier := &recordingNotifier{}
	service := newTestService(repo, notifier)

	application, err := service.Submit(context.Background(), "user-1", auth.RoleStandardUser, validMotivation)
	require.NoError(t, err)
	repo.applications[application.ID].Applicant = &UserSummary{ID: "user-1", Email: "applicant@example.com", FullName: "Applicant"}

	reviewed, err := service.Review(context.Background(), application.ID, "admin-1", StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedByUserID)
	assert.Equal(t, "admin-1", *reviewed.ReviewedByUserID)
	assert.NotNil(t, reviewed.ReviewedAt)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "applicant@example.com", notifier.calls[0].Email)
	assert.True(t, notifier.calls[0].Approved)
}

func TestReviewReject(t *testing.T) {
	repo := newFakeApplicationRepo()
	notifier := &recordingNotifier{}
	service := newTestService(repo, notifier)

	application, err := service.Submit(context.Background(), "user-1", auth.RoleStandardUser, validMotivation)
	require.NoError(t, err)
	repo.applications[application.ID].Applicant = &UserSummary{ID: "user-1", Email: "applicant@example.com"}

	reviewed, err := service.Review(context.Background(), application.ID, "admin-1", StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, reviewed.Status)
	require.Len(t, notifier.calls, 1)
	assert.False(t, notifier.calls[0].Approved)
}

func TestReviewInvalidStatus(t *testing.T) {
	service := newTestService(newFakeApplicationRepo(), nil)

	_, err := service.Review(context.Background(), "app-1", "admin-1", StatusPending)
	assert.Error(t, err)
}

func TestReviewNotFound(t *testing.T) {
	service := newTestService(newFakeApplicationRepo(), nil)

	_, err := service.Review(context.Background(), "missing", "admin-1", StatusApproved)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviewAlreadyReviewed(t *testing.T) {
	repo := newFakeApplicationRepo()
	service := newTestService(repo, nil)

	application, err := service.Submit(context.Background(), "user-1", auth.RoleStandardUser, validMotivation)
	require.NoError(t, err)

	_, err = service.Review(context.Background(), application.ID, "admin-1", StatusApproved)
	require.NoError(t, err)

	_, err = service.Review(context.Background(), application.ID, "admin-2", StatusRejected)
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
}
