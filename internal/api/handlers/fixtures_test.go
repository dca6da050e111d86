package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eventhall/server/internal/api/middleware"
	"github.com/eventhall/server/internal/domain/applications"
	"github.com/eventhall/server/internal/domain/categories"
	"github.com/eventhall/server/internal/domain/events"
	"github.com/eventhall/server/internal/domain/interactions"
	"github.com/eventhall/server/internal/domain/users"
	"github.com/stretchr/testify/require"
)

const (
	testEventID    = "01HX4Y7Z8K9M2N3P4Q5R6S7T8V"
	testCategoryID = "01HX4Y7Z8K9M2N3P4Q5R6S7T8W"
	testUserID     = "01HX4Y7Z8K9M2N3P4Q5R6S7T8X"
)

// jsonRequest builds a request with an optional JSON body and the
// given user resolved in context, mirroring what the auth middleware
// does.
func jsonRequest(t *testing.T, method, target string, body any, user *users.User) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if user != nil {
		req = req.WithContext(middleware.ContextWithUser(req.Context(), user))
	}
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

type fakeEventRepo struct {
	events map[string]*events.Event

	lastFilters *events.Filters
	lastRecord  *events.Record
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[string]*events.Event)}
}

func (f *fakeEventRepo) List(_ context.Context, filters events.Filters) ([]events.Event, error) {
	f.lastFilters = &filters
	var out []events.Event
	for _, event := range f.events {
		out = append(out, *event)
	}
	return out, nil
}

func (f *fakeEventRepo) ListByCategory(_ context.Context, _ string, _ int) ([]events.Event, error) {
	return nil, nil
}

func (f *fakeEventRepo) GetByID(_ context.Context, id string) (*events.Event, error) {
	if event, ok := f.events[id]; ok {
		copied := *event
		return &copied, nil
	}
	return nil, events.ErrNotFound
}

func (f *fakeEventRepo) Create(_ context.Context, record events.Record) (*events.Event, error) {
	f.lastRecord = &record
	event := &events.Event{
		ID:              record.ID,
		Title:           record.Title,
		Status:          record.Status,
		CreatedByUserID: record.CreatedByUserID,
		IsFree:          record.IsFree,
		EntryFee:        record.EntryFee,
	}
	f.events[record.ID] = event
	return event, nil
}

func (f *fakeEventRepo) Update(_ context.Context, record events.Record) (*events.Event, error) {
	if _, ok := f.events[record.ID]; !ok {
		return nil, events.ErrNotFound
	}
	f.lastRecord = &record
	event := &events.Event{
		ID:              record.ID,
		Title:           record.Title,
		Status:          record.Status,
		CreatedByUserID: record.CreatedByUserID,
	}
	f.events[record.ID] = event
	return event, nil
}

func (f *fakeEventRepo) UpdateStatus(_ context.Context, id string, status events.Status, rejectionReason *string) (*events.Event, error) {
	event, ok := f.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	event.Status = status
	if rejectionReason != nil {
		event.RejectionReason = *rejectionReason
	}
	copied := *event
	return &copied, nil
}

type fakeCategoryRepo struct {
	items []categories.Category
}

func (f *fakeCategoryRepo) List(_ context.Context) ([]categories.Category, error) {
	return f.items, nil
}

func (f *fakeCategoryRepo) GetByID(_ context.Context, id string) (*categories.Category, error) {
	for _, category := range f.items {
		if category.ID == id {
			return &category, nil
		}
	}
	return nil, categories.ErrNotFound
}

func (f *fakeCategoryRepo) Upsert(_ context.Context, _ categories.SeedCategory) error { return nil }

type interactionKey struct {
	userID  string
	eventID string
}

type fakeInteractionRepo struct {
	likes         map[interactionKey]bool
	registrations map[interactionKey]bool
	knownEvents   map[string]bool
}

func newFakeInteractionRepo(eventIDs ...string) *fakeInteractionRepo {
	known := make(map[string]bool, len(eventIDs))
	for _, id := range eventIDs {
		known[id] = true
	}
	return &fakeInteractionRepo{
		likes:         make(map[interactionKey]bool),
		registrations: make(map[interactionKey]bool),
		knownEvents:   known,
	}
}

func (f *fakeInteractionRepo) HasLike(_ context.Context, userID, eventID string) (bool, error) {
	return f.likes[interactionKey{userID, eventID}], nil
}

func (f *fakeInteractionRepo) CreateLike(_ context.Context, _, userID, eventID string) error {
	if !f.knownEvents[eventID] {
		return interactions.ErrEventNotFound
	}
	f.likes[interactionKey{userID, eventID}] = true
	return nil
}

func (f *fakeInteractionRepo) DeleteLike(_ context.Context, userID, eventID string) error {
	delete(f.likes, interactionKey{userID, eventID})
	return nil
}

func (f *fakeInteractionRepo) CreateRegistration(_ context.Context, _, userID, eventID string) error {
	if !f.knownEvents[eventID] {
		return interactions.ErrEventNotFound
	}
	key := interactionKey{userID, eventID}
	if f.registrations[key] {
		return interactions.ErrAlreadyRegistered
	}
	f.registrations[key] = true
	return nil
}

func (f *fakeInteractionRepo) LikedEventIDs(_ context.Context, userID string, eventIDs []string) ([]string, error) {
	var out []string
	for _, eventID := range eventIDs {
		if f.likes[interactionKey{userID, eventID}] {
			out = append(out, eventID)
		}
	}
	return out, nil
}

func (f *fakeInteractionRepo) RegisteredEventIDs(_ context.Context, userID string, eventIDs []string) ([]string, error) {
	var out []string
	for _, eventID := range eventIDs {
		if f.registrations[interactionKey{userID, eventID}] {
			out = append(out, eventID)
		}
	}
	return out, nil
}

func (f *fakeInteractionRepo) ListLikedEvents(_ context.Context, _ string) ([]events.Event, error) {
	return nil, nil
}

func (f *fakeInteractionRepo) ListRegisteredEvents(_ context.Context, _ string) ([]events.Event, error) {
	return nil, nil
}

type fakeApplicationRepo struct {
	applications map[string]*applications.Application
	pending      map[string]bool
}

func newFakeApplicationRepo() *fakeApplicationRepo {
	return &fakeApplicationRepo{
		applications: make(map[string]*applications.Application),
		pending:      make(map[string]bool),
	}
}

func (f *fakeApplicationRepo) Create(_ context.Context, params applications.CreateParams) (*applications.Application, error) {
	application := &applications.Application{
		ID:             params.ID,
		UserID:         params.UserID,
		MotivationText: params.MotivationText,
		Status:         applications.StatusPending,
	}
	f.applications[params.ID] = application
	f.pending[params.UserID] = true
	return application, nil
}

func (f *fakeApplicationRepo) GetByID(_ context.Context, id string) (*applications.Application, error) {
	if application, ok := f.applications[id]; ok {
		copied := *application
		return &copied, nil
	}
	return nil, applications.ErrNotFound
}

func (f *fakeApplicationRepo) HasPending(_ context.Context, userID string) (bool, error) {
	return f.pending[userID], nil
}

func (f *fakeApplicationRepo) List(_ context.Context, filters applications.Filters) ([]applications.Application, error) {
	var out []applications.Application
	for _, application := range f.applications {
		if filters.Status != "" && string(application.Status) != filters.Status {
			continue
		}
		out = append(out, *application)
	}
	return out, nil
}

func (f *fakeApplicationRepo) Review(_ context.Context, params applications.ReviewParams) (*applications.Application, error) {
	application, ok := f.applications[params.ID]
	if !ok {
		return nil, applications.ErrNotFound
	}
	if application.Status != applications.StatusPending {
		return nil, applications.ErrAlreadyReviewed
	}
	application.Status = params.Status
	application.ReviewedByUserID = &params.ReviewedByUserID
	application.ReviewedAt = &params.ReviewedAt
	f.pending[application.UserID] = false
	copied := *application
	return &copied, nil
}

type fakeUserRepo struct {
	bySubject map[string]*users.User
	byEmail   map[string]*users.User
	byID      map[string]*users.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		bySubject: make(map[string]*users.User),
		byEmail:   make(map[string]*users.User),
		byID:      make(map[string]*users.User),
	}
}

func (f *fakeUserRepo) add(user *users.User) {
	f.bySubject[user.SubjectID] = user
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	if user, ok := f.byID[id]; ok {
		return user, nil
	}
	return nil, users.ErrNotFound
}

func (f *fakeUserRepo) GetBySubjectID(_ context.Context, subjectID string) (*users.User, error) {
	if user, ok := f.bySubject[subjectID]; ok {
		return user, nil
	}
	return nil, users.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	if user, ok := f.byEmail[email]; ok {
		return user, nil
	}
	return nil, users.ErrNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, params users.CreateParams) (*users.User, error) {
	user := &users.User{
		ID:          params.ID,
		SubjectID:   params.SubjectID,
		Email:       params.Email,
		FullName:    params.FullName,
		PhotoURL:    params.PhotoURL,
		Role:        params.Role,
		IsStudent:   params.IsStudent,
		CollegeName: params.CollegeName,
	}
	f.add(user)
	return user, nil
}

func (f *fakeUserRepo) Update(_ context.Context, id string, update users.Update) (*users.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.FullName != nil {
		user.FullName = *update.FullName
	}
	if update.PhotoURL != nil {
		user.PhotoURL = *update.PhotoURL
	}
	if update.IsStudent != nil {
		user.IsStudent = *update.IsStudent
	}
	if update.CollegeName != nil {
		user.CollegeName = *update.CollegeName
	}
	if update.Role != nil {
		user.Role = *update.Role
	}
	return user, nil
}

func (f *fakeUserRepo) ReplaceInterests(_ context.Context, userID string, categoryIDs []string) error {
	user, ok := f.byID[userID]
	if !ok {
		return users.ErrNotFound
	}
	interests := make([]users.Interest, 0, len(categoryIDs))
	for _, categoryID := range categoryIDs {
		interests = append(interests, users.Interest{ID: categoryID, Category: categories.Category{ID: categoryID}})
	}
	user.Interests = interests
	return nil
}

func (f *fakeUserRepo) List(_ context.Context, filters users.Filters) ([]users.User, error) {
	var out []users.User
	for _, user := range f.byID {
		if filters.Role != "" && string(user.Role) != filters.Role {
			continue
		}
		out = append(out, *user)
	}
	return out, nil
}
