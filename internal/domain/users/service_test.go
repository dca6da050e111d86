package users

import (
	"context"
	"testing"

	"github.com/eventhall/server/internal/auth"
	"github.com/eventhall/server/internal/config"
	"github.com/eventhall/server/internal/domain/categories"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	bySubject map[string]*User
	byEmail   map[string]*User
	byID      map[string]*User

	created      []CreateParams
	updates      map[string]Update
	interestSets map[string][]string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		bySubject:    make(map[string]*User),
		byEmail:      make(map[string]*User),
		byID:         make(map[string]*User),
		updates:      make(map[string]Update),
		interestSets: make(map[string][]string),
	}
}

func (f *fakeUserRepo) add(user *User) {
	f.bySubject[user.SubjectID] = user
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*User, error) {
	if user, ok := f.byID[id]; ok {
		return user, nil
	}
	return nil, ErrNotFound
}

func (f *fakeUserRepo) GetBySubjectID(_ context.Context, subjectID string) (*User, error) {
	if user, ok := f.bySubject[subjectID]; ok {
		return user, nil
	}
	return nil, ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	if user, ok := f.byEmail[email]; ok {
		return user, nil
	}
	return nil, ErrNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, params CreateParams) (*User, error) {
	f.created = append(f.created, params)
	user := &User{
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

func (f *fakeUserRepo) Update(_ context.Context, id string, update Update) (*User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	f.updates[id] = update
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
	f.interestSets[userID] = categoryIDs
	if user, ok := f.byID[userID]; ok {
		interests := make([]Interest, 0, len(categoryIDs))
		for _, categoryID := range categoryIDs {
			interests = append(interests, Interest{ID: categoryID, Category: categories.Category{ID: categoryID}})
		}
		user.Interests = interests
	}
	return nil
}

func (f *fakeUserRepo) List(_ context.Context, filters Filters) ([]User, error) {
	var out []User
	for _, user := range f.byID {
		if filters.Role != "" && string(user.Role) != filters.Role {
			continue
		}
		out = append(out, *user)
	}
	return out, nil
}

func newTestService(repo Repository, ultimateEmails ...string) *Service {
	return NewService(repo, nil, config.AuthConfig{UltimateAdminEmails: ultimateEmails}, zerolog.Nop())
}

func TestSyncCreatesUserOnFirstLogin(t *testing.T) {
	repo := newFakeUserRepo()
	service := newTestService(repo)

	result, err := service.Sync(context.Background(), auth.Identity{
		SubjectID: "sub-1",
		Email:     "new@example.com",
		Name:      "New User",
		Picture:   "https://cdn.example.com/p.png",
	}, nil)
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	created := repo.created[0]
	assert.Equal(t, "sub-1", created.SubjectID)
	assert.Equal(t, "new@example.com", created.Email)
	assert.Equal(t, "New User", created.FullName)
	assert.Equal(t, auth.RoleStandardUser, created.Role)
	assert.True(t, created.IsStudent, "students by default")

	assert.True(t, result.NeedsProfileCompletion, "no interests yet")
	assert.Equal(t, created.ID, result.User.ID)
}

func TestSyncFullNameFallsBackToEmailLocalPart(t *testing.T) {
	repo := newFakeUserRepo()
	service := newTestService(repo)

	result, err := service.Sync(context.Background(), auth.Identity{
		SubjectID: "sub-2",
		Email:     "ravi.kumar@example.com",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ravi.kumar", result.User.FullName)
}

func TestSyncRequiresEmail(t *testing.T) {
	service := newTestService(newFakeUserRepo())

	_, err := service.Sync(context.Background(), auth.Identity{SubjectID: "sub-3"}, nil)
	assert.ErrorIs(t, err, ErrEmailRequired)
}

func TestSyncPromotesAllowListedEmail(t *testing.T) {
	repo := newFakeUserRepo()
	service := newTestService(repo, "Root@Example.com")

	result, err := service.Sync(context.Background(), auth.Identity{
		SubjectID: "sub-4",
		Email:     "root@example.com",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUltimateAdmin, result.User.Role, "allow-list match is case-insensitive")
}

func TestSyncUpdatesExistingUser(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(&User{
		ID:        "user-1",
		SubjectID: "sub-5",
		Email:     "old@example.com",
		FullName:  "Old Name",
		Role:      auth.RoleEventAdmin,
	})
	service := newTestService(repo)

	isStudent := false
	result, err := service.Sync(context.Background(), auth.Identity{
		SubjectID: "sub-5",
		Email:     "fresh@example.com",
		Name:      "Fresh Name",
	}, &ProfileInput{IsStudent: &isStudent, CollegeName: "NIT Calicut"})
	require.NoError(t, err)

	assert.Empty(t, repo.created, "no second account for a known subject")
	assert.Equal(t, "fresh@example.com", result.User.Email)
	assert.Equal(t, "Fresh Name", result.User.FullName)
	assert.Equal(t, "NIT Calicut", result.User.CollegeName)
	assert.False(t, result.User.IsStudent)
	assert.Equal(t, auth.RoleEventAdmin, result.User.Role, "sync never demotes")
}

func TestSyncSanitizesProfileText(t *testing.T) {
	repo := newFakeUserRepo()
	service := newTestService(repo)

	result, err := service.Sync(context.Background(), auth.Identity{
		SubjectID: "sub-6",
		Email:     "x@example.com",
	}, &ProfileInput{FullName: "<script>alert(1)</script>Safe Name"})
	require.NoError(t, err)
	assert.Equal(t, "Safe Name", result.User.FullName)
}

func TestUpdateProfileMergesFields(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(&User{ID: "user-2", SubjectID: "sub-7", Email: "u@example.com", FullName: "Before", CollegeName: "Old College"})
	service := newTestService(repo)

	user, err := service.UpdateProfile(context.Background(), "sub-7", ProfileInput{FullName: "After"})
	require.NoError(t, err)
	assert.Equal(t, "After", user.FullName)
	assert.Equal(t, "Old College", user.CollegeName, "absent fields preserved")
}

func TestUpdateProfileReplacesInterests(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(&User{ID: "user-3", SubjectID: "sub-8", Email: "u3@example.com"})
	service := newTestService(repo)

	interests := []string{"01HX4Y7Z8K9M2N3P4Q5R6S7T8V", "01HX4Y7Z8K9M2N3P4Q5R6S7T8W"}
	user, err := service.UpdateProfile(context.Background(), "sub-8", ProfileInput{Interests: interests})
	require.NoError(t, err)
	assert.Equal(t, interests, repo.interestSets["user-3"])
	assert.Len(t, user.Interests, 2)
}

func TestUpdateProfileWritesThroughTransaction(t *testing.T) {
	base := newFakeUserRepo()
	base.add(&User{ID: "user-5", SubjectID: "sub-10", Email: "u5@example.com"})
	txRepo := newFakeUserRepo()
	txRepo.add(&User{ID: "user-5", SubjectID: "sub-10", Email: "u5@example.com"})

	txCalls := 0
	tx := func(ctx context.Context, fn func(context.Context, Repository) error) error {
		txCalls++
		return fn(ctx, txRepo)
	}
	service := NewService(base, tx, config.AuthConfig{}, zerolog.Nop())

	interests := []string{"01HX4Y7Z8K9M2N3P4Q5R6S7T8V"}
	_, err := service.UpdateProfile(context.Background(), "sub-10", ProfileInput{
		FullName:  "Scoped",
		Interests: interests,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, txCalls, "profile update and interest replace share one transaction")
	assert.Contains(t, txRepo.updates, "user-5")
	assert.Equal(t, interests, txRepo.interestSets["user-5"])
	assert.Empty(t, base.updates, "no write outside the transaction")
	assert.Empty(t, base.interestSets, "no write outside the transaction")
}

func TestUpdateProfileRejectsInvalidInterestID(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(&User{ID: "user-4", SubjectID: "sub-9", Email: "u4@example.com"})
	service := newTestService(repo)

	_, err := service.UpdateProfile(context.Background(), "sub-9", ProfileInput{Interests: []string{"not-a-ulid"}})
	require.Error(t, err)
	assert.Empty(t, repo.interestSets, "nothing written on validation failure")
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	service := newTestService(newFakeUserRepo())

	_, err := service.UpdateProfile(context.Background(), "missing", ProfileInput{FullName: "X"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRejectsInvalidRoleFilter(t *testing.T) {
	service := newTestService(newFakeUserRepo())

	_, err := service.List(context.Background(), Filters{Role: "GOD_MODE"})
	assert.Error(t, err)
}
