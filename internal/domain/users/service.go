package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eventhall/server/internal/auth"
	"github.com/eventhall/server/internal/config"
	"github.com/eventhall/server/internal/domain/ids"
	"github.com/eventhall/server/internal/sanitize"
	"github.com/rs/zerolog"
)

// ProfileInput is the optional client-supplied profile payload carried
// by sync-user and update-profile requests.
type ProfileInput struct {
	FullName    string   `json:"fullName,omitempty"`
	PhotoURL    string   `json:"photoUrl,omitempty"`
	IsStudent   *bool    `json:"isStudent,omitempty"`
	CollegeName string   `json:"collegeName,omitempty"`
	Interests   []string `json:"interests,omitempty"`
}

// SyncResult is the outcome of identity resolution.
type SyncResult struct {
	User *User
	// NeedsProfileCompletion is true iff the user has no recorded
	// interests yet.
	NeedsProfileCompletion bool
}

// TxFunc runs fn against a transaction-scoped repository, committing
// when fn returns nil and rolling back otherwise.
type TxFunc func(ctx context.Context, fn func(context.Context, Repository) error) error

type Service struct {
	repo Repository
	tx   TxFunc
	// authCfg carries the ultimate-admin email allow-list consulted
	// only at identity-resolution time.
	authCfg config.AuthConfig
	logger  zerolog.Logger
}

func NewService(repo Repository, tx TxFunc, authCfg config.AuthConfig, logger zerolog.Logger) *Service {
	if tx == nil {
		tx = func(ctx context.Context, fn func(context.Context, Repository) error) error {
			return fn(ctx, repo)
		}
	}
	return &Service{
		repo:    repo,
		tx:      tx,
		authCfg: authCfg,
		logger:  logger.With().Str("component", "users").Logger(),
	}
}

// Sync resolves a verified external identity to the internal user,
// creating the record on first sight. Mutable profile fields are
// overwritten only where the client supplied a value. The role is
// promoted to ULTIMATE_ADMIN when the email is allow-listed and left
// unchanged otherwise.
func (s *Service) Sync(ctx context.Context, identity auth.Identity, profile *ProfileInput) (SyncResult, error) {
	if strings.TrimSpace(identity.Email) == "" {
		return SyncResult{}, ErrEmailRequired
	}

	isUltimateAdmin := s.authCfg.IsUltimateAdminEmail(identity.Email)
	fullName := resolveFullName(profile, identity)
	photoURL := resolvePhotoURL(profile, identity)

	existing, err := s.repo.GetBySubjectID(ctx, identity.SubjectID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return SyncResult{}, fmt.Errorf("lookup user: %w", err)
	}

	var user *User
	if existing != nil {
		update := Update{
			Email:    &identity.Email,
			FullName: &fullName,
		}
		if photoURL != "" {
			update.PhotoURL = &photoURL
		}
		if profile != nil {
			if profile.IsStudent != nil {
				update.IsStudent = profile.IsStudent
			}
			if profile.CollegeName != "" {
				college := sanitize.Text(profile.CollegeName)
				update.CollegeName = &college
			}
		}
		if isUltimateAdmin {
			role := auth.RoleUltimateAdmin
			update.Role = &role
		}
		user, err = s.repo.Update(ctx, existing.ID, update)
		if err != nil {
			return SyncResult{}, fmt.Errorf("update user: %w", err)
		}
	} else {
		role := auth.RoleStandardUser
		if isUltimateAdmin {
			role = auth.RoleUltimateAdmin
		}
		isStudent := true
		collegeName := ""
		if profile != nil {
			if profile.IsStudent != nil {
				isStudent = *profile.IsStudent
			}
			collegeName = sanitize.Text(profile.CollegeName)
		}
		id, err := ids.NewULID()
		if err != nil {
			return SyncResult{}, fmt.Errorf("mint user id: %w", err)
		}
		user, err = s.repo.Create(ctx, CreateParams{
			ID:          id,
			SubjectID:   identity.SubjectID,
			Email:       identity.Email,
			FullName:    fullName,
			PhotoURL:    photoURL,
			Role:        role,
			IsStudent:   isStudent,
			CollegeName: collegeName,
		})
		if err != nil {
			return SyncResult{}, fmt.Errorf("create user: %w", err)
		}
		s.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user created on first login")
	}

	return SyncResult{
		User:                   user,
		NeedsProfileCompletion: len(user.Interests) == 0,
	}, nil
}

// UpdateProfile merges the supplied profile fields into the user
// identified by subjectID and, when an interest list is supplied,
// replaces the interest set. Both writes run in one transaction so a
// failed interest replace never leaves a half-updated profile.
func (s *Service) UpdateProfile(ctx context.Context, subjectID string, profile ProfileInput) (*User, error) {
	user, err := s.repo.GetBySubjectID(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	if profile.Interests != nil {
		for _, categoryID := range profile.Interests {
			if err := ids.ValidateULID(categoryID); err != nil {
				return nil, fmt.Errorf("interest category %q: %w", categoryID, err)
			}
		}
	}

	update := Update{}
	if profile.FullName != "" {
		name := sanitize.Text(profile.FullName)
		update.FullName = &name
	}
	if profile.IsStudent != nil {
		update.IsStudent = profile.IsStudent
	}
	if profile.CollegeName != "" {
		college := sanitize.Text(profile.CollegeName)
		update.CollegeName = &college
	}

	err = s.tx(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := repo.Update(ctx, user.ID, update); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		if profile.Interests != nil {
			if err := repo.ReplaceInterests(ctx, user.ID, profile.Interests); err != nil {
				return fmt.Errorf("replace interests: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, user.ID)
}

// GetBySubjectID returns the user for a verified subject id.
func (s *Service) GetBySubjectID(ctx context.Context, subjectID string) (*User, error) {
	return s.repo.GetBySubjectID(ctx, subjectID)
}

// GetByEmail returns the user owning the given email.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// GetByID returns the user with interests loaded.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns users for admin management, optionally filtered by role.
func (s *Service) List(ctx context.Context, filters Filters) ([]User, error) {
	if filters.Role != "" && !auth.IsValidRole(filters.Role) {
		return nil, fmt.Errorf("invalid role %q", filters.Role)
	}
	return s.repo.List(ctx, filters)
}

func resolveFullName(profile *ProfileInput, identity auth.Identity) string {
	if profile != nil && profile.FullName != "" {
		return sanitize.Text(profile.FullName)
	}
	if identity.Name != "" {
		return sanitize.Text(identity.Name)
	}
	if at := strings.Index(identity.Email, "@"); at > 0 {
		return identity.Email[:at]
	}
	return identity.Email
}

func resolvePhotoURL(profile *ProfileInput, identity auth.Identity) string {
	if profile != nil && profile.PhotoURL != "" {
		return profile.PhotoURL
	}
	return identity.Picture
}
