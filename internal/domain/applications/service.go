package applications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eventhall/server/internal/auth"
	"github.com/eventhall/server/internal/domain/ids"
	"github.com/eventhall/server/internal/sanitize"
	"github.com/rs/zerolog"
)

// MinMotivationLength is the minimum accepted motivation text length.
const MinMotivationLength = 50

// Notifier delivers best-effort review-outcome notifications. A failed
// notification never fails the review.
type Notifier interface {
	ApplicationReviewed(ctx context.Context, to, fullName string, approved bool)
}

type Service struct {
	repo     Repository
	notifier Notifier
	logger   zerolog.Logger
}

func NewService(repo Repository, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		logger:   logger.With().Str("component", "applications").Logger(),
	}
}

// Submit creates a PENDING application for the caller. Guards, in
// order: motivation length, caller must still be a standard user, and
// no existing PENDING application. Any failing guard aborts before the
// write.
func (s *Service) Submit(ctx context.Context, applicantID string, applicantRole auth.Role, motivationText string) (*Application, error) {
	motivation := sanitize.Text(motivationText)
	if len(strings.TrimSpace(motivation)) < MinMotivationLength {
		return nil, ErrMotivationTooShort
	}

	if auth.IsEventAdmin(applicantRole) {
		return nil, ErrAlreadyAdmin
	}

	pending, err := s.repo.HasPending(ctx, applicantID)
	if err != nil {
		return nil, fmt.Errorf("check pending application: %w", err)
	}
	if pending {
		return nil, ErrPendingExists
	}

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint application id: %w", err)
	}

	application, err := s.repo.Create(ctx, CreateParams{
		ID:             id,
		UserID:         applicantID,
		MotivationText: motivation,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("application_id", application.ID).Str("user_id", applicantID).Msg("admin application submitted")
	return application, nil
}

// List returns applications for ultimate-admin review, optionally
// filtered by status.
func (s *Service) List(ctx context.Context, filters Filters) ([]Application, error) {
	if filters.Status != "" {
		switch Status(filters.Status) {
		case StatusPending, StatusApproved, StatusRejected:
		default:
			return nil, fmt.Errorf("invalid application status %q", filters.Status)
		}
	}
	return s.repo.List(ctx, filters)
}

// Review transitions a PENDING application to APPROVED or REJECTED.
// Approval promotes the applicant to EVENT_ADMIN in the same
// transaction as the status change; rejection never touches the role.
func (s *Service) Review(ctx context.Context, id, reviewerID string, status Status) (*Application, error) {
	if status != StatusApproved && status != StatusRejected {
		return nil, fmt.Errorf("invalid review status %q", status)
	}

	application, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if application.Status != StatusPending {
		return nil, ErrAlreadyReviewed
	}

	reviewed, err := s.repo.Review(ctx, ReviewParams{
		ID:               id,
		Status:           status,
		ReviewedByUserID: reviewerID,
		ReviewedAt:       time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("application_id", id).
		Str("reviewer_id", reviewerID).
		Str("status", string(status)).
		Msg("admin application reviewed")

	if s.notifier != nil && application.Applicant != nil {
		s.notifier.ApplicationReviewed(ctx, application.Applicant.Email, application.Applicant.FullName, status == StatusApproved)
	}

	return reviewed, nil
}
