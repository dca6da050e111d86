package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/mail"
	"strings"
	"time"

	"github.com/eventhall/server/internal/config"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

// Service sends transactional notification emails through Resend.
// When disabled it logs and returns nil, so callers never need to
// branch on configuration.
type Service struct {
	config       config.EmailConfig
	resendClient *resend.Client
	templates    *template.Template
	logger       zerolog.Logger
}

type applicationReviewedData struct {
	FullName    string
	Approved    bool
	CurrentYear int
}

type eventModeratedData struct {
	FullName    string
	EventTitle  string
	Published   bool
	Reason      string
	CurrentYear int
}

func NewService(cfg config.EmailConfig, logger zerolog.Logger) (*Service, error) {
	if cfg.Enabled {
		if err := validateEmailAddress(cfg.From); err != nil {
			return nil, fmt.Errorf("invalid sender email in config: %w", err)
		}
	}

	templates, err := template.New("email").Parse(notificationTemplates)
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}

	s := &Service{
		config:    cfg,
		templates: templates,
		logger:    logger.With().Str("component", "email").Logger(),
	}
	if cfg.Enabled {
		s.resendClient = resend.NewClient(cfg.ResendAPIKey)
	}
	return s, nil
}

// ApplicationReviewed notifies an applicant of the decision on their
// admin application.
func (s *Service) ApplicationReviewed(ctx context.Context, to, fullName string, approved bool) error {
	if err := validateEmailAddress(to); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	if !s.config.Enabled {
		s.logger.Info().
			Str("to", to).
			Bool("approved", approved).
			Msg("email service disabled, skipping application review email")
		return nil
	}

	htmlBody, err := s.renderTemplate("application_reviewed", applicationReviewedData{
		FullName:    fullName,
		Approved:    approved,
		CurrentYear: time.Now().Year(),
	})
	if err != nil {
		return fmt.Errorf("render application review template: %w", err)
	}

	subject := "Your event admin application was not approved"
	if approved {
		subject = "You are now an event admin"
	}
	return s.send(ctx, "application_reviewed", to, subject, htmlBody)
}

// EventModerated notifies an event creator that their event was
// published or rejected.
func (s *Service) EventModerated(ctx context.Context, to, fullName, eventTitle string, published bool, reason string) error {
	if err := validateEmailAddress(to); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	if !s.config.Enabled {
		s.logger.Info().
			Str("to", to).
			Str("event", eventTitle).
			Bool("published", published).
			Msg("email service disabled, skipping event moderation email")
		return nil
	}

	htmlBody, err := s.renderTemplate("event_moderated", eventModeratedData{
		FullName:    fullName,
		EventTitle:  eventTitle,
		Published:   published,
		Reason:      reason,
		CurrentYear: time.Now().Year(),
	})
	if err != nil {
		return fmt.Errorf("render event moderation template: %w", err)
	}

	subject := fmt.Sprintf("Your event %q was not approved", eventTitle)
	if published {
		subject = fmt.Sprintf("Your event %q is live", eventTitle)
	}
	return s.send(ctx, "event_moderated", to, subject, htmlBody)
}

func (s *Service) send(ctx context.Context, kind, to, subject, htmlBody string) error {
	if err := s.deliver(ctx, kind, to, subject, htmlBody); err != nil {
		return fmt.Errorf("send %s email: %w", kind, err)
	}
	return nil
}

// validateEmailAddress checks format and rejects header injection.
func validateEmailAddress(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}
	return nil
}

func (s *Service) renderTemplate(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.String(), nil
}
