package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

// deliver hands one rendered message to the Resend API. Each message
// is tagged with its notification kind so delivery dashboards can
// split application mail from moderation mail. Rate limit errors are
// surfaced without retrying.
func (s *Service) deliver(ctx context.Context, kind, to, subject, htmlBody string) error {
	if s.resendClient == nil {
		return errors.New("resend client not configured")
	}

	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		logger = &s.logger
	}

	sent, err := s.resendClient.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.config.From,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
		Tags:    []resend.Tag{{Name: "kind", Value: kind}},
	})
	if err != nil {
		var rateLimited *resend.RateLimitError
		if errors.As(err, &rateLimited) {
			logger.Warn().
				Str("kind", kind).
				Str("remaining", rateLimited.Remaining).
				Str("reset", rateLimited.Reset).
				Msg("resend rate limited")
			return fmt.Errorf("resend rate limited, retry after %ss: %w", rateLimited.Reset, err)
		}
		return fmt.Errorf("resend send: %w", err)
	}

	logger.Info().
		Str("kind", kind).
		Str("email_id", sent.Id).
		Str("to", to).
		Msg("notification email sent")
	return nil
}
