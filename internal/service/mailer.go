package service

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Mailer delivers transactional email.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

// LogMailer writes outgoing mail to the log instead of sending it. It is the
// development mailer.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	log.Info().Str("to", to).Str("link", link).Msg("Password reset email")
	return nil
}
