package services

import (
	"context"

	"github.com/bloomdrive/bloomdrive/internal/logging"
)

// Mailer delivers one-time passcodes to users. The production deployment
// plugs in a real delivery backend; LogMailer is for development.
type Mailer interface {
	SendOTP(ctx context.Context, email string, code string) error
}

// LogMailer writes passcodes to the log instead of sending mail. Useful for
// local development and tests; never deploy it.
type LogMailer struct {
	log logging.Logger
}

func NewLogMailer(log logging.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendOTP(ctx context.Context, email string, code string) error {
	m.log.Info(ctx, "otp code issued", "email", email, "code", code)
	return nil
}
