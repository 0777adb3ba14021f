// Package logmail is the notification sink used when no mail provider is configured.
package logmail

import (
	"context"
	"log/slog"
)

// Mailer logs every message instead of sending it.
type Mailer struct {
	log *slog.Logger
}

func NewMailer(log *slog.Logger) *Mailer {
	if log == nil {
		log = slog.Default()
	}
	return &Mailer{log: log}
}

func (m *Mailer) SendEmail(ctx context.Context, to []string, subject, body string) error {
	m.log.InfoContext(ctx, "mail not configured, logging message",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}
