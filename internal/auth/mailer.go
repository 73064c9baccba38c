package auth

import (
	"context"
	"log/slog"

	"github.com/anonto42/reddit-feed/backend/pkg/logging"
)

// Mailer delivers an HTML message to a single recipient.
type Mailer interface {
	Send(ctx context.Context, to, html string) error
}

// LogMailer writes outgoing mail to the log instead of delivering it.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer() *LogMailer {
	return &LogMailer{log: logging.GetLogger("mailer")}
}

func (m *LogMailer) Send(ctx context.Context, to, html string) error {
	m.log.InfoContext(ctx, "outgoing mail", slog.String("to", to), slog.String("body", html))
	return nil
}
