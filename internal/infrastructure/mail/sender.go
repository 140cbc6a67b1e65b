package mail

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kalado/authentication/internal/core/domain"
	"github.com/kalado/authentication/internal/infrastructure/config"
)

// Sender delivers a single mail through a provider.
type Sender interface {
	Send(ctx context.Context, m domain.Mail) error
}

// NewSender builds the provider selected by cfg.Provider.
func NewSender(cfg config.MailConfig, log zerolog.Logger) (Sender, error) {
	switch cfg.Provider {
	case "sendgrid":
		return NewSendgridSender(cfg.SendgridAPIKey, cfg.From), nil
	case "mailgun":
		return NewMailgunSender(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.From), nil
	case "log", "":
		return NewLogSender(log), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

// LogSender writes mails to the log instead of sending them. Used in
// development.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, m domain.Mail) error {
	s.log.Info().
		Str("kind", string(m.Kind)).
		Str("to", m.To).
		Str("subject", m.Subject).
		Str("body", m.Body).
		Msg("mail (not sent, log provider)")
	return nil
}
