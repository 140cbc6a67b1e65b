package mail

import (
	"context"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/kalado/authentication/internal/core/domain"
)

type MailgunSender struct {
	mg   *mailgun.MailgunImpl
	from string
}

func NewMailgunSender(domainName, apiKey, from string) *MailgunSender {
	return &MailgunSender{mg: mailgun.NewMailgun(domainName, apiKey), from: from}
}

func (s *MailgunSender) Send(ctx context.Context, m domain.Mail) error {
	message := s.mg.NewMessage(s.from, m.Subject, m.Body, m.To)
	if _, _, err := s.mg.Send(ctx, message); err != nil {
		return fmt.Errorf("mailgun: %w", err)
	}
	return nil
}
