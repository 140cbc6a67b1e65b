package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/kalado/authentication/internal/core/domain"
)

type SendgridSender struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

func NewSendgridSender(apiKey, from string) *SendgridSender {
	return &SendgridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail("", from),
	}
}

func (s *SendgridSender) Send(ctx context.Context, m domain.Mail) error {
	message := sgmail.NewSingleEmail(s.from, m.Subject, sgmail.NewEmail("", m.To), m.Body, "")

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sendgrid: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
