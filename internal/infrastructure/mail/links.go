package mail

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kalado/authentication/internal/core/domain"
)

// Links renders the transactional mails. ResetURL and VerifyURL are format
// strings with a single %s for the url-escaped token.
type Links struct {
	ResetURL  string
	VerifyURL string
}

func (l Links) PasswordReset(to, token string) domain.Mail {
	link := render(l.ResetURL, token)
	return domain.Mail{
		Kind:    domain.MailPasswordReset,
		To:      to,
		Subject: "Reset your password",
		Body: "We received a request to reset your password.\n\n" +
			"Follow this link within 24 hours to choose a new one:\n" + link + "\n\n" +
			"If you did not ask for a reset you can ignore this message.",
	}
}

func (l Links) Verification(to, token string) domain.Mail {
	link := render(l.VerifyURL, token)
	return domain.Mail{
		Kind:    domain.MailEmailVerification,
		To:      to,
		Subject: "Verify your email address",
		Body: "Welcome! Confirm your email address to finish setting up your account:\n" +
			link + "\n\nThe link expires in 24 hours.",
	}
}

func render(tmpl, token string) string {
	escaped := url.QueryEscape(token)
	if !strings.Contains(tmpl, "%s") {
		return tmpl + escaped
	}
	return fmt.Sprintf(tmpl, escaped)
}
