package domain

// MailKind identifies which transactional mail is being sent.
type MailKind string

const (
	MailPasswordReset     MailKind = "password_reset"
	MailEmailVerification MailKind = "email_verification"
)

// Mail is one outgoing transactional message.
type Mail struct {
	Kind    MailKind
	To      string
	Subject string
	Body    string
}
