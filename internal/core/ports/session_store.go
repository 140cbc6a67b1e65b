package ports

import (
	"context"
	"time"
)

// SessionStore is the shared registry of live bearer tokens.
type SessionStore interface {
	// Save records token -> subjectID for ttl and indexes it under the subject.
	Save(ctx context.Context, token string, subjectID int64, ttl time.Duration) error
	// SubjectOf returns domain.ErrSessionNotFound when the token is not live.
	SubjectOf(ctx context.Context, token string) (int64, error)
	// Delete is idempotent.
	Delete(ctx context.Context, token string) error
	// DeleteAllForSubject removes every indexed token of the subject and
	// reports how many were still live. Not atomic with concurrent Save calls.
	DeleteAllForSubject(ctx context.Context, subjectID int64) (int, error)
}
