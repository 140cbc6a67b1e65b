package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/kalado/authentication/internal/core/domain"
)

func TestTokenService_IssueAndValidate(t *testing.T) {
	k := newTestKit()
	ctx := context.Background()
	u := k.seed("user@x.com", "pw", domain.RoleUser)

	token, err := k.tokens.Issue(ctx, u.ID)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	v := k.tokens.Validate(ctx, token)
	if !v.Valid || v.SubjectID != u.ID || v.Role != domain.RoleUser {
		t.Fatalf("unexpected validation: %+v", v)
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}, jwt.WithTimeFunc(k.clock.Now)); err != nil {
		t.Fatalf("token does not parse: %v", err)
	}
	if claims.Subject != strconv.FormatInt(u.ID, 10) {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if claims.ID == "" {
		t.Fatalf("expected jti to be set")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 24*time.Hour {
		t.Fatalf("expected 24h lifetime, got %s", got)
	}
}

func TestTokenService_TokensAreUnique(t *testing.T) {
	k := newTestKit()
	u := k.seed("user@x.com", "pw", domain.RoleUser)

	a, _ := k.tokens.Issue(context.Background(), u.ID)
	b, _ := k.tokens.Issue(context.Background(), u.ID)
	if a == b {
		t.Fatalf("expected distinct tokens for the same subject and second")
	}
}

func TestTokenService_InvalidateIsIdempotent(t *testing.T) {
	k := newTestKit()
	ctx := context.Background()
	u := k.seed("user@x.com", "pw", domain.RoleUser)

	token, _ := k.tokens.Issue(ctx, u.ID)
	if err := k.tokens.Invalidate(ctx, token); err != nil {
		t.Fatalf("first invalidate: %v", err)
	}
	if err := k.tokens.Invalidate(ctx, token); err != nil {
		t.Fatalf("second invalidate: %v", err)
	}
	if v := k.tokens.Validate(ctx, token); v.Valid {
		t.Fatalf("expected invalid after invalidate")
	}
}

func TestTokenService_ReturnsCurrentRole(t *testing.T) {
	k := newTestKit()
	ctx := context.Background()
	u := k.seed("user@x.com", "pw", domain.RoleUser)

	token, _ := k.tokens.Issue(ctx, u.ID)
	if err := k.identities.UpdateRole(ctx, u.ID, domain.RoleUser, domain.RoleAdmin); err != nil {
		t.Fatalf("update role: %v", err)
	}

	if v := k.tokens.Validate(ctx, token); !v.Valid || v.Role != domain.RoleAdmin {
		t.Fatalf("expected current role ADMIN, got %+v", v)
	}
}

func TestTokenService_RejectsInvalidTokens(t *testing.T) {
	k := newTestKit()
	ctx := context.Background()
	u := k.seed("user@x.com", "pw", domain.RoleUser)
	good, _ := k.tokens.Issue(ctx, u.ID)

	forged, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(u.ID, 10),
		ExpiresAt: jwt.NewNumericDate(k.clock.Now().Add(time.Hour)),
	}).SignedString([]byte("other-secret"))
	_ = k.sessions.Save(ctx, forged, u.ID, time.Hour)

	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(u.ID, 10),
		ExpiresAt: jwt.NewNumericDate(k.clock.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	_ = k.sessions.Save(ctx, unsigned, u.ID, time.Hour)

	cases := map[string]string{
		"empty":    "",
		"garbage":  "not-a-token",
		"tampered": good + "a",
		"forged":   forged,
		"unsigned": unsigned,
	}
	for name, token := range cases {
		if v := k.tokens.Validate(ctx, token); v.Valid {
			t.Errorf("%s: expected invalid", name)
		}
	}
}

func TestTokenService_ExpiredClaim(t *testing.T) {
	k := newTestKit()
	ctx := context.Background()
	u := k.seed("user@x.com", "pw", domain.RoleUser)

	token, _ := k.tokens.Issue(ctx, u.ID)
	k.clock.Advance(25 * time.Hour)

	// The stub store keeps the key forever; the embedded expiry alone must reject it.
	if v := k.tokens.Validate(ctx, token); v.Valid {
		t.Fatalf("expected expired token to be invalid")
	}
}

func TestTokenService_StoreAbsenceRevokes(t *testing.T) {
	k := newTestKit()
	ctx := context.Background()
	u := k.seed("user@x.com", "pw", domain.RoleUser)

	token, _ := k.tokens.Issue(ctx, u.ID)
	_ = k.sessions.Delete(ctx, token)

	if v := k.tokens.Validate(ctx, token); v.Valid {
		t.Fatalf("expected token without store entry to be invalid")
	}
}

func TestTokenService_SubjectMismatch(t *testing.T) {
	k := newTestKit()
	ctx := context.Background()
	u := k.seed("user@x.com", "pw", domain.RoleUser)
	other := k.seed("other@x.com", "pw", domain.RoleUser)

	token, _ := k.tokens.Issue(ctx, u.ID)
	_ = k.sessions.Save(ctx, token, other.ID, time.Hour)

	if v := k.tokens.Validate(ctx, token); v.Valid {
		t.Fatalf("expected mismatched subject to be invalid")
	}
}

func TestTokenService_DeletedIdentity(t *testing.T) {
	k := newTestKit()
	ctx := context.Background()
	u := k.seed("user@x.com", "pw", domain.RoleUser)

	token, _ := k.tokens.Issue(ctx, u.ID)
	k.identities.mu.Lock()
	delete(k.identities.byID, u.ID)
	k.identities.mu.Unlock()

	if v := k.tokens.Validate(ctx, token); v.Valid {
		t.Fatalf("expected token of missing identity to be invalid")
	}
}

func TestTokenService_StoreErrorsYieldInvalid(t *testing.T) {
	k := newTestKit()
	ctx := context.Background()
	u := k.seed("user@x.com", "pw", domain.RoleUser)

	token, _ := k.tokens.Issue(ctx, u.ID)
	k.sessions.getErr = errors.New("redis down")

	if v := k.tokens.Validate(ctx, token); v.Valid {
		t.Fatalf("expected invalid when the store is unreachable")
	}
}

func TestTokenService_InvalidateAll(t *testing.T) {
	k := newTestKit()
	ctx := context.Background()
	u := k.seed("user@x.com", "pw", domain.RoleUser)
	other := k.seed("other@x.com", "pw", domain.RoleUser)

	var mine []string
	for i := 0; i < 3; i++ {
		token, _ := k.tokens.Issue(ctx, u.ID)
		mine = append(mine, token)
	}
	theirs, _ := k.tokens.Issue(ctx, other.ID)

	if err := k.tokens.InvalidateAll(ctx, u.ID); err != nil {
		t.Fatalf("invalidate all: %v", err)
	}
	for _, token := range mine {
		if v := k.tokens.Validate(ctx, token); v.Valid {
			t.Fatalf("expected all tokens of the subject to be revoked")
		}
	}
	if v := k.tokens.Validate(ctx, theirs); !v.Valid {
		t.Fatalf("tokens of other subjects must survive")
	}
}

func TestNewTokenService_DefaultTTL(t *testing.T) {
	svc := NewTokenService(newStubSessionStore(), newStubIdentityRepo(), "s", 0, zerolog.Nop())
	if svc.ttl != 24*time.Hour {
		t.Fatalf("expected default ttl of 24h, got %s", svc.ttl)
	}
}
