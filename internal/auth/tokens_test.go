package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("new token issuer: %v", err)
	}
	return issuer
}

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := newTestIssuer(t)

	token, expiresAt, err := issuer.IssueAccess("user-123")
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}
	if token == "" {
		t.Fatal("expected a signed token")
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expected a future expiry, got %v", expiresAt)
	}

	userID, err := issuer.ParseAccess(token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if userID != "user-123" {
		t.Fatalf("expected subject user-123, got %q", userID)
	}
}

func TestTokenIssuerRejectsCrossUse(t *testing.T) {
	issuer := newTestIssuer(t)

	refresh, _, err := issuer.IssueRefresh("user-123")
	if err != nil {
		t.Fatalf("issue refresh token: %v", err)
	}

	// A refresh token must never verify as an access token.
	if _, err := issuer.ParseAccess(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenIssuerRejectsExpired(t *testing.T) {
	issuer := newTestIssuer(t)

	issued := time.Now().UTC()
	issuer.now = func() time.Time { return issued }

	token, _, err := issuer.IssueAccess("user-123")
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}

	issuer.now = func() time.Time { return issued.Add(2 * time.Minute) }

	if _, err := issuer.ParseAccess(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenIssuerRejectsGarbage(t *testing.T) {
	issuer := newTestIssuer(t)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := issuer.ParseAccess(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", token, err)
		}
	}
}

func TestNewTokenIssuerRequiresSecrets(t *testing.T) {
	if _, err := NewTokenIssuer("", "refresh", time.Minute, time.Hour); err == nil {
		t.Fatal("expected error for empty access secret")
	}
	if _, err := NewTokenIssuer("access", "", time.Minute, time.Hour); err == nil {
		t.Fatal("expected error for empty refresh secret")
	}
}
