package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/tweettube/backend/internal/models"
)

var (
	// ErrSessionNotFound indicates the provided refresh token does not map to an active session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshTokenExpired indicates the refresh token has expired and cannot be used.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	// ErrRefreshTokenMismatch indicates the presented refresh token is not the
	// one currently stored for the user, typically after rotation or logout.
	ErrRefreshTokenMismatch = errors.New("refresh token mismatch")
)

// SessionStore persists the single active refresh session per user so it can
// survive process restarts. Saving replaces any prior session for the user.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Find(ctx context.Context, userID string) (Session, error)
	Delete(ctx context.Context, userID string) error
}

// Session represents the one refresh token currently valid for a user.
// A fresh login or refresh overwrites it, invalidating the previous session.
type Session struct {
	UserID       string
	RefreshToken string
	ExpiresAt    time.Time
}

// Manager manages the lifecycle of issued session tokens backed by a persistent store.
type Manager struct {
	tokens *TokenIssuer
	store  SessionStore

	now func() time.Time
}

// NewManager constructs a Manager that issues token pairs with the provided issuer.
func NewManager(tokens *TokenIssuer, store SessionStore) *Manager {
	if tokens == nil {
		panic("auth: token issuer must not be nil")
	}
	if store == nil {
		panic("auth: session store must not be nil")
	}
	return &Manager{tokens: tokens, store: store, now: time.Now}
}

// Issue creates a new pair of access and refresh tokens for the provided user
// identifier, replacing any refresh session the user already holds.
func (m *Manager) Issue(ctx context.Context, userID string) (models.SessionTokens, error) {
	if userID == "" {
		return models.SessionTokens{}, errors.New("user id must be provided")
	}

	accessToken, accessExpiresAt, err := m.tokens.IssueAccess(userID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	refreshToken, refreshExpiresAt, err := m.tokens.IssueRefresh(userID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.store.Save(ctx, Session{
		UserID:       userID,
		RefreshToken: refreshToken,
		ExpiresAt:    refreshExpiresAt,
	}); err != nil {
		return models.SessionTokens{}, err
	}

	return models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// Refresh exchanges a refresh token for a new session token pair. The
// presented token must both verify and exactly match the stored session,
// which guards against reuse after logout or rotation.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	if refreshToken == "" {
		return models.SessionTokens{}, ErrSessionNotFound
	}

	userID, err := m.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return models.SessionTokens{}, ErrSessionNotFound
	}

	session, err := m.store.Find(ctx, userID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if subtle.ConstantTimeCompare([]byte(session.RefreshToken), []byte(refreshToken)) != 1 {
		return models.SessionTokens{}, ErrRefreshTokenMismatch
	}

	if m.now().UTC().After(session.ExpiresAt) {
		_ = m.store.Delete(ctx, userID)
		return models.SessionTokens{}, ErrRefreshTokenExpired
	}

	return m.Issue(ctx, userID)
}

// Revoke clears the user's stored refresh session. Subsequent Refresh calls
// fail until the next login.
func (m *Manager) Revoke(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	_ = m.store.Delete(ctx, userID)
}
