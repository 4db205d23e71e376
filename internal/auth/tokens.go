package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "tweettube"

// ErrInvalidToken indicates a token that is absent, malformed, expired, or
// carries a bad signature.
var ErrInvalidToken = errors.New("invalid token")

// TokenIssuer signs and verifies the access and refresh JWTs. Access and
// refresh tokens use separate secrets so one class can never stand in for
// the other.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	now func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer with the provided secrets and TTLs.
func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenIssuer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("auth: token secrets must be configured")
	}
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

// IssueAccess signs a short-lived access token whose subject is the user id.
func (t *TokenIssuer) IssueAccess(userID string) (string, time.Time, error) {
	return t.sign(userID, t.accessSecret, t.accessTTL)
}

// IssueRefresh signs a longer-lived refresh token whose subject is the user id.
func (t *TokenIssuer) IssueRefresh(userID string) (string, time.Time, error) {
	return t.sign(userID, t.refreshSecret, t.refreshTTL)
}

// ParseAccess verifies an access token and returns the user id it names.
func (t *TokenIssuer) ParseAccess(token string) (string, error) {
	return t.parse(token, t.accessSecret)
}

// ParseRefresh verifies a refresh token and returns the user id it names.
func (t *TokenIssuer) ParseRefresh(token string) (string, error) {
	return t.parse(token, t.refreshSecret)
}

func (t *TokenIssuer) sign(userID string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := t.now().UTC()
	expiresAt := now.Add(ttl)

	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

func (t *TokenIssuer) parse(token string, secret []byte) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return t.now().UTC() }),
	)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
