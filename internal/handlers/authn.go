package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/tweettube/backend/internal/apperr"
	"github.com/tweettube/backend/internal/models"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

type principalKey struct{}

// principalFrom returns the authenticated user attached by the Authenticator.
func principalFrom(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(principalKey{}).(models.User)
	return user, ok
}

// Authenticator resolves bearer credentials into a request principal.
type Authenticator struct {
	Tokens AccessTokenParser
	Users  UserStore
}

// Require wraps a handler so it only runs with a valid access token. The
// token is read from the accessToken cookie or an Authorization bearer
// header, and the user it names must still exist.
func (a Authenticator) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := a.resolve(r)
		if err != nil {
			respondError(r.Context(), w, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, user)))
	}
}

// Optional attaches a principal when valid credentials are present and runs
// the handler anonymously otherwise.
func (a Authenticator) Optional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := a.resolve(r)
		if err != nil {
			next(w, r)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, user)))
	}
}

func (a Authenticator) resolve(r *http.Request) (models.User, error) {
	if a.Tokens == nil || a.Users == nil {
		return models.User{}, apperr.New(apperr.Internal, "authentication services unavailable")
	}

	token := bearerToken(r)
	if token == "" {
		return models.User{}, apperr.New(apperr.Unauthorized, "unauthorized request")
	}

	userID, err := a.Tokens.ParseAccess(token)
	if err != nil {
		return models.User{}, apperr.Wrap(apperr.Unauthorized, "invalid access token", err)
	}

	user, err := a.Users.FindByID(r.Context(), userID)
	if err != nil {
		return models.User{}, apperr.Wrap(apperr.Unauthorized, "invalid access token", err)
	}

	return user, nil
}

func bearerToken(r *http.Request) string {
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}

	return ""
}
