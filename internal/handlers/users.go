package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tweettube/backend/internal/apperr"
	"github.com/tweettube/backend/internal/auth"
	"github.com/tweettube/backend/internal/logging"
	"github.com/tweettube/backend/internal/models"
	"github.com/tweettube/backend/internal/repositories"
)

// UserHandler implements account, session, and channel endpoints.
type UserHandler struct {
	Users    UserStore
	Sessions SessionManager
	Videos   VideoStore
	Storage  MediaStorage
	Cleaner  MediaCleaner
	Limiter  RateLimiter
	NowFunc  func() time.Time
}

// Register handles POST /api/v1/users/register requests. The payload is a
// multipart form carrying the account fields plus a required avatar image and
// an optional cover image.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "register") {
		respondError(ctx, w, apperr.New(apperr.RateLimited, "too many registration attempts"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.BadRequest, "invalid multipart form", err))
		return
	}

	fullName := strings.TrimSpace(r.FormValue("fullName"))
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	username := strings.TrimSpace(strings.ToLower(r.FormValue("username")))
	password := r.FormValue("password")

	if fullName == "" || email == "" || username == "" || password == "" {
		respondError(ctx, w, apperr.New(apperr.BadRequest, "fullName, email, username, and password are required"))
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		respondError(ctx, w, apperr.New(apperr.BadRequest, "invalid email address"))
		return
	}
	if len(password) < 8 {
		respondError(ctx, w, apperr.New(apperr.BadRequest, "password must be at least 8 characters"))
		return
	}

	if err := h.checkAvailability(r, email, username); err != nil {
		respondError(ctx, w, err)
		return
	}

	avatarFile, avatarType, err := formFile(r, "avatar")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	defer avatarFile.Close()

	avatarURL, avatarKey, err := h.uploadImage(r, "avatars", avatarType, avatarFile)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var coverURL, coverKey string
	if coverFile, coverType, err := formFile(r, "coverImage"); err == nil {
		defer coverFile.Close()
		coverURL, coverKey, err = h.uploadImage(r, "covers", coverType, coverFile)
		if err != nil {
			h.cleanup(avatarKey)
			respondError(ctx, w, err)
			return
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.cleanup(avatarKey, coverKey)
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to secure password", err))
		return
	}

	now := h.now()
	user := models.User{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		FullName:      fullName,
		Avatar:        avatarURL,
		AvatarKey:     avatarKey,
		CoverImage:    coverURL,
		CoverImageKey: coverKey,
		Password:      string(hashed),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		h.cleanup(avatarKey, coverKey)
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, apperr.New(apperr.Conflict, "username or email already in use"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to create account", err))
		return
	}

	logger.Info("user registered", "userId", user.ID, "username", user.Username)
	respond(ctx, w, http.StatusCreated, user, "account created")
}

// Login handles POST /api/v1/users/login requests. Callers authenticate with
// either their email or their username.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		respondError(ctx, w, apperr.New(apperr.RateLimited, "too many login attempts"))
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	if (req.Email == "" && req.Username == "") || req.Password == "" {
		respondError(ctx, w, apperr.New(apperr.BadRequest, "email or username and password are required"))
		return
	}

	user, err := h.findAccount(r, req.Email, req.Username)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "invalid credentials"))
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to create session", err))
		return
	}

	setSessionCookies(w, tokens)
	respond(ctx, w, http.StatusOK, loginResponse{User: user, Tokens: tokens}, "logged in")
}

// Logout handles POST /api/v1/users/logout requests.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := principalFrom(ctx)
	if !ok {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "unauthorized request"))
		return
	}

	h.Sessions.Revoke(ctx, user.ID)
	clearSessionCookies(w)
	respond(ctx, w, http.StatusOK, nil, "logged out")
}

// RefreshToken handles POST /api/v1/users/refresh-token requests. The refresh
// token is read from the cookie or the JSON body.
func (h UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		token = cookie.Value
	}
	if token == "" {
		var req refreshRequest
		if err := decodeJSON(r, &req); err == nil {
			token = strings.TrimSpace(req.RefreshToken)
		}
	}
	if token == "" {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "refresh token is required"))
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrSessionNotFound),
			errors.Is(err, auth.ErrRefreshTokenExpired),
			errors.Is(err, auth.ErrRefreshTokenMismatch):
			respondError(ctx, w, apperr.Wrap(apperr.Unauthorized, "invalid refresh token", err))
		default:
			respondError(ctx, w, apperr.Wrap(apperr.Internal, "unable to refresh session", err))
		}
		return
	}

	setSessionCookies(w, tokens)
	respond(ctx, w, http.StatusOK, tokens, "session refreshed")
}

// ChangePassword handles PATCH /api/v1/users/change-password requests.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := principalFrom(ctx)
	if !ok {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "unauthorized request"))
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	if req.OldPassword == "" || req.NewPassword == "" {
		respondError(ctx, w, apperr.New(apperr.BadRequest, "oldPassword and newPassword are required"))
		return
	}
	if len(req.NewPassword) < 8 {
		respondError(ctx, w, apperr.New(apperr.BadRequest, "password must be at least 8 characters"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "incorrect password"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to secure password", err))
		return
	}

	if err := h.Users.UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to change password", err))
		return
	}

	respond(ctx, w, http.StatusOK, nil, "password changed")
}

// CurrentUser handles GET /api/v1/users/me requests.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := principalFrom(ctx)
	if !ok {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "unauthorized request"))
		return
	}

	respond(ctx, w, http.StatusOK, user, "current user")
}

// UpdateAccount handles PATCH /api/v1/users/me requests. Both fields are
// required; partial updates resubmit the current value.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := principalFrom(ctx)
	if !ok {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "unauthorized request"))
		return
	}

	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.FullName == "" || req.Email == "" {
		respondError(ctx, w, apperr.New(apperr.BadRequest, "fullName and email are required"))
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondError(ctx, w, apperr.New(apperr.BadRequest, "invalid email address"))
		return
	}

	updated, err := h.Users.UpdateAccount(ctx, user.ID, req.FullName, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, apperr.New(apperr.Conflict, "email already in use"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to update account", err))
		return
	}

	respond(ctx, w, http.StatusOK, updated, "account updated")
}

// UpdateAvatar handles PATCH /api/v1/users/me/avatar requests.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", "avatars", h.Users.UpdateAvatar)
}

// UpdateCoverImage handles PATCH /api/v1/users/me/cover-image requests.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", "covers", h.Users.UpdateCoverImage)
}

// updateImage uploads a replacement profile image, persists its location, and
// schedules deletion of the replaced object once the database write sticks.
func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field, prefix string, persist func(ctx context.Context, id, url, key string) (models.User, error)) {
	ctx := r.Context()

	user, ok := principalFrom(ctx)
	if !ok {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "unauthorized request"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.BadRequest, "invalid multipart form", err))
		return
	}

	file, contentType, err := formFile(r, field)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	defer file.Close()

	url, key, err := h.uploadImage(r, prefix, contentType, file)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	oldKey := user.AvatarKey
	if field == "coverImage" {
		oldKey = user.CoverImageKey
	}

	updated, err := persist(ctx, user.ID, url, key)
	if err != nil {
		h.cleanup(key)
		respondError(ctx, w, apperr.Wrap(apperr.Internal, fmt.Sprintf("failed to update %s", field), err))
		return
	}

	if oldKey != "" && oldKey != key {
		h.cleanup(oldKey)
	}

	respond(ctx, w, http.StatusOK, updated, fmt.Sprintf("%s updated", field))
}

// Channel handles GET /api/v1/users/channel/{username} requests. An optional
// principal drives the isSubscribed flag.
func (h UserHandler) Channel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	username := strings.TrimSpace(strings.ToLower(r.PathValue("username")))
	if username == "" {
		respondError(ctx, w, apperr.New(apperr.BadRequest, "username is required"))
		return
	}

	viewerID := ""
	if viewer, ok := principalFrom(ctx); ok {
		viewerID = viewer.ID
	}

	profile, err := h.Users.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, "channel not found"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to load channel", err))
		return
	}

	respond(ctx, w, http.StatusOK, profile, "channel profile")
}

// WatchHistory handles GET /api/v1/users/history requests.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := principalFrom(ctx)
	if !ok {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "unauthorized request"))
		return
	}

	videos, err := h.Videos.WatchHistory(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to load watch history", err))
		return
	}

	respond(ctx, w, http.StatusOK, videos, "watch history")
}

func (h UserHandler) checkAvailability(r *http.Request, email, username string) error {
	ctx := r.Context()

	if _, err := h.Users.FindByEmail(ctx, email); err == nil {
		return apperr.New(apperr.Conflict, "email already in use")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return apperr.Wrap(apperr.Internal, "unable to verify existing accounts", err)
	}

	if _, err := h.Users.FindByUsername(ctx, username); err == nil {
		return apperr.New(apperr.Conflict, "username already in use")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return apperr.Wrap(apperr.Internal, "unable to verify existing accounts", err)
	}

	return nil
}

func (h UserHandler) findAccount(r *http.Request, email, username string) (models.User, error) {
	ctx := r.Context()

	var (
		user models.User
		err  error
	)
	if email != "" {
		user, err = h.Users.FindByEmail(ctx, email)
	} else {
		user, err = h.Users.FindByUsername(ctx, username)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, apperr.New(apperr.Unauthorized, "invalid credentials")
		}
		return models.User{}, apperr.Wrap(apperr.Internal, "unable to look up account", err)
	}

	return user, nil
}

func (h UserHandler) uploadImage(r *http.Request, prefix, contentType string, file io.Reader) (string, string, error) {
	if h.Storage == nil {
		return "", "", apperr.New(apperr.Internal, "media storage unavailable")
	}

	key := path.Join(prefix, uuid.NewString())
	url, err := h.Storage.Save(r.Context(), key, contentType, file)
	if err != nil {
		return "", "", apperr.Wrap(apperr.Internal, "failed to store uploaded file", err)
	}

	return url, key, nil
}

func (h UserHandler) cleanup(keys ...string) {
	if h.Cleaner == nil {
		return
	}
	h.Cleaner.Enqueue(keys...)
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		Expires:  tokens.AccessExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    tokens.RefreshToken,
		Path:     "/",
		Expires:  tokens.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	User   models.User          `json:"user"`
	Tokens models.SessionTokens `json:"tokens"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}
