package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tweettube/backend/internal/apperr"
	"github.com/tweettube/backend/internal/models"
	"github.com/tweettube/backend/internal/repositories"
)

// TweetHandler implements tweet endpoints.
type TweetHandler struct {
	Tweets  TweetStore
	Users   UserStore
	NowFunc func() time.Time
}

// Create handles POST /api/v1/tweets requests.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := principalFrom(ctx)
	if !ok {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "unauthorized request"))
		return
	}

	var req tweetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, apperr.New(apperr.BadRequest, "content is required"))
		return
	}

	now := h.now()
	tweet := models.Tweet{
		ID:        uuid.NewString(),
		OwnerID:   user.ID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Tweets.Create(ctx, tweet); err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to create tweet", err))
		return
	}

	respond(ctx, w, http.StatusCreated, tweet, "tweet created")
}

// ListForUser handles GET /api/v1/tweets/user/{userId} requests.
func (h TweetHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := parseRef(r.PathValue("userId"), "user")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if _, err := h.Users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, "user not found"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to load user", err))
		return
	}

	tweets, err := h.Tweets.ListByOwner(ctx, userID)
	if err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to list tweets", err))
		return
	}

	respond(ctx, w, http.StatusOK, tweets, "tweets fetched")
}

// Update handles PATCH /api/v1/tweets/{tweetId} requests.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := principalFrom(ctx)
	if !ok {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "unauthorized request"))
		return
	}

	tweetID, err := parseRef(r.PathValue("tweetId"), "tweet")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req tweetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, apperr.New(apperr.BadRequest, "content is required"))
		return
	}

	tweet, err := h.Tweets.FindByID(ctx, tweetID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, "tweet not found"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to load tweet", err))
		return
	}

	if err := assertOwner(user, tweet.OwnerID, "tweet"); err != nil {
		respondError(ctx, w, err)
		return
	}

	updated, err := h.Tweets.UpdateContent(ctx, tweetID, req.Content)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, "tweet not found"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to update tweet", err))
		return
	}

	respond(ctx, w, http.StatusOK, updated, "tweet updated")
}

// Delete handles DELETE /api/v1/tweets/{tweetId} requests.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := principalFrom(ctx)
	if !ok {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "unauthorized request"))
		return
	}

	tweetID, err := parseRef(r.PathValue("tweetId"), "tweet")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	tweet, err := h.Tweets.FindByID(ctx, tweetID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, "tweet not found"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to load tweet", err))
		return
	}

	if err := assertOwner(user, tweet.OwnerID, "tweet"); err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Tweets.Delete(ctx, tweetID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, "tweet not found"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to delete tweet", err))
		return
	}

	respond(ctx, w, http.StatusOK, nil, "tweet deleted")
}

func (h TweetHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type tweetRequest struct {
	Content string `json:"content"`
}
