package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/tweettube/backend/internal/apperr"
	"github.com/tweettube/backend/internal/repositories"
)

// LikeHandler implements like toggle endpoints for videos, comments, and
// tweets, plus the caller's liked-videos listing.
type LikeHandler struct {
	Likes  LikeStore
	Videos VideoStore
}

// ToggleVideo handles POST /api/v1/likes/toggle/video/{videoId} requests.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "videoId", "video", h.Likes.ToggleVideo)
}

// ToggleComment handles POST /api/v1/likes/toggle/comment/{commentId} requests.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "commentId", "comment", h.Likes.ToggleComment)
}

// ToggleTweet handles POST /api/v1/likes/toggle/tweet/{tweetId} requests.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "tweetId", "tweet", h.Likes.ToggleTweet)
}

// LikedVideos handles GET /api/v1/likes/videos requests.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := principalFrom(ctx)
	if !ok {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "unauthorized request"))
		return
	}

	videos, err := h.Videos.ListLiked(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to list liked videos", err))
		return
	}

	respond(ctx, w, http.StatusOK, videos, "liked videos fetched")
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, param, label string, fn func(ctx context.Context, userID, targetID string) (bool, error)) {
	ctx := r.Context()

	user, ok := principalFrom(ctx)
	if !ok {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "unauthorized request"))
		return
	}

	targetID, err := parseRef(r.PathValue(param), label)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	liked, err := fn(ctx, user.ID, targetID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, label+" not found"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to toggle like", err))
		return
	}

	message := "like removed"
	if liked {
		message = "like added"
	}

	respond(ctx, w, http.StatusOK, toggleResponse{Liked: liked}, message)
}

type toggleResponse struct {
	Liked bool `json:"liked"`
}
