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

// CommentHandler implements comment endpoints scoped to a video.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore
	NowFunc  func() time.Time
}

// ListForVideo handles GET /api/v1/comments/{videoId} requests.
func (h CommentHandler) ListForVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID, err := parseRef(r.PathValue("videoId"), "video")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, "video not found"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to load video", err))
		return
	}

	page, limit := parsePagination(r)
	result, err := h.Comments.ListByVideo(ctx, videoID, page, limit)
	if err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to list comments", err))
		return
	}

	respond(ctx, w, http.StatusOK, result, "comments fetched")
}

// Create handles POST /api/v1/comments/{videoId} requests.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := principalFrom(ctx)
	if !ok {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "unauthorized request"))
		return
	}

	videoID, err := parseRef(r.PathValue("videoId"), "video")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, apperr.New(apperr.BadRequest, "content is required"))
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, "video not found"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to load video", err))
		return
	}

	now := h.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		OwnerID:   user.ID,
		VideoID:   videoID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, "video not found"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to create comment", err))
		return
	}

	respond(ctx, w, http.StatusCreated, comment, "comment added")
}

// Update handles PATCH /api/v1/comments/c/{commentId} requests.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := principalFrom(ctx)
	if !ok {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "unauthorized request"))
		return
	}

	commentID, err := parseRef(r.PathValue("commentId"), "comment")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, apperr.New(apperr.BadRequest, "content is required"))
		return
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, "comment not found"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to load comment", err))
		return
	}

	if err := assertOwner(user, comment.OwnerID, "comment"); err != nil {
		respondError(ctx, w, err)
		return
	}

	updated, err := h.Comments.UpdateContent(ctx, commentID, req.Content)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, "comment not found"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to update comment", err))
		return
	}

	respond(ctx, w, http.StatusOK, updated, "comment updated")
}

// Delete handles DELETE /api/v1/comments/c/{commentId} requests.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := principalFrom(ctx)
	if !ok {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "unauthorized request"))
		return
	}

	commentID, err := parseRef(r.PathValue("commentId"), "comment")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, "comment not found"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to load comment", err))
		return
	}

	if err := assertOwner(user, comment.OwnerID, "comment"); err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Comments.Delete(ctx, commentID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, "comment not found"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to delete comment", err))
		return
	}

	respond(ctx, w, http.StatusOK, nil, "comment deleted")
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type commentRequest struct {
	Content string `json:"content"`
}
