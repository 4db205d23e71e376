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

// PlaylistHandler implements playlist endpoints.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Videos    VideoStore
	Users     UserStore
	NowFunc   func() time.Time
}

// Create handles POST /api/v1/playlists requests.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := principalFrom(ctx)
	if !ok {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "unauthorized request"))
		return
	}

	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" {
		respondError(ctx, w, apperr.New(apperr.BadRequest, "name and description are required"))
		return
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     user.ID,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to create playlist", err))
		return
	}

	respond(ctx, w, http.StatusCreated, playlist, "playlist created")
}

// Get handles GET /api/v1/playlists/{playlistId} requests, resolving the
// playlist's videos in stored order.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlistID, err := parseRef(r.PathValue("playlistId"), "playlist")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	playlist, err := h.Playlists.FindByIDWithVideos(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, "playlist not found"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to load playlist", err))
		return
	}

	respond(ctx, w, http.StatusOK, playlist, "playlist fetched")
}

// ListForUser handles GET /api/v1/playlists/user/{userId} requests.
func (h PlaylistHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
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

	playlists, err := h.Playlists.ListByOwner(ctx, userID)
	if err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to list playlists", err))
		return
	}

	respond(ctx, w, http.StatusOK, playlists, "playlists fetched")
}

// Update handles PATCH /api/v1/playlists/{playlistId} requests.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := principalFrom(ctx)
	if !ok {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "unauthorized request"))
		return
	}

	playlistID, err := parseRef(r.PathValue("playlistId"), "playlist")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" {
		respondError(ctx, w, apperr.New(apperr.BadRequest, "name and description are required"))
		return
	}

	if _, err := h.loadOwnedPlaylist(r, user, playlistID); err != nil {
		respondError(ctx, w, err)
		return
	}

	updated, err := h.Playlists.UpdateDetails(ctx, playlistID, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, "playlist not found"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to update playlist", err))
		return
	}

	respond(ctx, w, http.StatusOK, updated, "playlist updated")
}

// Delete handles DELETE /api/v1/playlists/{playlistId} requests.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := principalFrom(ctx)
	if !ok {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "unauthorized request"))
		return
	}

	playlistID, err := parseRef(r.PathValue("playlistId"), "playlist")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if _, err := h.loadOwnedPlaylist(r, user, playlistID); err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Playlists.Delete(ctx, playlistID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, "playlist not found"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to delete playlist", err))
		return
	}

	respond(ctx, w, http.StatusOK, nil, "playlist deleted")
}

// AddVideo handles POST /api/v1/playlists/{playlistId}/videos/{videoId}
// requests, appending the video at the end of the playlist.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	_, playlistID, videoID, err := h.membershipArgs(r)
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

	if err := h.Playlists.AddVideo(ctx, playlistID, videoID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			respondError(ctx, w, apperr.New(apperr.Conflict, "video already in playlist"))
		case errors.Is(err, repositories.ErrNotFound):
			respondError(ctx, w, apperr.New(apperr.NotFound, "playlist or video not found"))
		default:
			respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to add video to playlist", err))
		}
		return
	}

	respond(ctx, w, http.StatusOK, nil, "video added to playlist")
}

// RemoveVideo handles DELETE /api/v1/playlists/{playlistId}/videos/{videoId}
// requests.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	_, playlistID, videoID, err := h.membershipArgs(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Playlists.RemoveVideo(ctx, playlistID, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, "video not in playlist"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to remove video from playlist", err))
		return
	}

	respond(ctx, w, http.StatusOK, nil, "video removed from playlist")
}

// membershipArgs validates the principal, both path references, and playlist
// ownership for the membership endpoints.
func (h PlaylistHandler) membershipArgs(r *http.Request) (models.User, string, string, error) {
	user, ok := principalFrom(r.Context())
	if !ok {
		return models.User{}, "", "", apperr.New(apperr.Unauthorized, "unauthorized request")
	}

	playlistID, err := parseRef(r.PathValue("playlistId"), "playlist")
	if err != nil {
		return models.User{}, "", "", err
	}

	videoID, err := parseRef(r.PathValue("videoId"), "video")
	if err != nil {
		return models.User{}, "", "", err
	}

	if _, err := h.loadOwnedPlaylist(r, user, playlistID); err != nil {
		return models.User{}, "", "", err
	}

	return user, playlistID, videoID, nil
}

func (h PlaylistHandler) loadOwnedPlaylist(r *http.Request, user models.User, playlistID string) (models.Playlist, error) {
	playlist, err := h.Playlists.FindByID(r.Context(), playlistID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Playlist{}, apperr.New(apperr.NotFound, "playlist not found")
		}
		return models.Playlist{}, apperr.Wrap(apperr.Internal, "failed to load playlist", err)
	}

	if err := assertOwner(user, playlist.OwnerID, "playlist"); err != nil {
		return models.Playlist{}, err
	}

	return playlist, nil
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
