package handlers

import (
	"errors"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tweettube/backend/internal/apperr"
	"github.com/tweettube/backend/internal/logging"
	"github.com/tweettube/backend/internal/models"
	"github.com/tweettube/backend/internal/repositories"
)

// VideoHandler implements video catalog and lifecycle endpoints.
type VideoHandler struct {
	Videos  VideoStore
	Storage MediaStorage
	Cleaner MediaCleaner
	Stats   StatsInvalidator
	NowFunc func() time.Time
}

// List handles GET /api/v1/videos requests. It serves published videos only,
// filtered by free-text query and owner, ordered by a whitelisted sort field.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, limit := parsePagination(r)
	query := r.URL.Query()

	opts := repositories.ListVideosOptions{
		Query:   strings.TrimSpace(query.Get("query")),
		Page:    page,
		Limit:   limit,
		SortBy:  query.Get("sortBy"),
		SortAsc: strings.EqualFold(query.Get("sortType"), "asc"),
	}

	if raw := query.Get("userId"); raw != "" {
		ownerID, err := parseRef(raw, "user")
		if err != nil {
			respondError(ctx, w, err)
			return
		}
		opts.OwnerID = ownerID
	}

	result, err := h.Videos.List(ctx, opts)
	if err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to list videos", err))
		return
	}

	respond(ctx, w, http.StatusOK, result, "videos fetched")
}

// Publish handles POST /api/v1/videos requests. The payload is a multipart
// form carrying title and description plus the video file and a thumbnail.
// Uploaded objects are scheduled for deletion when the database write fails
// so a failed publish does not strand media.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := principalFrom(ctx)
	if !ok {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "unauthorized request"))
		return
	}

	if h.Storage == nil {
		respondError(ctx, w, apperr.New(apperr.Internal, "media storage unavailable"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.BadRequest, "invalid multipart form", err))
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		respondError(ctx, w, apperr.New(apperr.BadRequest, "title and description are required"))
		return
	}

	duration := 0.0
	if raw := r.FormValue("duration"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			respondError(ctx, w, apperr.New(apperr.BadRequest, "invalid duration"))
			return
		}
		duration = parsed
	}

	videoFile, videoType, err := formFile(r, "videoFile")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	defer videoFile.Close()

	thumbFile, thumbType, err := formFile(r, "thumbnail")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	defer thumbFile.Close()

	id := uuid.NewString()

	videoKey := path.Join("videos", id)
	videoURL, err := h.Storage.Save(ctx, videoKey, videoType, videoFile)
	if err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to store video file", err))
		return
	}

	thumbKey := path.Join("thumbnails", id)
	thumbURL, err := h.Storage.Save(ctx, thumbKey, thumbType, thumbFile)
	if err != nil {
		h.cleanup(videoKey)
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to store thumbnail", err))
		return
	}

	now := h.now()
	video := models.Video{
		ID:           id,
		OwnerID:      user.ID,
		VideoFile:    videoURL,
		VideoFileKey: videoKey,
		Thumbnail:    thumbURL,
		ThumbnailKey: thumbKey,
		Title:        title,
		Description:  description,
		Duration:     duration,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		h.cleanup(videoKey, thumbKey)
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to publish video", err))
		return
	}

	h.invalidateStats(user.ID)

	logger.Info("video published", "videoId", video.ID, "userId", user.ID)
	respond(ctx, w, http.StatusCreated, video, "video published")
}

// Get handles GET /api/v1/videos/{videoId} requests. A successful fetch
// counts as a view, and authenticated viewers get the video appended to
// their watch history.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	videoID, err := parseRef(r.PathValue("videoId"), "video")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	video, err := h.Videos.FindByIDWithOwner(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, "video not found"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to load video", err))
		return
	}

	viewer, authenticated := principalFrom(ctx)

	// Unpublished videos stay invisible to everyone but their owner.
	if !video.IsPublished && (!authenticated || viewer.ID != video.OwnerID) {
		respondError(ctx, w, apperr.New(apperr.NotFound, "video not found"))
		return
	}

	if err := h.Videos.IncrementViews(ctx, videoID); err != nil {
		logger.Error("increment views", "videoId", videoID, "error", err)
	} else {
		video.Views++
	}

	if authenticated {
		if err := h.Videos.AppendWatch(ctx, viewer.ID, videoID); err != nil {
			logger.Error("append watch history", "videoId", videoID, "userId", viewer.ID, "error", err)
		}
	}

	respond(ctx, w, http.StatusOK, video, "video fetched")
}

// Update handles PATCH /api/v1/videos/{videoId} requests. Title and
// description are required; a thumbnail part is optional and replaces the
// stored one, with the old object scheduled for deletion afterwards.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.BadRequest, "invalid multipart form", err))
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		respondError(ctx, w, apperr.New(apperr.BadRequest, "title and description are required"))
		return
	}

	video, err := h.loadOwnedVideo(r, user, videoID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var thumbURL, thumbKey string
	if thumbFile, thumbType, err := formFile(r, "thumbnail"); err == nil {
		defer thumbFile.Close()

		if h.Storage == nil {
			respondError(ctx, w, apperr.New(apperr.Internal, "media storage unavailable"))
			return
		}

		thumbKey = path.Join("thumbnails", uuid.NewString())
		thumbURL, err = h.Storage.Save(ctx, thumbKey, thumbType, thumbFile)
		if err != nil {
			respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to store thumbnail", err))
			return
		}
	}

	updated, err := h.Videos.UpdateDetails(ctx, videoID, title, description, thumbURL, thumbKey)
	if err != nil {
		h.cleanup(thumbKey)
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, "video not found"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to update video", err))
		return
	}

	if thumbKey != "" && video.ThumbnailKey != "" && video.ThumbnailKey != thumbKey {
		h.cleanup(video.ThumbnailKey)
	}

	respond(ctx, w, http.StatusOK, updated, "video updated")
}

// Delete handles DELETE /api/v1/videos/{videoId} requests. Comments, likes,
// playlist entries, and history rows cascade; the stored media objects are
// deleted in the background.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

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

	video, err := h.loadOwnedVideo(r, user, videoID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Videos.Delete(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, "video not found"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to delete video", err))
		return
	}

	h.cleanup(video.VideoFileKey, video.ThumbnailKey)
	h.invalidateStats(user.ID)

	logger.Info("video deleted", "videoId", videoID, "userId", user.ID)
	respond(ctx, w, http.StatusOK, nil, "video deleted")
}

// TogglePublish handles PATCH /api/v1/videos/{videoId}/publish requests. The
// caller states the desired visibility explicitly so retries are idempotent.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
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

	var req publishRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if req.Published == nil {
		respondError(ctx, w, apperr.New(apperr.BadRequest, "published is required"))
		return
	}

	if _, err := h.loadOwnedVideo(r, user, videoID); err != nil {
		respondError(ctx, w, err)
		return
	}

	updated, err := h.Videos.SetPublished(ctx, videoID, *req.Published)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, "video not found"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to update video", err))
		return
	}

	respond(ctx, w, http.StatusOK, updated, "publish state updated")
}

// loadOwnedVideo fetches a video and enforces that the caller owns it.
func (h VideoHandler) loadOwnedVideo(r *http.Request, user models.User, videoID string) (models.Video, error) {
	video, err := h.Videos.FindByID(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, apperr.New(apperr.NotFound, "video not found")
		}
		return models.Video{}, apperr.Wrap(apperr.Internal, "failed to load video", err)
	}

	if err := assertOwner(user, video.OwnerID, "video"); err != nil {
		return models.Video{}, err
	}

	return video, nil
}

func (h VideoHandler) invalidateStats(channelID string) {
	if h.Stats == nil {
		return
	}
	h.Stats.Invalidate(channelID)
}

func (h VideoHandler) cleanup(keys ...string) {
	if h.Cleaner == nil {
		return
	}
	h.Cleaner.Enqueue(keys...)
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type publishRequest struct {
	Published *bool `json:"published"`
}
