package handlers

import (
	"net/http"

	"github.com/tweettube/backend/internal/apperr"
	"github.com/tweettube/backend/internal/repositories"
)

// DashboardHandler implements the channel owner's dashboard endpoints.
type DashboardHandler struct {
	Stats  StatsProvider
	Videos VideoStore
}

// ChannelStats handles GET /api/v1/dashboard/stats requests.
func (h DashboardHandler) ChannelStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := principalFrom(ctx)
	if !ok {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "unauthorized request"))
		return
	}

	stats, err := h.Stats.ChannelStats(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to load channel stats", err))
		return
	}

	respond(ctx, w, http.StatusOK, stats, "channel stats fetched")
}

// ChannelVideos handles GET /api/v1/dashboard/videos requests. Unlike the
// public catalog it includes the caller's unpublished videos.
func (h DashboardHandler) ChannelVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := principalFrom(ctx)
	if !ok {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "unauthorized request"))
		return
	}

	page, limit := parsePagination(r)
	result, err := h.Videos.List(ctx, repositories.ListVideosOptions{
		OwnerID:            user.ID,
		IncludeUnpublished: true,
		Page:               page,
		Limit:              limit,
	})
	if err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to list channel videos", err))
		return
	}

	respond(ctx, w, http.StatusOK, result, "channel videos fetched")
}
