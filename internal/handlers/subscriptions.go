package handlers

import (
	"errors"
	"net/http"

	"github.com/tweettube/backend/internal/apperr"
	"github.com/tweettube/backend/internal/repositories"
)

// SubscriptionHandler implements channel subscription endpoints.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	Users         UserStore
	Stats         StatsInvalidator
}

// Toggle handles POST /api/v1/subscriptions/channel/{channelId} requests.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := principalFrom(ctx)
	if !ok {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "unauthorized request"))
		return
	}

	channelID, err := parseRef(r.PathValue("channelId"), "channel")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if _, err := h.Users.FindByID(ctx, channelID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, "channel not found"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to load channel", err))
		return
	}

	subscribed, err := h.Subscriptions.Toggle(ctx, user.ID, channelID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrSelfSubscription):
			respondError(ctx, w, apperr.New(apperr.BadRequest, "cannot subscribe to your own channel"))
		case errors.Is(err, repositories.ErrNotFound):
			respondError(ctx, w, apperr.New(apperr.NotFound, "channel not found"))
		default:
			respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to toggle subscription", err))
		}
		return
	}

	if h.Stats != nil {
		h.Stats.Invalidate(channelID)
	}

	message := "subscription removed"
	if subscribed {
		message = "subscription added"
	}

	respond(ctx, w, http.StatusOK, subscriptionToggleResponse{Subscribed: subscribed}, message)
}

// Subscribers handles GET /api/v1/subscriptions/channel/{channelId} requests.
// A channel with no subscribers yields an empty list, not an error.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channelID, err := parseRef(r.PathValue("channelId"), "channel")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if _, err := h.Users.FindByID(ctx, channelID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.New(apperr.NotFound, "channel not found"))
			return
		}
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to load channel", err))
		return
	}

	subscribers, err := h.Subscriptions.Subscribers(ctx, channelID)
	if err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to list subscribers", err))
		return
	}

	respond(ctx, w, http.StatusOK, subscribers, "subscribers fetched")
}

// SubscribedChannels handles GET /api/v1/subscriptions/user/{userId}
// requests, listing the channels the given user follows.
func (h SubscriptionHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
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

	channels, err := h.Subscriptions.SubscribedTo(ctx, userID)
	if err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to list subscriptions", err))
		return
	}

	respond(ctx, w, http.StatusOK, channels, "subscriptions fetched")
}

// SubscribedTo handles GET /api/v1/subscriptions/me requests, listing the
// channels the caller follows.
func (h SubscriptionHandler) SubscribedTo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := principalFrom(ctx)
	if !ok {
		respondError(ctx, w, apperr.New(apperr.Unauthorized, "unauthorized request"))
		return
	}

	channels, err := h.Subscriptions.SubscribedTo(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Internal, "failed to list subscriptions", err))
		return
	}

	respond(ctx, w, http.StatusOK, channels, "subscriptions fetched")
}

type subscriptionToggleResponse struct {
	Subscribed bool `json:"subscribed"`
}
