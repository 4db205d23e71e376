package handlers

import (
	"context"
	"io"

	"github.com/tweettube/backend/internal/models"
	"github.com/tweettube/backend/internal/repositories"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	UpdateAccount(ctx context.Context, id, fullName, email string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAvatar(ctx context.Context, id, url, key string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id, url, key string) (models.User, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
}

// SessionManager issues, refreshes, and revokes authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, userID string)
}

// AccessTokenParser verifies an access token and returns the user id it names.
type AccessTokenParser interface {
	ParseAccess(token string) (string, error)
}

// VideoStore captures persistence for the video handlers.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	FindByIDWithOwner(ctx context.Context, id string) (models.VideoWithOwner, error)
	List(ctx context.Context, opts repositories.ListVideosOptions) (models.Page[models.VideoWithOwner], error)
	UpdateDetails(ctx context.Context, id, title, description, thumbnailURL, thumbnailKey string) (models.Video, error)
	SetPublished(ctx context.Context, id string, published bool) (models.Video, error)
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	ListLiked(ctx context.Context, userID string) ([]models.VideoWithOwner, error)
	AppendWatch(ctx context.Context, userID, videoID string) error
	WatchHistory(ctx context.Context, userID string) ([]models.VideoWithOwner, error)
}

// CommentStore captures persistence for the comment handlers.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListByVideo(ctx context.Context, videoID string, page, limit int64) (models.Page[models.CommentWithOwner], error)
	UpdateContent(ctx context.Context, id, content string) (models.Comment, error)
	Delete(ctx context.Context, id string) error
}

// TweetStore captures persistence for the tweet handlers.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Tweet, error)
	UpdateContent(ctx context.Context, id, content string) (models.Tweet, error)
	Delete(ctx context.Context, id string) error
}

// LikeStore toggles likes across the three likeable entity types.
type LikeStore interface {
	ToggleVideo(ctx context.Context, userID, videoID string) (bool, error)
	ToggleComment(ctx context.Context, userID, commentID string) (bool, error)
	ToggleTweet(ctx context.Context, userID, tweetID string) (bool, error)
}

// SubscriptionStore captures persistence for channel subscriptions.
type SubscriptionStore interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
	Subscribers(ctx context.Context, channelID string) ([]models.Subscriber, error)
	SubscribedTo(ctx context.Context, subscriberID string) ([]models.Subscriber, error)
}

// PlaylistStore captures persistence for the playlist handlers.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	FindByIDWithVideos(ctx context.Context, id string) (models.PlaylistWithVideos, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	UpdateDetails(ctx context.Context, id, name, description string) (models.Playlist, error)
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}

// StatsProvider computes dashboard statistics for a channel.
type StatsProvider interface {
	ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error)
}

// StatsInvalidator drops cached dashboard statistics for a channel after a
// mutation changes the underlying figures.
type StatsInvalidator interface {
	Invalidate(channelID string)
}

// MediaStorage persists uploaded files and returns their public locations.
type MediaStorage interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// MediaCleaner schedules best-effort deletion of replaced media objects.
type MediaCleaner interface {
	Enqueue(keys ...string)
}

// Pinger reports backing-store connectivity for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}
