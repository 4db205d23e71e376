package models

import "time"

// User represents an account within the TweetTube platform. A user doubles
// as a channel: other users subscribe to it and its videos hang off it.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	Avatar        string    `json:"avatar,omitempty"`
	AvatarKey     string    `json:"-"`
	CoverImage    string    `json:"coverImage,omitempty"`
	CoverImageKey string    `json:"-"`
	Password      string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PublicProfile strips a user down to the fields safe to inline in responses.
func (u User) PublicProfile() OwnerProfile {
	return OwnerProfile{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Avatar:   u.Avatar,
	}
}

// OwnerProfile is the public projection of a user inlined into owned resources.
type OwnerProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar,omitempty"`
}

// Video stores an uploaded video along with its remote media references.
type Video struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	VideoFile    string    `json:"videoFile"`
	VideoFileKey string    `json:"-"`
	Thumbnail    string    `json:"thumbnail"`
	ThumbnailKey string    `json:"-"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	IsPublished  bool      `json:"isPublished"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// VideoWithOwner is a video joined with its owner's public profile.
type VideoWithOwner struct {
	Video
	Owner OwnerProfile `json:"owner"`
}

// Comment is a text reaction attached to a video.
type Comment struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	VideoID   string    `json:"videoId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CommentWithOwner is a comment joined with its author's public profile.
type CommentWithOwner struct {
	Comment
	Owner OwnerProfile `json:"owner"`
}

// Tweet is a standalone text post by a user.
type Tweet struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Playlist groups an ordered set of videos owned by a single user.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PlaylistWithVideos resolves a playlist's video references in stored order.
type PlaylistWithVideos struct {
	Playlist
	Videos []Video `json:"videos"`
}

// ChannelProfile is the public view of a user as a followable channel.
type ChannelProfile struct {
	OwnerProfile
	CoverImage        string `json:"coverImage,omitempty"`
	SubscriberCount   int64  `json:"subscriberCount"`
	SubscribedToCount int64  `json:"subscribedToCount"`
	IsSubscribed      bool   `json:"isSubscribed"`
}

// ChannelStats summarizes a channel for its dashboard.
type ChannelStats struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalLikes       int64 `json:"totalLikes"`
	TotalSubscribers int64 `json:"totalSubscribers"`
}

// Subscriber is the projection returned by the channel subscriber listings.
type Subscriber struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar,omitempty"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// Page wraps a single page of a listing together with its count metadata.
// TotalPages is ceil(TotalCount/limit); requesting a page past the end yields
// an empty Items slice, not an error.
type Page[T any] struct {
	Items       []T   `json:"items"`
	TotalCount  int64 `json:"totalCount"`
	TotalPages  int64 `json:"totalPages"`
	CurrentPage int64 `json:"currentPage"`
}
