package handlers

import "net/http"

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Tokens        AccessTokenParser
	Videos        VideoStore
	Comments      CommentStore
	Tweets        TweetStore
	Likes         LikeStore
	Subscriptions SubscriptionStore
	Playlists     PlaylistStore
	Stats         StatsProvider
	StatsCache    StatsInvalidator
	Storage       MediaStorage
	Cleaner       MediaCleaner
	DB            Pinger
	AuthLimiter   RateLimiter
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	authn := Authenticator{Tokens: deps.Tokens, Users: deps.Users}

	health := HealthHandler{DB: deps.DB}
	users := UserHandler{
		Users:    deps.Users,
		Sessions: deps.Sessions,
		Videos:   deps.Videos,
		Storage:  deps.Storage,
		Cleaner:  deps.Cleaner,
		Limiter:  deps.AuthLimiter,
	}
	videos := VideoHandler{Videos: deps.Videos, Storage: deps.Storage, Cleaner: deps.Cleaner, Stats: deps.StatsCache}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos}
	tweets := TweetHandler{Tweets: deps.Tweets, Users: deps.Users}
	likes := LikeHandler{Likes: deps.Likes, Videos: deps.Videos}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions, Users: deps.Users, Stats: deps.StatsCache}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Videos: deps.Videos, Users: deps.Users}
	dashboard := DashboardHandler{Stats: deps.Stats, Videos: deps.Videos}

	mux.HandleFunc("GET /healthz", health.Handle)
	mux.HandleFunc("GET /api/v1/healthcheck", health.Handle)

	mux.HandleFunc("POST /api/v1/users/register", users.Register)
	mux.HandleFunc("POST /api/v1/users/login", users.Login)
	mux.HandleFunc("POST /api/v1/users/logout", authn.Require(users.Logout))
	mux.HandleFunc("POST /api/v1/users/refresh-token", users.RefreshToken)
	mux.HandleFunc("PATCH /api/v1/users/change-password", authn.Require(users.ChangePassword))
	mux.HandleFunc("GET /api/v1/users/me", authn.Require(users.CurrentUser))
	mux.HandleFunc("PATCH /api/v1/users/me", authn.Require(users.UpdateAccount))
	mux.HandleFunc("PATCH /api/v1/users/me/avatar", authn.Require(users.UpdateAvatar))
	mux.HandleFunc("PATCH /api/v1/users/me/cover-image", authn.Require(users.UpdateCoverImage))
	mux.HandleFunc("GET /api/v1/users/channel/{username}", authn.Optional(users.Channel))
	mux.HandleFunc("GET /api/v1/users/history", authn.Require(users.WatchHistory))

	mux.HandleFunc("GET /api/v1/videos", videos.List)
	mux.HandleFunc("POST /api/v1/videos", authn.Require(videos.Publish))
	mux.HandleFunc("GET /api/v1/videos/{videoId}", authn.Optional(videos.Get))
	mux.HandleFunc("PATCH /api/v1/videos/{videoId}", authn.Require(videos.Update))
	mux.HandleFunc("DELETE /api/v1/videos/{videoId}", authn.Require(videos.Delete))
	mux.HandleFunc("PATCH /api/v1/videos/{videoId}/publish", authn.Require(videos.TogglePublish))

	mux.HandleFunc("GET /api/v1/comments/{videoId}", comments.ListForVideo)
	mux.HandleFunc("POST /api/v1/comments/{videoId}", authn.Require(comments.Create))
	mux.HandleFunc("PATCH /api/v1/comments/c/{commentId}", authn.Require(comments.Update))
	mux.HandleFunc("DELETE /api/v1/comments/c/{commentId}", authn.Require(comments.Delete))

	mux.HandleFunc("POST /api/v1/tweets", authn.Require(tweets.Create))
	mux.HandleFunc("GET /api/v1/tweets/user/{userId}", tweets.ListForUser)
	mux.HandleFunc("PATCH /api/v1/tweets/{tweetId}", authn.Require(tweets.Update))
	mux.HandleFunc("DELETE /api/v1/tweets/{tweetId}", authn.Require(tweets.Delete))

	mux.HandleFunc("POST /api/v1/likes/toggle/video/{videoId}", authn.Require(likes.ToggleVideo))
	mux.HandleFunc("POST /api/v1/likes/toggle/comment/{commentId}", authn.Require(likes.ToggleComment))
	mux.HandleFunc("POST /api/v1/likes/toggle/tweet/{tweetId}", authn.Require(likes.ToggleTweet))
	mux.HandleFunc("GET /api/v1/likes/videos", authn.Require(likes.LikedVideos))

	mux.HandleFunc("POST /api/v1/subscriptions/channel/{channelId}", authn.Require(subscriptions.Toggle))
	mux.HandleFunc("GET /api/v1/subscriptions/channel/{channelId}", subscriptions.Subscribers)
	mux.HandleFunc("GET /api/v1/subscriptions/user/{userId}", subscriptions.SubscribedChannels)
	mux.HandleFunc("GET /api/v1/subscriptions/me", authn.Require(subscriptions.SubscribedTo))

	mux.HandleFunc("POST /api/v1/playlists", authn.Require(playlists.Create))
	mux.HandleFunc("GET /api/v1/playlists/{playlistId}", playlists.Get)
	mux.HandleFunc("GET /api/v1/playlists/user/{userId}", playlists.ListForUser)
	mux.HandleFunc("PATCH /api/v1/playlists/{playlistId}", authn.Require(playlists.Update))
	mux.HandleFunc("DELETE /api/v1/playlists/{playlistId}", authn.Require(playlists.Delete))
	mux.HandleFunc("POST /api/v1/playlists/{playlistId}/videos/{videoId}", authn.Require(playlists.AddVideo))
	mux.HandleFunc("DELETE /api/v1/playlists/{playlistId}/videos/{videoId}", authn.Require(playlists.RemoveVideo))

	mux.HandleFunc("GET /api/v1/dashboard/stats", authn.Require(dashboard.ChannelStats))
	mux.HandleFunc("GET /api/v1/dashboard/videos", authn.Require(dashboard.ChannelVideos))
}
