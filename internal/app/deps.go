package app

import (
	"github.com/tweettube/backend/internal/auth"
	"github.com/tweettube/backend/internal/config"
	"github.com/tweettube/backend/internal/db"
	"github.com/tweettube/backend/internal/handlers"
	"github.com/tweettube/backend/internal/media"
	"github.com/tweettube/backend/internal/middleware"
	"github.com/tweettube/backend/internal/repositories"
	"github.com/tweettube/backend/internal/stats"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(pool db.Pool, cfg config.Config, storage handlers.MediaStorage, cleaner *media.Cleaner) (handlers.Dependencies, error) {
	tokens, err := auth.NewTokenIssuer(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		return handlers.Dependencies{}, err
	}

	sessionStore := repositories.NewPostgresSessionStore(pool)
	statsProvider := stats.NewCachingProvider(repositories.NewPostgresStatsRepository(pool), cfg.StatsCacheTTL)

	deps := handlers.Dependencies{
		Users:         repositories.NewPostgresUserRepository(pool),
		Sessions:      auth.NewManager(tokens, sessionStore),
		Tokens:        tokens,
		Videos:        repositories.NewPostgresVideoRepository(pool),
		Comments:      repositories.NewPostgresCommentRepository(pool),
		Tweets:        repositories.NewPostgresTweetRepository(pool),
		Likes:         repositories.NewPostgresLikeRepository(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		Playlists:     repositories.NewPostgresPlaylistRepository(pool),
		Stats:         statsProvider,
		StatsCache:    statsProvider,
		Storage:       storage,
		DB:            pool,
		AuthLimiter: middleware.NewIPRateLimiter(
			cfg.AuthRateLimit.Requests,
			cfg.AuthRateLimit.Window,
			cfg.AuthRateLimit.Burst,
			cfg.AuthRateLimit.TTL,
		),
	}

	if cleaner != nil {
		deps.Cleaner = cleaner
	}

	return deps, nil
}
