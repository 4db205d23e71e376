package repositories

import (
	"context"
	"fmt"

	"github.com/tweettube/backend/internal/db"
	"github.com/tweettube/backend/internal/models"
)

// PostgresStatsRepository aggregates per-channel dashboard figures.
type PostgresStatsRepository struct {
	pool db.Pool
}

// NewPostgresStatsRepository constructs a stats repository backed by PostgreSQL.
func NewPostgresStatsRepository(pool db.Pool) *PostgresStatsRepository {
	return &PostgresStatsRepository{pool: pool}
}

// ChannelStats computes totals for the channel in a single round trip.
// Like totals only count likes on the channel's videos, not on its comments
// or tweets.
func (r *PostgresStatsRepository) ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelStats{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var stats models.ChannelStats
	err = conn.QueryRow(ctx, `
        SELECT
            (SELECT COUNT(*) FROM videos WHERE owner_id = $1),
            (SELECT COALESCE(SUM(views), 0) FROM videos WHERE owner_id = $1),
            (SELECT COUNT(*) FROM likes l JOIN videos v ON v.id = l.video_id WHERE v.owner_id = $1),
            (SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1)
    `, channelID).Scan(&stats.TotalVideos, &stats.TotalViews, &stats.TotalLikes, &stats.TotalSubscribers)
	if err != nil {
		return models.ChannelStats{}, fmt.Errorf("query channel stats: %w", err)
	}

	return stats, nil
}
