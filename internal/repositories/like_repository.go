package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tweettube/backend/internal/db"
)

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes on
// videos, comments, and tweets.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// ToggleVideo flips the user's like on a video and reports whether the like
// now exists.
func (r *PostgresLikeRepository) ToggleVideo(ctx context.Context, userID, videoID string) (bool, error) {
	return r.toggle(ctx, "video_id", userID, videoID)
}

// ToggleComment flips the user's like on a comment and reports whether the
// like now exists.
func (r *PostgresLikeRepository) ToggleComment(ctx context.Context, userID, commentID string) (bool, error) {
	return r.toggle(ctx, "comment_id", userID, commentID)
}

// ToggleTweet flips the user's like on a tweet and reports whether the like
// now exists.
func (r *PostgresLikeRepository) ToggleTweet(ctx context.Context, userID, tweetID string) (bool, error) {
	return r.toggle(ctx, "tweet_id", userID, tweetID)
}

// toggle removes an existing like or, when none exists, inserts one. The
// unique index on (liked_by, target) makes the insert a no-op when a
// concurrent request won the race; in that case a second delete settles the
// toggle as a removal.
func (r *PostgresLikeRepository) toggle(ctx context.Context, column, userID, targetID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	deleteSQL := fmt.Sprintf(`DELETE FROM likes WHERE liked_by = $1 AND %s = $2 RETURNING id`, column)

	var deleted string
	err = conn.QueryRow(ctx, deleteSQL, userID, targetID).Scan(&deleted)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("delete like: %w", err)
	}

	tag, err := conn.Exec(ctx, fmt.Sprintf(`
        INSERT INTO likes (id, liked_by, %s, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT DO NOTHING
    `, column), uuid.NewString(), userID, targetID, time.Now().UTC())
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("insert like: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	err = conn.QueryRow(ctx, deleteSQL, userID, targetID).Scan(&deleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("delete like: %w", err)
	}

	return false, nil
}
