package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tweettube/backend/internal/db"
	"github.com/tweettube/backend/internal/models"
)

// ErrSelfSubscription is returned when a user tries to subscribe to their own
// channel.
var ErrSelfSubscription = errors.New("repositories: cannot subscribe to own channel")

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for
// channel subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository
// backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Toggle flips the subscriber's subscription to the channel and reports
// whether the subscription now exists. The unique pair constraint settles
// concurrent toggles the same way the like toggle does.
func (r *PostgresSubscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	if subscriberID == channelID {
		return false, ErrSelfSubscription
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	const deleteSQL = `DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2 RETURNING id`

	var deleted string
	err = conn.QueryRow(ctx, deleteSQL, subscriberID, channelID).Scan(&deleted)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("delete subscription: %w", err)
	}

	tag, err := conn.Exec(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT DO NOTHING
    `, uuid.NewString(), subscriberID, channelID, time.Now().UTC())
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("insert subscription: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	err = conn.QueryRow(ctx, deleteSQL, subscriberID, channelID).Scan(&deleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("delete subscription: %w", err)
	}

	return false, nil
}

// Subscribers lists the users subscribed to the channel, newest first.
func (r *PostgresSubscriptionRepository) Subscribers(ctx context.Context, channelID string) ([]models.Subscriber, error) {
	return r.listProfiles(ctx, `
        SELECT u.username, u.full_name, u.avatar
        FROM subscriptions s
        JOIN users u ON u.id = s.subscriber_id
        WHERE s.channel_id = $1
        ORDER BY s.created_at DESC
    `, channelID)
}

// SubscribedTo lists the channels the user is subscribed to, newest first.
func (r *PostgresSubscriptionRepository) SubscribedTo(ctx context.Context, subscriberID string) ([]models.Subscriber, error) {
	return r.listProfiles(ctx, `
        SELECT u.username, u.full_name, u.avatar
        FROM subscriptions s
        JOIN users u ON u.id = s.channel_id
        WHERE s.subscriber_id = $1
        ORDER BY s.created_at DESC
    `, subscriberID)
}

func (r *PostgresSubscriptionRepository) listProfiles(ctx context.Context, query, id string) ([]models.Subscriber, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	profiles := []models.Subscriber{}
	for rows.Next() {
		var s models.Subscriber
		if err := rows.Scan(&s.Username, &s.FullName, &s.Avatar); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		profiles = append(profiles, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}

	return profiles, nil
}
