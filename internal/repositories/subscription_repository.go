package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream/backend/internal/db"
)

// SubscriptionRepository persists the directed follow edges between users.
type SubscriptionRepository struct {
	pool db.Pool
}

// NewSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewSubscriptionRepository(pool db.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

// Create inserts a subscription edge. Duplicate pairs map to ErrConflict.
func (r *SubscriptionRepository) Create(ctx context.Context, subscriberID, channelID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO subscriptions (subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3)
    `, subscriberID, channelID, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert subscription: %w", err)
	}

	return nil
}

// Delete removes a subscription edge.
func (r *SubscriptionRepository) Delete(ctx context.Context, subscriberID, channelID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2
    `, subscriberID, channelID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Exists reports whether the edge (subscriber, channel) is present.
func (r *SubscriptionRepository) Exists(ctx context.Context, subscriberID, channelID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	row := conn.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2)
    `, subscriberID, channelID)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("check subscription: %w", err)
	}

	return exists, nil
}

// CountSubscribers counts edges pointing at the channel.
func (r *SubscriptionRepository) CountSubscribers(ctx context.Context, channelID string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1`, channelID)
}

// CountSubscribedTo counts edges originating from the subscriber.
func (r *SubscriptionRepository) CountSubscribedTo(ctx context.Context, subscriberID string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1`, subscriberID)
}

func (r *SubscriptionRepository) count(ctx context.Context, query, id string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var n int64
	if err := conn.QueryRow(ctx, query, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("count subscriptions: %w", err)
	}
	return n, nil
}
