package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/clipstream/backend/internal/db"
)

// HistoryRepository persists each user's ordered watch history.
type HistoryRepository struct {
	pool db.Pool
}

// NewHistoryRepository constructs a watch-history repository backed by PostgreSQL.
func NewHistoryRepository(pool db.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// Append records that the user watched the video now. Re-watching moves the
// video to the most-recent end of the sequence instead of duplicating it.
func (r *HistoryRepository) Append(ctx context.Context, userID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, position, watched_at)
        VALUES ($1, $2, (SELECT COALESCE(MAX(position), 0) + 1 FROM watch_history WHERE user_id = $1), $3)
        ON CONFLICT (user_id, video_id)
        DO UPDATE SET position = EXCLUDED.position, watched_at = EXCLUDED.watched_at
    `, userID, videoID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert watch history: %w", err)
	}

	return nil
}

// ListVideoIDs returns the user's watched video ids in append order,
// oldest first.
func (r *HistoryRepository) ListVideoIDs(ctx context.Context, userID string) ([]string, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT video_id FROM watch_history WHERE user_id = $1 ORDER BY position
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	var videoIDs []string
	for rows.Next() {
		var videoID string
		if err := rows.Scan(&videoID); err != nil {
			return nil, fmt.Errorf("scan watch history entry: %w", err)
		}
		videoIDs = append(videoIDs, videoID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return videoIDs, nil
}
