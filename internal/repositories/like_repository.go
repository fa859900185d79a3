package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

// LikeRepository persists like edges. Exactly one target column is set per
// row; the row's presence is the liked state.
type LikeRepository struct {
	pool db.Pool
}

// NewLikeRepository constructs a like repository backed by PostgreSQL.
func NewLikeRepository(pool db.Pool) *LikeRepository {
	return &LikeRepository{pool: pool}
}

// targetColumn maps a like target kind to its column name. The queries
// below interpolate only these fixed strings, never caller input.
func targetColumn(kind string) (string, error) {
	switch kind {
	case models.LikeTargetVideo:
		return "video_id", nil
	case models.LikeTargetComment:
		return "comment_id", nil
	case models.LikeTargetTweet:
		return "tweet_id", nil
	default:
		return "", fmt.Errorf("unknown like target %q", kind)
	}
}

// Toggle flips the liked state for (user, target): it deletes the edge when
// present and creates it when absent. It reports whether the target is
// liked after the call.
func (r *LikeRepository) Toggle(ctx context.Context, userID, targetKind, targetID string) (bool, error) {
	column, err := targetColumn(targetKind)
	if err != nil {
		return false, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM likes WHERE user_id = $1 AND `+column+` = $2
    `, userID, targetID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO likes (id, user_id, `+column+`, created_at)
        VALUES ($1, $2, $3, $4)
    `, uuid.NewString(), userID, targetID, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				// A concurrent toggle won the insert; the edge exists.
				return true, nil
			case "23503":
				return false, ErrNotFound
			}
		}
		return false, fmt.Errorf("insert like: %w", err)
	}

	return true, nil
}

// CountForVideos counts like edges whose video target is in the given set.
func (r *LikeRepository) CountForVideos(ctx context.Context, videoIDs []string) (int64, error) {
	if len(videoIDs) == 0 {
		return 0, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var n int64
	row := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM likes WHERE video_id = ANY($1)
    `, videoIDs)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count video likes: %w", err)
	}

	return n, nil
}

// ListVideoLikesByUser returns the user's like edges whose target is a
// video, newest first.
func (r *LikeRepository) ListVideoLikesByUser(ctx context.Context, userID string) ([]models.Like, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, user_id, video_id, comment_id, tweet_id, created_at
        FROM likes
        WHERE user_id = $1 AND video_id IS NOT NULL
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query video likes: %w", err)
	}
	defer rows.Close()

	var likes []models.Like
	for rows.Next() {
		like, err := scanLike(rows)
		if err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		likes = append(likes, like)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate likes: %w", err)
	}

	return likes, nil
}

// Find returns the like edge for (user, target) if present.
func (r *LikeRepository) Find(ctx context.Context, userID, targetKind, targetID string) (models.Like, error) {
	column, err := targetColumn(targetKind)
	if err != nil {
		return models.Like{}, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Like{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, user_id, video_id, comment_id, tweet_id, created_at
        FROM likes
        WHERE user_id = $1 AND `+column+` = $2
    `, userID, targetID)

	like, err := scanLike(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Like{}, ErrNotFound
		}
		return models.Like{}, fmt.Errorf("select like: %w", err)
	}

	return like, nil
}

func scanLike(row rowScanner) (models.Like, error) {
	var (
		like      models.Like
		videoID   sql.NullString
		commentID sql.NullString
		tweetID   sql.NullString
	)
	if err := row.Scan(&like.ID, &like.UserID, &videoID, &commentID, &tweetID, &like.CreatedAt); err != nil {
		return models.Like{}, err
	}
	like.VideoID = videoID.String
	like.CommentID = commentID.String
	like.TweetID = tweetID.String
	return like, nil
}
