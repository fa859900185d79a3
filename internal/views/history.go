package views

import (
	"context"
	"fmt"
	"time"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// HistoryEntry is a watched video joined with its owner's minimal projection.
type HistoryEntry struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	VideoURL     string         `json:"videoUrl"`
	ThumbnailURL string         `json:"thumbnailUrl"`
	Views        int64          `json:"views"`
	Owner        models.UserRef `json:"owner"`
}

// LikedVideo is the minimal projection of a like edge joined to its video.
type LikedVideo struct {
	LikeID       string    `json:"likeId"`
	VideoID      string    `json:"videoId"`
	Title        string    `json:"title"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	LikedAt      time.Time `json:"likedAt"`
}

// WatchHistory resolves the user's ordered video-id sequence into full video
// documents with owner projections, a two-level join. Stored ordering is
// preserved; ids whose video or owner has since been deleted are omitted.
func (a *Aggregator) WatchHistory(ctx context.Context, userID string) ([]HistoryEntry, error) {
	ctx, span := logging.StartSpan(ctx, "views.WatchHistory")
	defer span.End()

	videoIDs, err := a.history.ListVideoIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list watch history: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(videoIDs))
	for _, videoID := range videoIDs {
		video, err := a.videos.FindByID(ctx, videoID)
		if err != nil {
			if recordGone(err) {
				continue
			}
			return nil, fmt.Errorf("resolve history video %s: %w", videoID, err)
		}

		owner, err := a.users.FindByID(ctx, video.OwnerID)
		if err != nil {
			if recordGone(err) {
				continue
			}
			return nil, fmt.Errorf("resolve video owner %s: %w", video.OwnerID, err)
		}

		entries = append(entries, HistoryEntry{
			ID:           video.ID,
			Title:        video.Title,
			Description:  video.Description,
			VideoURL:     video.VideoURL,
			ThumbnailURL: video.ThumbnailURL,
			Views:        video.Views,
			Owner:        owner.Ref(),
		})
	}

	return entries, nil
}

// LikedVideos selects the user's like edges whose target is a video and
// joins each to its video document. Likes on deleted videos are omitted.
func (a *Aggregator) LikedVideos(ctx context.Context, userID string) ([]LikedVideo, error) {
	ctx, span := logging.StartSpan(ctx, "views.LikedVideos")
	defer span.End()

	likes, err := a.likes.ListVideoLikesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list video likes: %w", err)
	}

	liked := make([]LikedVideo, 0, len(likes))
	for _, like := range likes {
		video, err := a.videos.FindByID(ctx, like.VideoID)
		if err != nil {
			if recordGone(err) {
				continue
			}
			return nil, fmt.Errorf("resolve liked video %s: %w", like.VideoID, err)
		}

		liked = append(liked, LikedVideo{
			LikeID:       like.ID,
			VideoID:      video.ID,
			Title:        video.Title,
			ThumbnailURL: video.ThumbnailURL,
			LikedAt:      like.CreatedAt,
		})
	}

	return liked, nil
}
