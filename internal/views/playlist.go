package views

import (
	"context"
	"fmt"
	"time"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// PlaylistView is a playlist with its video references resolved into full
// documents and its owner reduced to a minimal projection.
type PlaylistView struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Owner       models.UserRef `json:"owner"`
	Videos      []PlaylistItem `json:"videos"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// PlaylistItem is a resolved video inside a playlist view.
type PlaylistItem struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	VideoURL     string `json:"videoUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Views        int64  `json:"views"`
}

// Playlist resolves the playlist's video ids and owner. A missing playlist
// is ErrPlaylistNotFound; a video deleted since it was added is omitted.
func (a *Aggregator) Playlist(ctx context.Context, playlistID string) (PlaylistView, error) {
	ctx, span := logging.StartSpan(ctx, "views.Playlist")
	defer span.End()

	playlist, err := a.playlists.FindByID(ctx, playlistID)
	if err != nil {
		if recordGone(err) {
			return PlaylistView{}, ErrPlaylistNotFound
		}
		return PlaylistView{}, fmt.Errorf("find playlist %s: %w", playlistID, err)
	}

	view := PlaylistView{
		ID:          playlist.ID,
		Name:        playlist.Name,
		Description: playlist.Description,
		Videos:      make([]PlaylistItem, 0, len(playlist.VideoIDs)),
		CreatedAt:   playlist.CreatedAt,
	}

	owner, err := a.users.FindByID(ctx, playlist.OwnerID)
	if err != nil && !recordGone(err) {
		return PlaylistView{}, fmt.Errorf("resolve playlist owner %s: %w", playlist.OwnerID, err)
	}
	if err == nil {
		view.Owner = owner.Ref()
	}

	for _, videoID := range playlist.VideoIDs {
		video, err := a.videos.FindByID(ctx, videoID)
		if err != nil {
			if recordGone(err) {
				continue
			}
			return PlaylistView{}, fmt.Errorf("resolve playlist video %s: %w", videoID, err)
		}

		view.Videos = append(view.Videos, PlaylistItem{
			ID:           video.ID,
			Title:        video.Title,
			Description:  video.Description,
			VideoURL:     video.VideoURL,
			ThumbnailURL: video.ThumbnailURL,
			Views:        video.Views,
		})
	}

	return view, nil
}
