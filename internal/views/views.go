// Package views builds denormalized, read-only projections by joining the
// user, video, subscription, like, and playlist collections at query time.
// Nothing here is persisted and nothing here writes; a join step that finds
// a dangling reference omits it from the result instead of failing the view.
package views

import (
	"context"
	"errors"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

var (
	// ErrChannelNotFound indicates the channel does not exist or owns no videos.
	ErrChannelNotFound = errors.New("channel not found")
	// ErrPlaylistNotFound indicates the playlist id does not exist.
	ErrPlaylistNotFound = errors.New("playlist not found")
)

// UserReader resolves user records for joins.
type UserReader interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
}

// VideoReader resolves video records for joins.
type VideoReader interface {
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
}

// SubscriptionReader exposes the subscription-edge queries the views need.
type SubscriptionReader interface {
	CountSubscribers(ctx context.Context, channelID string) (int64, error)
	CountSubscribedTo(ctx context.Context, subscriberID string) (int64, error)
	Exists(ctx context.Context, subscriberID, channelID string) (bool, error)
}

// LikeReader exposes the like-edge queries the views need.
type LikeReader interface {
	CountForVideos(ctx context.Context, videoIDs []string) (int64, error)
	ListVideoLikesByUser(ctx context.Context, userID string) ([]models.Like, error)
}

// PlaylistReader resolves playlist records for joins.
type PlaylistReader interface {
	FindByID(ctx context.Context, id string) (models.Playlist, error)
}

// HistoryReader returns a user's watch history ids in stored order.
type HistoryReader interface {
	ListVideoIDs(ctx context.Context, userID string) ([]string, error)
}

// Aggregator composes the reader interfaces into the derived views. All
// operations are side-effect-free and safe to run concurrently with writes;
// the result reflects whatever each sub-read observed.
type Aggregator struct {
	users     UserReader
	videos    VideoReader
	subs      SubscriptionReader
	likes     LikeReader
	playlists PlaylistReader
	history   HistoryReader
}

// NewAggregator wires the aggregator with its collection readers.
func NewAggregator(users UserReader, videos VideoReader, subs SubscriptionReader, likes LikeReader, playlists PlaylistReader, history HistoryReader) *Aggregator {
	return &Aggregator{
		users:     users,
		videos:    videos,
		subs:      subs,
		likes:     likes,
		playlists: playlists,
		history:   history,
	}
}

// recordGone reports whether the error marks a reference deleted between
// two join steps, which is treated as "omit from result" rather than a
// failure of the whole view.
func recordGone(err error) bool {
	return errors.Is(err, repositories.ErrNotFound)
}
