package handlers

import (
	"context"
	"io"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/views"
)

// UserStore captures the persistence operations required by the account handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByUsername(ctx context.Context, username string) (models.User, error)
	UpdateProfile(ctx context.Context, userID, fullName, email string) error
	SetAvatarURL(ctx context.Context, userID, url string) error
	SetCoverImageURL(ctx context.Context, userID, url string) error
}

// SessionService drives the authentication lifecycle for the auth handlers.
type SessionService interface {
	Login(ctx context.Context, identifier, password string) (auth.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Logout(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
}

// VideoStore captures persistence for video publishing and playback.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	IncrementViews(ctx context.Context, id string) error
}

// SubscriptionStore maintains the follow edges between viewers and channels.
type SubscriptionStore interface {
	Create(ctx context.Context, subscriberID, channelID string) error
	Delete(ctx context.Context, subscriberID, channelID string) error
	Exists(ctx context.Context, subscriberID, channelID string) (bool, error)
}

// LikeStore toggles like edges for the supported target kinds.
type LikeStore interface {
	Toggle(ctx context.Context, userID, targetKind, targetID string) (bool, error)
}

// PlaylistStore captures persistence for playlist membership management.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
	Delete(ctx context.Context, id string) error
}

// HistoryStore records playback events for authenticated viewers.
type HistoryStore interface {
	Append(ctx context.Context, userID, videoID string) error
}

// ViewAggregator resolves the read-only composite projections.
type ViewAggregator interface {
	ChannelStats(ctx context.Context, channelID string) (views.ChannelStats, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (views.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]views.HistoryEntry, error)
	Playlist(ctx context.Context, playlistID string) (views.PlaylistView, error)
	LikedVideos(ctx context.Context, userID string) ([]views.LikedVideo, error)
}

// ImageStore persists uploaded assets and returns their public location.
type ImageStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}
