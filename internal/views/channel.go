package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/clipstream/backend/internal/logging"
)

// ChannelStats summarizes a channel's reach across its uploaded videos.
type ChannelStats struct {
	TotalViews       int64 `json:"totalViews"`
	TotalSubscribers int64 `json:"totalSubscribers"`
	TotalVideos      int64 `json:"totalVideos"`
	TotalLikes       int64 `json:"totalLikes"`
}

// ChannelProfile is the viewer-relative channel page projection.
type ChannelProfile struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	FullName          string `json:"fullName"`
	Email             string `json:"email"`
	AvatarURL         string `json:"avatarUrl"`
	CoverImageURL     string `json:"coverImageUrl,omitempty"`
	SubscriberCount   int64  `json:"subscriberCount"`
	SubscribedToCount int64  `json:"subscribedToCount"`
	IsSubscribed      bool   `json:"isSubscribed"`
}

// ChannelStats sums views, counts subscribers, videos, and likes across the
// channel's uploads. A channel that owns no videos is reported as not found
// rather than as zero stats.
func (a *Aggregator) ChannelStats(ctx context.Context, channelID string) (ChannelStats, error) {
	ctx, span := logging.StartSpan(ctx, "views.ChannelStats")
	defer span.End()

	ownedVideos, err := a.videos.ListByOwner(ctx, channelID)
	if err != nil {
		return ChannelStats{}, fmt.Errorf("list channel videos: %w", err)
	}
	if len(ownedVideos) == 0 {
		return ChannelStats{}, ErrChannelNotFound
	}

	stats := ChannelStats{TotalVideos: int64(len(ownedVideos))}
	videoIDs := make([]string, 0, len(ownedVideos))
	for _, video := range ownedVideos {
		stats.TotalViews += video.Views
		videoIDs = append(videoIDs, video.ID)
	}

	subscribers, err := a.subs.CountSubscribers(ctx, channelID)
	if err != nil {
		return ChannelStats{}, fmt.Errorf("count subscribers: %w", err)
	}
	stats.TotalSubscribers = subscribers

	likes, err := a.likes.CountForVideos(ctx, videoIDs)
	if err != nil {
		return ChannelStats{}, fmt.Errorf("count video likes: %w", err)
	}
	stats.TotalLikes = likes

	return stats, nil
}

// ChannelProfile joins subscription edges in both directions around the
// channel and computes IsSubscribed relative to the viewer. An empty
// viewerID means an anonymous viewer and always yields IsSubscribed=false.
func (a *Aggregator) ChannelProfile(ctx context.Context, username, viewerID string) (ChannelProfile, error) {
	ctx, span := logging.StartSpan(ctx, "views.ChannelProfile")
	defer span.End()

	username = strings.ToLower(strings.TrimSpace(username))
	channel, err := a.users.FindByUsername(ctx, username)
	if err != nil {
		if recordGone(err) {
			return ChannelProfile{}, ErrChannelNotFound
		}
		return ChannelProfile{}, fmt.Errorf("find channel %q: %w", username, err)
	}

	profile := ChannelProfile{
		ID:            channel.ID,
		Username:      channel.Username,
		FullName:      channel.FullName,
		Email:         channel.Email,
		AvatarURL:     channel.AvatarURL,
		CoverImageURL: channel.CoverImageURL,
	}

	profile.SubscriberCount, err = a.subs.CountSubscribers(ctx, channel.ID)
	if err != nil {
		return ChannelProfile{}, fmt.Errorf("count subscribers: %w", err)
	}

	profile.SubscribedToCount, err = a.subs.CountSubscribedTo(ctx, channel.ID)
	if err != nil {
		return ChannelProfile{}, fmt.Errorf("count subscribed-to: %w", err)
	}

	if viewerID != "" {
		profile.IsSubscribed, err = a.subs.Exists(ctx, viewerID, channel.ID)
		if err != nil {
			return ChannelProfile{}, fmt.Errorf("check viewer subscription: %w", err)
		}
	}

	return profile, nil
}
