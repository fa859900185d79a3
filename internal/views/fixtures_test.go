package views

import (
	"context"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// fixtureStore holds the raw collections; the per-collection adapter types
// below satisfy the reader interfaces so each view can be exercised without
// a database.
type fixtureStore struct {
	users     map[string]models.User
	videos    map[string]models.Video
	subs      []models.Subscription
	likes     []models.Like
	playlists map[string]models.Playlist
	history   map[string][]string
}

func newFixtureStore() *fixtureStore {
	return &fixtureStore{
		users:     make(map[string]models.User),
		videos:    make(map[string]models.Video),
		playlists: make(map[string]models.Playlist),
		history:   make(map[string][]string),
	}
}

func (s *fixtureStore) aggregator() *Aggregator {
	return NewAggregator(fixtureUsers{s}, fixtureVideos{s}, s, s, fixturePlaylists{s}, s)
}

type fixtureUsers struct{ s *fixtureStore }

func (f fixtureUsers) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := f.s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (f fixtureUsers) FindByUsername(_ context.Context, username string) (models.User, error) {
	for _, user := range f.s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

type fixtureVideos struct{ s *fixtureStore }

func (f fixtureVideos) FindByID(_ context.Context, id string) (models.Video, error) {
	video, ok := f.s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (f fixtureVideos) ListByOwner(_ context.Context, ownerID string) ([]models.Video, error) {
	var owned []models.Video
	for _, video := range f.s.videos {
		if video.OwnerID == ownerID {
			owned = append(owned, video)
		}
	}
	return owned, nil
}

type fixturePlaylists struct{ s *fixtureStore }

func (f fixturePlaylists) FindByID(_ context.Context, id string) (models.Playlist, error) {
	playlist, ok := f.s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	return playlist, nil
}

func (s *fixtureStore) CountSubscribers(_ context.Context, channelID string) (int64, error) {
	var n int64
	for _, sub := range s.subs {
		if sub.ChannelID == channelID {
			n++
		}
	}
	return n, nil
}

func (s *fixtureStore) CountSubscribedTo(_ context.Context, subscriberID string) (int64, error) {
	var n int64
	for _, sub := range s.subs {
		if sub.SubscriberID == subscriberID {
			n++
		}
	}
	return n, nil
}

func (s *fixtureStore) Exists(_ context.Context, subscriberID, channelID string) (bool, error) {
	for _, sub := range s.subs {
		if sub.SubscriberID == subscriberID && sub.ChannelID == channelID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fixtureStore) CountForVideos(_ context.Context, videoIDs []string) (int64, error) {
	wanted := make(map[string]struct{}, len(videoIDs))
	for _, id := range videoIDs {
		wanted[id] = struct{}{}
	}
	var n int64
	for _, like := range s.likes {
		if like.VideoID == "" {
			continue
		}
		if _, ok := wanted[like.VideoID]; ok {
			n++
		}
	}
	return n, nil
}

func (s *fixtureStore) ListVideoLikesByUser(_ context.Context, userID string) ([]models.Like, error) {
	var likes []models.Like
	for _, like := range s.likes {
		if like.UserID == userID && like.VideoID != "" {
			likes = append(likes, like)
		}
	}
	return likes, nil
}

func (s *fixtureStore) ListVideoIDs(_ context.Context, userID string) ([]string, error) {
	return s.history[userID], nil
}
