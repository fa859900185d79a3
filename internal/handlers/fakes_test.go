package handlers

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/views"
)

// fakeUserStore backs both the handler-facing user operations and the
// credential lookups of the session manager.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]models.User)}
}

func (s *fakeUserStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *fakeUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *fakeUserStore) FindByIdentifier(_ context.Context, identifier string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == identifier || user.Email == identifier {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *fakeUserStore) SetRefreshToken(_ context.Context, userID, token string) error {
	return s.mutate(userID, func(u *models.User) { u.RefreshToken = token })
}

func (s *fakeUserStore) SetPasswordHash(_ context.Context, userID, hash string) error {
	return s.mutate(userID, func(u *models.User) { u.PasswordHash = hash })
}

func (s *fakeUserStore) SetAvatarURL(_ context.Context, userID, url string) error {
	return s.mutate(userID, func(u *models.User) { u.AvatarURL = url })
}

func (s *fakeUserStore) SetCoverImageURL(_ context.Context, userID, url string) error {
	return s.mutate(userID, func(u *models.User) { u.CoverImageURL = url })
}

func (s *fakeUserStore) UpdateProfile(_ context.Context, userID, fullName, email string) error {
	return s.mutate(userID, func(u *models.User) {
		u.FullName = fullName
		u.Email = email
	})
}

func (s *fakeUserStore) mutate(userID string, apply func(*models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	apply(&user)
	s.users[userID] = user
	return nil
}

type fakeVideoStore struct {
	mu     sync.Mutex
	videos map[string]models.Video
}

func newFakeVideoStore() *fakeVideoStore {
	return &fakeVideoStore{videos: make(map[string]models.Video)}
}

func (s *fakeVideoStore) Create(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[video.ID] = video
	return nil
}

func (s *fakeVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *fakeVideoStore) ListByOwner(_ context.Context, ownerID string) ([]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var owned []models.Video
	for _, video := range s.videos {
		if video.OwnerID == ownerID {
			owned = append(owned, video)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt.After(owned[j].CreatedAt) })
	return owned, nil
}

func (s *fakeVideoStore) IncrementViews(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Views++
	s.videos[id] = video
	return nil
}

type subKey struct{ subscriber, channel string }

type fakeSubscriptionStore struct {
	mu    sync.Mutex
	edges map[subKey]struct{}
}

func newFakeSubscriptionStore() *fakeSubscriptionStore {
	return &fakeSubscriptionStore{edges: make(map[subKey]struct{})}
}

func (s *fakeSubscriptionStore) Create(_ context.Context, subscriberID, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := subKey{subscriberID, channelID}
	if _, ok := s.edges[key]; ok {
		return repositories.ErrConflict
	}
	s.edges[key] = struct{}{}
	return nil
}

func (s *fakeSubscriptionStore) Delete(_ context.Context, subscriberID, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.edges, subKey{subscriberID, channelID})
	return nil
}

func (s *fakeSubscriptionStore) Exists(_ context.Context, subscriberID, channelID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.edges[subKey{subscriberID, channelID}]
	return ok, nil
}

func (s *fakeSubscriptionStore) CountSubscribers(_ context.Context, channelID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key := range s.edges {
		if key.channel == channelID {
			n++
		}
	}
	return n, nil
}

func (s *fakeSubscriptionStore) CountSubscribedTo(_ context.Context, subscriberID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key := range s.edges {
		if key.subscriber == subscriberID {
			n++
		}
	}
	return n, nil
}

type fakeLikeStore struct {
	mu    sync.Mutex
	likes []models.Like
}

func newFakeLikeStore() *fakeLikeStore {
	return &fakeLikeStore{}
}

func (s *fakeLikeStore) Toggle(_ context.Context, userID, targetKind, targetID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, like := range s.likes {
		if like.UserID == userID && s.target(like) == targetKind+":"+targetID {
			s.likes = append(s.likes[:i], s.likes[i+1:]...)
			return false, nil
		}
	}
	like := models.Like{ID: uuid.NewString(), UserID: userID, CreatedAt: time.Now()}
	switch targetKind {
	case models.LikeTargetVideo:
		like.VideoID = targetID
	case models.LikeTargetComment:
		like.CommentID = targetID
	case models.LikeTargetTweet:
		like.TweetID = targetID
	}
	s.likes = append(s.likes, like)
	return true, nil
}

func (s *fakeLikeStore) target(like models.Like) string {
	switch {
	case like.VideoID != "":
		return models.LikeTargetVideo + ":" + like.VideoID
	case like.CommentID != "":
		return models.LikeTargetComment + ":" + like.CommentID
	default:
		return models.LikeTargetTweet + ":" + like.TweetID
	}
}

func (s *fakeLikeStore) CountForVideos(_ context.Context, videoIDs []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make(map[string]struct{}, len(videoIDs))
	for _, id := range videoIDs {
		ids[id] = struct{}{}
	}
	var n int64
	for _, like := range s.likes {
		if _, ok := ids[like.VideoID]; ok && like.VideoID != "" {
			n++
		}
	}
	return n, nil
}

func (s *fakeLikeStore) ListVideoLikesByUser(_ context.Context, userID string) ([]models.Like, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Like
	for _, like := range s.likes {
		if like.UserID == userID && like.VideoID != "" {
			out = append(out, like)
		}
	}
	return out, nil
}

type fakePlaylistStore struct {
	mu        sync.Mutex
	playlists map[string]models.Playlist
}

func newFakePlaylistStore() *fakePlaylistStore {
	return &fakePlaylistStore{playlists: make(map[string]models.Playlist)}
}

func (s *fakePlaylistStore) Create(_ context.Context, playlist models.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playlists[playlist.ID] = playlist
	return nil
}

func (s *fakePlaylistStore) FindByID(_ context.Context, id string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	return playlist, nil
}

func (s *fakePlaylistStore) ListByOwner(_ context.Context, ownerID string) ([]models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var owned []models.Playlist
	for _, playlist := range s.playlists {
		if playlist.OwnerID == ownerID {
			owned = append(owned, playlist)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt.Before(owned[j].CreatedAt) })
	return owned, nil
}

func (s *fakePlaylistStore) AddVideo(_ context.Context, playlistID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	playlist, ok := s.playlists[playlistID]
	if !ok {
		return repositories.ErrNotFound
	}
	for _, id := range playlist.VideoIDs {
		if id == videoID {
			return repositories.ErrConflict
		}
	}
	playlist.VideoIDs = append(playlist.VideoIDs, videoID)
	s.playlists[playlistID] = playlist
	return nil
}

func (s *fakePlaylistStore) RemoveVideo(_ context.Context, playlistID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	playlist, ok := s.playlists[playlistID]
	if !ok {
		return repositories.ErrNotFound
	}
	for i, id := range playlist.VideoIDs {
		if id == videoID {
			playlist.VideoIDs = append(playlist.VideoIDs[:i], playlist.VideoIDs[i+1:]...)
			s.playlists[playlistID] = playlist
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (s *fakePlaylistStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.playlists[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.playlists, id)
	return nil
}

type fakeHistoryStore struct {
	mu      sync.Mutex
	watched map[string][]string
}

func newFakeHistoryStore() *fakeHistoryStore {
	return &fakeHistoryStore{watched: make(map[string][]string)}
}

func (s *fakeHistoryStore) Append(_ context.Context, userID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.watched[userID]
	for i, id := range ids {
		if id == videoID {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	s.watched[userID] = append(ids, videoID)
	return nil
}

func (s *fakeHistoryStore) ListVideoIDs(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.watched[userID]...), nil
}

// fakeImageStore records saved keys and returns deterministic URLs.
type fakeImageStore struct {
	mu    sync.Mutex
	saved []string
}

func (s *fakeImageStore) Save(_ context.Context, name string, _ io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, name)
	return "https://cdn.example.com/" + strings.TrimLeft(name, "/"), nil
}

// testEnv bundles the wired mux with the fakes behind it.
type testEnv struct {
	mux       *http.ServeMux
	users     *fakeUserStore
	videos    *fakeVideoStore
	subs      *fakeSubscriptionStore
	likes     *fakeLikeStore
	playlists *fakePlaylistStore
	history   *fakeHistoryStore
	images    *fakeImageStore
	sessions  *auth.Manager
	codec     *auth.Codec
	hasher    auth.PasswordHasher
}

func newTestEnv() *testEnv {
	env := &testEnv{
		users:     newFakeUserStore(),
		videos:    newFakeVideoStore(),
		subs:      newFakeSubscriptionStore(),
		likes:     newFakeLikeStore(),
		playlists: newFakePlaylistStore(),
		history:   newFakeHistoryStore(),
		images:    &fakeImageStore{},
	}

	env.codec = auth.NewCodec("access-secret-0123456789abcdef", "refresh-secret-0123456789abcdef", 15*time.Minute, 24*time.Hour)
	env.hasher = auth.NewBcryptHasher(bcrypt.MinCost)
	env.sessions = auth.NewManager(env.codec, env.users, env.hasher)

	aggregator := views.NewAggregator(env.users, env.videos, env.subs, env.likes, env.playlists, env.history)

	env.mux = http.NewServeMux()
	RegisterRoutes(env.mux, Dependencies{
		Users:         env.users,
		Sessions:      env.sessions,
		Passwords:     env.hasher,
		Videos:        env.videos,
		Subscriptions: env.subs,
		Likes:         env.likes,
		Playlists:     env.playlists,
		History:       env.history,
		Views:         aggregator,
		Images:        env.images,
		RequireAuth:   middleware.RequireAuth(env.codec, env.users),
		OptionalAuth:  middleware.OptionalAuth(env.codec, env.users),
	})

	return env
}

// seedUser creates an account directly in the store and returns it with the
// plaintext password preserved for login calls.
func (env *testEnv) seedUser(username, password string) models.User {
	hash, err := env.hasher.Hash(password)
	if err != nil {
		panic(err)
	}
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		FullName:     strings.ToUpper(username[:1]) + username[1:],
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := env.users.Create(context.Background(), user); err != nil {
		panic(err)
	}
	return user
}

// seedPlaylist creates a playlist directly in the store.
func (env *testEnv) seedPlaylist(ownerID, name string, videoIDs ...string) models.Playlist {
	playlist := models.Playlist{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		VideoIDs:  videoIDs,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := env.playlists.Create(context.Background(), playlist); err != nil {
		panic(err)
	}
	return playlist
}

// accessCookie mints a valid access cookie for the user.
func (env *testEnv) accessCookie(user models.User) *http.Cookie {
	token, _, err := env.codec.IssueAccess(user)
	if err != nil {
		panic(err)
	}
	return &http.Cookie{Name: middleware.AccessTokenCookie, Value: token}
}
