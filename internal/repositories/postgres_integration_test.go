package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clipstream/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestUserRepository_CreateFindAndCredentials(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewUserRepository(testPool)
	user := createTestUser(t, repo, "alice")

	dup := user
	dup.ID = uuid.NewString()
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict creating duplicate username, got %v", err)
	}

	byUsername, err := repo.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("find by username: %v", err)
	}
	if byUsername.ID != user.ID {
		t.Fatalf("unexpected user: %+v", byUsername)
	}

	byEmail, err := repo.FindByIdentifier(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("find by email identifier: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Fatalf("unexpected user: %+v", byEmail)
	}

	if _, err := repo.FindByIdentifier(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown identifier, got %v", err)
	}

	if err := repo.SetRefreshToken(ctx, user.ID, "token-1"); err != nil {
		t.Fatalf("set refresh token: %v", err)
	}
	stored, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if stored.RefreshToken != "token-1" {
		t.Fatalf("expected refresh token persisted, got %q", stored.RefreshToken)
	}

	// Overwriting replaces the single stored token.
	if err := repo.SetRefreshToken(ctx, user.ID, "token-2"); err != nil {
		t.Fatalf("overwrite refresh token: %v", err)
	}
	stored, _ = repo.FindByID(ctx, user.ID)
	if stored.RefreshToken != "token-2" {
		t.Fatalf("expected overwritten token, got %q", stored.RefreshToken)
	}

	if err := repo.SetPasswordHash(ctx, user.ID, "new-hash"); err != nil {
		t.Fatalf("set password hash: %v", err)
	}
	stored, _ = repo.FindByID(ctx, user.ID)
	if stored.PasswordHash != "new-hash" {
		t.Fatalf("expected new password hash, got %q", stored.PasswordHash)
	}

	if err := repo.SetRefreshToken(ctx, uuid.NewString(), "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestUserRepository_ProfileAndImages(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewUserRepository(testPool)
	user := createTestUser(t, repo, "alice")

	if err := repo.UpdateProfile(ctx, user.ID, "Alice Prime", "prime@example.com"); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if err := repo.SetAvatarURL(ctx, user.ID, "https://cdn.example.com/a.png"); err != nil {
		t.Fatalf("set avatar: %v", err)
	}
	if err := repo.SetCoverImageURL(ctx, user.ID, "https://cdn.example.com/c.png"); err != nil {
		t.Fatalf("set cover: %v", err)
	}

	stored, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if stored.FullName != "Alice Prime" || stored.Email != "prime@example.com" {
		t.Fatalf("profile not persisted: %+v", stored)
	}
	if stored.AvatarURL != "https://cdn.example.com/a.png" || stored.CoverImageURL != "https://cdn.example.com/c.png" {
		t.Fatalf("image urls not persisted: %+v", stored)
	}
}

func TestVideoRepository_CrudAndViews(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewUserRepository(testPool)
	videos := NewVideoRepository(testPool)
	owner := createTestUser(t, users, "creator")

	older := createTestVideo(t, videos, owner.ID, "older", time.Now().UTC().Add(-time.Hour))
	newer := createTestVideo(t, videos, owner.ID, "newer", time.Now().UTC())

	listed, err := videos.ListByOwner(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != newer.ID || listed[1].ID != older.ID {
		t.Fatalf("expected newest-first listing, got %+v", listed)
	}

	if err := videos.IncrementViews(ctx, older.ID); err != nil {
		t.Fatalf("increment views: %v", err)
	}
	stored, err := videos.FindByID(ctx, older.ID)
	if err != nil {
		t.Fatalf("find video: %v", err)
	}
	if stored.Views != 1 {
		t.Fatalf("expected 1 view, got %d", stored.Views)
	}

	if _, err := videos.FindByID(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := videos.Delete(ctx, older.ID); err != nil {
		t.Fatalf("delete video: %v", err)
	}
	if _, err := videos.FindByID(ctx, older.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted video to be gone, got %v", err)
	}
}

func TestSubscriptionRepository_EdgesAndCounts(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewUserRepository(testPool)
	subs := NewSubscriptionRepository(testPool)
	creator := createTestUser(t, users, "creator")
	viewer := createTestUser(t, users, "viewer")
	other := createTestUser(t, users, "other")

	if err := subs.Create(ctx, viewer.ID, creator.ID); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := subs.Create(ctx, viewer.ID, creator.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate edge, got %v", err)
	}
	if err := subs.Create(ctx, other.ID, creator.ID); err != nil {
		t.Fatalf("second subscriber: %v", err)
	}

	// The check constraint rejects a self-edge at the storage layer too.
	if err := subs.Create(ctx, creator.ID, creator.ID); err == nil {
		t.Fatal("expected self-subscription to be rejected")
	}

	if err := subs.Create(ctx, viewer.ID, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing channel, got %v", err)
	}

	exists, err := subs.Exists(ctx, viewer.ID, creator.ID)
	if err != nil || !exists {
		t.Fatalf("expected edge to exist, got %v %v", exists, err)
	}

	subscribers, err := subs.CountSubscribers(ctx, creator.ID)
	if err != nil || subscribers != 2 {
		t.Fatalf("expected 2 subscribers, got %d %v", subscribers, err)
	}
	following, err := subs.CountSubscribedTo(ctx, viewer.ID)
	if err != nil || following != 1 {
		t.Fatalf("expected 1 followed channel, got %d %v", following, err)
	}

	if err := subs.Delete(ctx, viewer.ID, creator.ID); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	exists, _ = subs.Exists(ctx, viewer.ID, creator.ID)
	if exists {
		t.Fatal("expected edge removed")
	}
}

func TestLikeRepository_ToggleAndProjections(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewUserRepository(testPool)
	videos := NewVideoRepository(testPool)
	likes := NewLikeRepository(testPool)
	creator := createTestUser(t, users, "creator")
	viewer := createTestUser(t, users, "viewer")
	video := createTestVideo(t, videos, creator.ID, "clip", time.Now().UTC())

	liked, err := likes.Toggle(ctx, viewer.ID, models.LikeTargetVideo, video.ID)
	if err != nil {
		t.Fatalf("toggle like: %v", err)
	}
	if !liked {
		t.Fatal("first toggle should like")
	}

	count, err := likes.CountForVideos(ctx, []string{video.ID})
	if err != nil || count != 1 {
		t.Fatalf("expected 1 like, got %d %v", count, err)
	}

	mine, err := likes.ListVideoLikesByUser(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("list likes: %v", err)
	}
	if len(mine) != 1 || mine[0].VideoID != video.ID {
		t.Fatalf("unexpected likes: %+v", mine)
	}

	liked, err = likes.Toggle(ctx, viewer.ID, models.LikeTargetVideo, video.ID)
	if err != nil {
		t.Fatalf("toggle unlike: %v", err)
	}
	if liked {
		t.Fatal("second toggle should unlike")
	}

	count, _ = likes.CountForVideos(ctx, []string{video.ID})
	if count != 0 {
		t.Fatalf("expected 0 likes after unlike, got %d", count)
	}

	if _, err := likes.Toggle(ctx, viewer.ID, "channel", video.ID); err == nil {
		t.Fatal("expected unsupported target kind to fail")
	}
}

func TestPlaylistRepository_OrderAndMembership(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewUserRepository(testPool)
	videos := NewVideoRepository(testPool)
	playlists := NewPlaylistRepository(testPool)
	owner := createTestUser(t, users, "owner")
	first := createTestVideo(t, videos, owner.ID, "first", time.Now().UTC())
	second := createTestVideo(t, videos, owner.ID, "second", time.Now().UTC())

	playlist := models.Playlist{
		ID:        uuid.NewString(),
		OwnerID:   owner.ID,
		Name:      "Favorites",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := playlists.Create(ctx, playlist); err != nil {
		t.Fatalf("create playlist: %v", err)
	}

	if err := playlists.AddVideo(ctx, playlist.ID, first.ID); err != nil {
		t.Fatalf("add first video: %v", err)
	}
	if err := playlists.AddVideo(ctx, playlist.ID, second.ID); err != nil {
		t.Fatalf("add second video: %v", err)
	}
	if err := playlists.AddVideo(ctx, playlist.ID, first.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict re-adding video, got %v", err)
	}

	stored, err := playlists.FindByID(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("find playlist: %v", err)
	}
	if len(stored.VideoIDs) != 2 || stored.VideoIDs[0] != first.ID || stored.VideoIDs[1] != second.ID {
		t.Fatalf("expected insertion order preserved, got %v", stored.VideoIDs)
	}

	if err := playlists.RemoveVideo(ctx, playlist.ID, first.ID); err != nil {
		t.Fatalf("remove video: %v", err)
	}
	stored, _ = playlists.FindByID(ctx, playlist.ID)
	if len(stored.VideoIDs) != 1 || stored.VideoIDs[0] != second.ID {
		t.Fatalf("expected only second video, got %v", stored.VideoIDs)
	}

	owned, err := playlists.ListByOwner(ctx, owner.ID)
	if err != nil || len(owned) != 1 {
		t.Fatalf("expected 1 playlist, got %+v %v", owned, err)
	}

	if err := playlists.Delete(ctx, playlist.ID); err != nil {
		t.Fatalf("delete playlist: %v", err)
	}
	if _, err := playlists.FindByID(ctx, playlist.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted playlist to be gone, got %v", err)
	}
}

func TestHistoryRepository_OrderAndRewatch(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewUserRepository(testPool)
	videos := NewVideoRepository(testPool)
	history := NewHistoryRepository(testPool)
	owner := createTestUser(t, users, "creator")
	viewer := createTestUser(t, users, "viewer")
	first := createTestVideo(t, videos, owner.ID, "first", time.Now().UTC())
	second := createTestVideo(t, videos, owner.ID, "second", time.Now().UTC())
	third := createTestVideo(t, videos, owner.ID, "third", time.Now().UTC())

	for _, id := range []string{first.ID, second.ID, third.ID} {
		if err := history.Append(ctx, viewer.ID, id); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}

	ids, err := history.ListVideoIDs(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(ids) != 3 || ids[0] != first.ID || ids[2] != third.ID {
		t.Fatalf("expected watch order, got %v", ids)
	}

	// Re-watching moves the video to the most recent end without duplicating it.
	if err := history.Append(ctx, viewer.ID, first.ID); err != nil {
		t.Fatalf("re-watch: %v", err)
	}
	ids, _ = history.ListVideoIDs(ctx, viewer.ID)
	if len(ids) != 3 || ids[2] != first.ID || ids[0] != second.ID {
		t.Fatalf("expected re-watch moved to end, got %v", ids)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE watch_history, playlist_videos, playlists, likes, tweets, comments, subscriptions, videos, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *UserRepository, username string) models.User {
	t.Helper()
	now := time.Now().UTC()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		FullName:     username,
		PasswordHash: "password-hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func createTestVideo(t *testing.T, repo *VideoRepository, ownerID, title string, createdAt time.Time) models.Video {
	t.Helper()
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Title:        title,
		VideoURL:     "https://cdn.example.com/" + title + ".mp4",
		ThumbnailURL: "https://cdn.example.com/" + title + ".jpg",
		Published:    true,
		CreatedAt:    createdAt,
	}
	if err := repo.Create(context.Background(), video); err != nil {
		t.Fatalf("create test video: %v", err)
	}
	return video
}
