package app

import (
	"context"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/storage"
	"github.com/clipstream/backend/internal/views"
)

// buildDependencies wires repositories, the session stack, and the view
// aggregator into the handler dependency set.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	users := repositories.NewUserRepository(pool)
	videos := repositories.NewVideoRepository(pool)
	subscriptions := repositories.NewSubscriptionRepository(pool)
	likes := repositories.NewLikeRepository(pool)
	playlists := repositories.NewPlaylistRepository(pool)
	history := repositories.NewHistoryRepository(pool)

	codec := auth.NewCodec(
		cfg.Auth.AccessSecret,
		cfg.Auth.RefreshSecret,
		cfg.Auth.AccessTTL,
		cfg.Auth.RefreshTTL,
	)
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	sessions := auth.NewManager(codec, users, hasher)

	aggregator := views.NewAggregator(users, videos, subscriptions, likes, playlists, history)

	images, err := buildImageStore(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, err
	}

	limiter := middleware.NewIPRateLimiter(
		cfg.RateLimit.Requests,
		cfg.RateLimit.Window,
		cfg.RateLimit.Burst,
		cfg.RateLimit.TTL,
	)

	return handlers.Dependencies{
		Users:         users,
		Sessions:      sessions,
		Passwords:     hasher,
		Videos:        videos,
		Subscriptions: subscriptions,
		Likes:         likes,
		Playlists:     playlists,
		History:       history,
		Views:         aggregator,
		Images:        images,
		AuthLimiter:   limiter,
		RequireAuth:   middleware.RequireAuth(codec, users),
		OptionalAuth:  middleware.OptionalAuth(codec, users),
	}, nil
}

// buildImageStore prefers the configured S3 bucket and falls back to local
// disk storage for development.
func buildImageStore(ctx context.Context, cfg config.ObjectStoreConfig) (handlers.ImageStore, error) {
	if cfg.Bucket != "" {
		return storage.NewS3Storage(ctx, cfg)
	}
	return storage.NewLocalStorage(cfg.LocalDir, cfg.PublicBaseURL)
}
