package handlers

import (
	"net/http"

	"github.com/clipstream/backend/internal/auth"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionService
	Passwords     auth.PasswordHasher
	Videos        VideoStore
	Subscriptions SubscriptionStore
	Likes         LikeStore
	Playlists     PlaylistStore
	History       HistoryStore
	Views         ViewAggregator
	Images        ImageStore
	AuthLimiter   RateLimiter

	// RequireAuth rejects requests without a valid access token;
	// OptionalAuth resolves the viewer when a token is presented.
	RequireAuth  func(http.Handler) http.Handler
	OptionalAuth func(http.Handler) http.Handler
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	require := deps.RequireAuth
	optional := deps.OptionalAuth
	if require == nil {
		require = passthrough
	}
	if optional == nil {
		optional = passthrough
	}

	health := HealthHandler{}
	authn := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Passwords: deps.Passwords, Limiter: deps.AuthLimiter}
	users := UserHandler{Users: deps.Users, Images: deps.Images}
	channels := ChannelHandler{Users: deps.Users, Videos: deps.Videos, Views: deps.Views}
	subscriptions := SubscriptionHandler{Users: deps.Users, Subscriptions: deps.Subscriptions}
	videos := VideoHandler{Videos: deps.Videos, History: deps.History, Images: deps.Images}
	likes := LikeHandler{Likes: deps.Likes, Views: deps.Views}
	history := HistoryHandler{Views: deps.Views}
	playlists := PlaylistHandler{Users: deps.Users, Playlists: deps.Playlists, Views: deps.Views}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/auth/register", authn.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authn.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", authn.Refresh)
	mux.Handle("POST /api/v1/auth/logout", require(http.HandlerFunc(authn.Logout)))
	mux.Handle("POST /api/v1/auth/change-password", require(http.HandlerFunc(authn.ChangePassword)))

	mux.Handle("GET /api/v1/users/me", require(http.HandlerFunc(authn.CurrentUser)))
	mux.Handle("PATCH /api/v1/users/me", require(http.HandlerFunc(users.UpdateProfile)))
	mux.Handle("PATCH /api/v1/users/me/avatar", require(http.HandlerFunc(users.UpdateAvatar)))
	mux.Handle("PATCH /api/v1/users/me/cover-image", require(http.HandlerFunc(users.UpdateCoverImage)))
	mux.HandleFunc("GET /api/v1/users/{username}/playlists", playlists.ListForUser)

	mux.Handle("GET /api/v1/channels/{username}", optional(http.HandlerFunc(channels.Profile)))
	mux.HandleFunc("GET /api/v1/channels/{username}/stats", channels.Stats)
	mux.HandleFunc("GET /api/v1/channels/{username}/videos", channels.ListVideos)
	mux.Handle("POST /api/v1/channels/{username}/subscription", require(http.HandlerFunc(subscriptions.Toggle)))

	mux.Handle("POST /api/v1/videos", require(http.HandlerFunc(videos.Publish)))
	mux.Handle("GET /api/v1/videos/{id}", optional(http.HandlerFunc(videos.Get)))

	mux.Handle("POST /api/v1/likes/{kind}/{id}", require(http.HandlerFunc(likes.Toggle)))
	mux.Handle("GET /api/v1/likes/videos", require(http.HandlerFunc(likes.LikedVideos)))

	mux.Handle("GET /api/v1/history", require(http.HandlerFunc(history.List)))

	mux.Handle("POST /api/v1/playlists", require(http.HandlerFunc(playlists.Create)))
	mux.HandleFunc("GET /api/v1/playlists/{id}", playlists.Get)
	mux.Handle("POST /api/v1/playlists/{id}/videos/{videoId}", require(http.HandlerFunc(playlists.AddVideo)))
	mux.Handle("DELETE /api/v1/playlists/{id}/videos/{videoId}", require(http.HandlerFunc(playlists.RemoveVideo)))
	mux.Handle("DELETE /api/v1/playlists/{id}", require(http.HandlerFunc(playlists.Delete)))
}

func passthrough(next http.Handler) http.Handler {
	return next
}
