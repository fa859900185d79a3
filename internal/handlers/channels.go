package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/views"
)

// ChannelHandler serves public channel projections.
type ChannelHandler struct {
	Users  UserStore
	Videos VideoStore
	Views  ViewAggregator
}

// Profile handles GET /api/v1/channels/{username} requests. When a viewer is
// authenticated the response includes whether they subscribe to the channel.
func (h ChannelHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	username := strings.TrimSpace(strings.ToLower(r.PathValue("username")))
	if username == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	viewerID := ""
	if viewer, ok := auth.IdentityFromContext(ctx); ok {
		viewerID = viewer.ID
	}

	profile, err := h.Views.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		if errors.Is(err, views.ErrChannelNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "channel not found"})
			return
		}
		logger.Error("channel profile failed", "error", err, "username", username)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load channel"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, profile)
}

// Stats handles GET /api/v1/channels/{username}/stats requests.
func (h ChannelHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	username := strings.TrimSpace(strings.ToLower(r.PathValue("username")))
	if username == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	channel, err := h.Users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "channel not found"})
			return
		}
		logger.Error("channel lookup failed", "error", err, "username", username)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load channel"})
		return
	}

	stats, err := h.Views.ChannelStats(ctx, channel.ID)
	if err != nil {
		if errors.Is(err, views.ErrChannelNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "channel has no published videos"})
			return
		}
		logger.Error("channel stats failed", "error", err, "channelId", channel.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load channel stats"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, stats)
}

// ListVideos handles GET /api/v1/channels/{username}/videos requests.
// Only published uploads are listed, newest first.
func (h ChannelHandler) ListVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	username := strings.TrimSpace(strings.ToLower(r.PathValue("username")))
	if username == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	channel, err := h.Users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "channel not found"})
			return
		}
		logger.Error("channel lookup failed", "error", err, "username", username)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load channel"})
		return
	}

	uploads, err := h.Videos.ListByOwner(ctx, channel.ID)
	if err != nil {
		logger.Error("channel videos failed", "error", err, "channelId", channel.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load videos"})
		return
	}

	payload := make([]videoPayload, 0, len(uploads))
	for _, video := range uploads {
		if !video.Published {
			continue
		}
		payload = append(payload, videoPayloadFrom(video))
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"videos": payload})
}

// SubscriptionHandler toggles channel subscriptions.
type SubscriptionHandler struct {
	Users         UserStore
	Subscriptions SubscriptionStore
}

// Toggle handles POST /api/v1/channels/{username}/subscription requests.
// Subscribing while subscribed unsubscribes.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	viewer, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	username := strings.TrimSpace(strings.ToLower(r.PathValue("username")))
	if username == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	channel, err := h.Users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "channel not found"})
			return
		}
		logger.Error("channel lookup failed", "error", err, "username", username)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load channel"})
		return
	}

	if channel.ID == viewer.ID {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "cannot subscribe to your own channel"})
		return
	}

	subscribed, err := h.Subscriptions.Exists(ctx, viewer.ID, channel.ID)
	if err != nil {
		logger.Error("subscription lookup failed", "error", err, "channelId", channel.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to toggle subscription"})
		return
	}

	if subscribed {
		err = h.Subscriptions.Delete(ctx, viewer.ID, channel.ID)
	} else {
		err = h.Subscriptions.Create(ctx, viewer.ID, channel.ID)
		// A concurrent toggle may have created the edge first; treat the
		// conflict as already subscribed.
		if errors.Is(err, repositories.ErrConflict) {
			err = nil
		}
	}
	if err != nil {
		logger.Error("subscription toggle failed", "error", err, "channelId", channel.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to toggle subscription"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"subscribed": !subscribed})
}
