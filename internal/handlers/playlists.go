package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/views"
)

// PlaylistHandler implements playlist management and viewing endpoints.
type PlaylistHandler struct {
	Users     UserStore
	Playlists PlaylistStore
	Views     ViewAggregator
	NowFunc   func() time.Time
}

// Create handles POST /api/v1/playlists requests.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	owner, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req createPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid playlist payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     owner.ID,
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		logger.Error("playlist create failed", "error", err, "ownerId", owner.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to create playlist"})
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{"playlist": playlistPayloadFrom(playlist)})
}

// Get handles GET /api/v1/playlists/{id} requests and returns the fully
// resolved view with owner and video details.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	id := strings.TrimSpace(r.PathValue("id"))
	if uuid.Validate(id) != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid playlist id"})
		return
	}

	view, err := h.Views.Playlist(ctx, id)
	if err != nil {
		if errors.Is(err, views.ErrPlaylistNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "playlist not found"})
			return
		}
		logger.Error("playlist view failed", "error", err, "playlistId", id)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load playlist"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"playlist": view})
}

// ListForUser handles GET /api/v1/users/{username}/playlists requests.
func (h PlaylistHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	username := strings.TrimSpace(strings.ToLower(r.PathValue("username")))
	if username == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	owner, err := h.Users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		logger.Error("user lookup failed", "error", err, "username", username)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load playlists"})
		return
	}

	playlists, err := h.Playlists.ListByOwner(ctx, owner.ID)
	if err != nil {
		logger.Error("playlist list failed", "error", err, "ownerId", owner.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load playlists"})
		return
	}

	payload := make([]playlistPayload, 0, len(playlists))
	for _, playlist := range playlists {
		payload = append(payload, playlistPayloadFrom(playlist))
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"playlists": payload})
}

// AddVideo handles POST /api/v1/playlists/{id}/videos/{videoId} requests.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	h.mutateMembership(w, r, func(ctx membershipMutation) error {
		return h.Playlists.AddVideo(ctx.ctx, ctx.playlistID, ctx.videoID)
	})
}

// RemoveVideo handles DELETE /api/v1/playlists/{id}/videos/{videoId} requests.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	h.mutateMembership(w, r, func(ctx membershipMutation) error {
		return h.Playlists.RemoveVideo(ctx.ctx, ctx.playlistID, ctx.videoID)
	})
}

// Delete handles DELETE /api/v1/playlists/{id} requests. Only the owner may
// delete a playlist.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if uuid.Validate(id) != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid playlist id"})
		return
	}

	playlist, err := h.Playlists.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "playlist not found"})
			return
		}
		logger.Error("playlist lookup failed", "error", err, "playlistId", id)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load playlist"})
		return
	}

	if playlist.OwnerID != user.ID {
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "only the owner may delete a playlist"})
		return
	}

	if err := h.Playlists.Delete(ctx, id); err != nil {
		logger.Error("playlist delete failed", "error", err, "playlistId", id)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to delete playlist"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "playlist deleted"})
}

type membershipMutation struct {
	ctx        context.Context
	playlistID string
	videoID    string
}

func (h PlaylistHandler) mutateMembership(w http.ResponseWriter, r *http.Request, mutate func(membershipMutation) error) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	playlistID := strings.TrimSpace(r.PathValue("id"))
	videoID := strings.TrimSpace(r.PathValue("videoId"))
	if uuid.Validate(playlistID) != nil || uuid.Validate(videoID) != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid playlist or video id"})
		return
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "playlist not found"})
			return
		}
		logger.Error("playlist lookup failed", "error", err, "playlistId", playlistID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load playlist"})
		return
	}

	if playlist.OwnerID != user.ID {
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "only the owner may modify a playlist"})
		return
	}

	if err := mutate(membershipMutation{ctx: ctx, playlistID: playlistID, videoID: videoID}); err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": "video already in playlist"})
		case errors.Is(err, repositories.ErrNotFound):
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
		default:
			logger.Error("playlist mutation failed", "error", err, "playlistId", playlistID, "videoId", videoID)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to update playlist"})
		}
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "playlist updated"})
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type playlistPayload struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	VideoIDs    []string  `json:"videoIds"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func playlistPayloadFrom(playlist models.Playlist) playlistPayload {
	ids := playlist.VideoIDs
	if ids == nil {
		ids = []string{}
	}
	return playlistPayload{
		ID:          playlist.ID,
		OwnerID:     playlist.OwnerID,
		Name:        playlist.Name,
		Description: playlist.Description,
		VideoIDs:    ids,
		CreatedAt:   playlist.CreatedAt,
		UpdatedAt:   playlist.UpdatedAt,
	}
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
