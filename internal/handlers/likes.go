package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// LikeHandler toggles and lists likes for the authenticated user.
type LikeHandler struct {
	Likes LikeStore
	Views ViewAggregator
}

// Toggle handles POST /api/v1/likes/{kind}/{id} requests where kind is one of
// video, comment, or tweet. Liking a liked target removes the like.
func (h LikeHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	kind := strings.TrimSpace(strings.ToLower(r.PathValue("kind")))
	targetID := strings.TrimSpace(r.PathValue("id"))

	switch kind {
	case models.LikeTargetVideo, models.LikeTargetComment, models.LikeTargetTweet:
	default:
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "kind must be video, comment, or tweet"})
		return
	}
	if uuid.Validate(targetID) != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid target id"})
		return
	}

	liked, err := h.Likes.Toggle(ctx, user.ID, kind, targetID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "target not found"})
			return
		}
		logger.Error("like toggle failed", "error", err, "kind", kind, "targetId", targetID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to toggle like"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"liked": liked})
}

// LikedVideos handles GET /api/v1/likes/videos requests.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	videos, err := h.Views.LikedVideos(ctx, user.ID)
	if err != nil {
		logger.Error("liked videos failed", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load liked videos"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"videos": videos})
}
