package handlers

import (
	"net/http"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
)

// HistoryHandler serves the authenticated viewer's watch history.
type HistoryHandler struct {
	Views ViewAggregator
}

// List handles GET /api/v1/history requests. Entries come back in watch
// order; videos deleted since being watched are omitted.
func (h HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	entries, err := h.Views.WatchHistory(ctx, user.ID)
	if err != nil {
		logger.Error("watch history failed", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load watch history"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"history": entries})
}
