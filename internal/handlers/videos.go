package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// Video uploads are buffered up to this size before streaming to the object store.
const maxVideoUploadBytes = 512 << 20

// VideoHandler implements video publishing and playback endpoints.
type VideoHandler struct {
	Videos  VideoStore
	History HistoryStore
	Images  ImageStore
	NowFunc func() time.Time
}

// Publish handles POST /api/v1/videos multipart requests. The video file and
// thumbnail are stored before the record is created so a failed upload never
// leaves a record pointing at nothing.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	owner, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	if err := r.ParseMultipartForm(maxVideoUploadBytes); err != nil {
		logger.Warn("invalid multipart payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart body"})
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}
	description := strings.TrimSpace(r.FormValue("description"))

	duration := 0.0
	if raw := strings.TrimSpace(r.FormValue("duration")); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid duration"})
			return
		}
		duration = parsed
	}

	videoID := uuid.NewString()

	videoURL, err := h.storeUpload(r, "video", fmt.Sprintf("videos/%s/source", videoID))
	if err != nil {
		logger.Error("video upload failed", "error", err, "videoId", videoID)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "video file is required"})
		return
	}

	thumbnailURL, err := h.storeUpload(r, "thumbnail", fmt.Sprintf("videos/%s/thumbnail", videoID))
	if err != nil {
		logger.Error("thumbnail upload failed", "error", err, "videoId", videoID)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "thumbnail file is required"})
		return
	}

	video := models.Video{
		ID:           videoID,
		OwnerID:      owner.ID,
		Title:        title,
		Description:  description,
		VideoURL:     videoURL,
		ThumbnailURL: thumbnailURL,
		Duration:     duration,
		Published:    true,
		CreatedAt:    h.now(),
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("video create failed", "error", err, "videoId", videoID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to publish video"})
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{"video": videoPayloadFrom(video)})
}

// Get handles GET /api/v1/videos/{id} requests. Every successful load counts
// as a view; authenticated viewers also get the video appended to their watch
// history.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	id := strings.TrimSpace(r.PathValue("id"))
	if uuid.Validate(id) != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid video id"})
		return
	}

	video, err := h.Videos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logger.Error("video lookup failed", "error", err, "videoId", id)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load video"})
		return
	}

	if err := h.Videos.IncrementViews(ctx, id); err != nil {
		// The view counter is best effort; playback still proceeds.
		logger.Warn("view increment failed", "error", err, "videoId", id)
	} else {
		video.Views++
	}

	if viewer, ok := auth.IdentityFromContext(ctx); ok {
		if err := h.History.Append(ctx, viewer.ID, id); err != nil {
			logger.Warn("history append failed", "error", err, "videoId", id, "userId", viewer.ID)
		}
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"video": videoPayloadFrom(video)})
}

func (h VideoHandler) storeUpload(r *http.Request, field, prefix string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", fmt.Errorf("read %s upload: %w", field, err)
	}
	defer file.Close()

	key := prefix + filepath.Ext(header.Filename)
	return h.Images.Save(r.Context(), key, file)
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type videoPayload struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	VideoURL     string    `json:"videoUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	CreatedAt    time.Time `json:"createdAt"`
}

func videoPayloadFrom(video models.Video) videoPayload {
	return videoPayload{
		ID:           video.ID,
		OwnerID:      video.OwnerID,
		Title:        video.Title,
		Description:  video.Description,
		VideoURL:     video.VideoURL,
		ThumbnailURL: video.ThumbnailURL,
		Duration:     video.Duration,
		Views:        video.Views,
		CreatedAt:    video.CreatedAt,
	}
}
