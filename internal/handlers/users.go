package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/repositories"
)

// Uploaded images are buffered up to this size before hitting the object store.
const maxImageUploadBytes = 10 << 20

// UserHandler implements account profile endpoints.
type UserHandler struct {
	Users  UserStore
	Images ImageStore
}

// UpdateProfile handles PATCH /api/v1/users/me requests.
func (h UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid profile payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.FullName == "" || req.Email == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "full name and email are required"})
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid email address"})
		return
	}

	if err := h.Users.UpdateProfile(ctx, user.ID, req.FullName, req.Email); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": "email already registered"})
			return
		}
		logger.Error("profile update failed", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to update profile"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "profile updated"})
}

// UpdateAvatar handles PATCH /api/v1/users/me/avatar multipart requests.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", h.Users.SetAvatarURL)
}

// UpdateCoverImage handles PATCH /api/v1/users/me/cover-image multipart requests.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", h.Users.SetCoverImageURL)
}

func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field string, persist func(ctx context.Context, userID, url string) error) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		logger.Warn("invalid multipart payload", "field", field, "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart body"})
		return
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("%s file is required", field)})
		return
	}
	defer file.Close()

	key := fmt.Sprintf("users/%s/%s/%s%s", user.ID, field, uuid.NewString(), filepath.Ext(header.Filename))
	url, err := h.Images.Save(ctx, key, file)
	if err != nil {
		logger.Error("image upload failed", "field", field, "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to store image"})
		return
	}

	if err := persist(ctx, user.ID, url); err != nil {
		logger.Error("image url persist failed", "field", field, "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to update image"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"url": url})
}

type updateProfileRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}
