package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// RefreshTokenCookie carries the refresh token between rotations.
const RefreshTokenCookie = "refreshToken"

// AuthHandler implements the session lifecycle endpoints.
type AuthHandler struct {
	Users     UserStore
	Sessions  SessionService
	Passwords auth.PasswordHasher
	Limiter   RateLimiter
	NowFunc   func() time.Time
}

// Register handles POST /api/v1/auth/register requests.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "register") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid register payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)

	if req.Username == "" || req.Email == "" || req.Password == "" {
		logger.Warn("register missing fields", "username", req.Username)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username, email, and password are required"})
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		logger.Warn("register invalid email", "email", req.Email, "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid email address"})
		return
	}

	if len(req.Password) < 8 {
		logger.Warn("register password too short", "username", req.Username)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
		return
	}

	hash, err := h.Passwords.Hash(req.Password)
	if err != nil {
		logger.Error("register failed to hash password", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to secure password"})
		return
	}

	now := h.now()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			logger.Warn("register conflict", "username", req.Username)
			respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": "username or email already registered"})
			return
		}
		logger.Error("register failed to create user", "error", err, "username", req.Username)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to create account"})
		return
	}

	respondJSON(ctx, w, http.StatusCreated, userResponse{User: user.Public()})
}

// Login handles POST /api/v1/auth/login requests. The identifier may be a
// username or an email address.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Username)
	}
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}

	if identifier == "" || req.Password == "" {
		logger.Warn("login missing credentials")
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "identifier and password are required"})
		return
	}

	result, err := h.Sessions.Login(ctx, identifier, req.Password)
	if err != nil {
		// Unknown account and wrong password both produce the same
		// response so the endpoint cannot be used to enumerate usernames.
		if errors.Is(err, auth.ErrPrincipalNotFound) || errors.Is(err, auth.ErrInvalidCredentials) {
			logger.Warn("login rejected", "identifier", identifier)
			respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		logger.Error("login failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to create session"})
		return
	}

	setSessionCookies(w, result.Tokens)
	respondJSON(ctx, w, http.StatusOK, loginResponse{User: result.User, Tokens: result.Tokens})
}

// Refresh handles POST /api/v1/auth/refresh requests. The refresh token is
// read from the refreshToken cookie, falling back to the request body.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "refresh") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	token := ""
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
		token = cookie.Value
	}
	if token == "" {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			token = strings.TrimSpace(req.RefreshToken)
		}
	}

	if token == "" {
		logger.Warn("missing refresh token")
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "refresh token is required"})
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRefreshToken) {
			logger.Warn("refresh token rejected")
			respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "invalid refresh token"})
			return
		}
		logger.Error("refresh failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to refresh session"})
		return
	}

	setSessionCookies(w, tokens)
	respondJSON(ctx, w, http.StatusOK, tokensResponse{Tokens: tokens})
}

// Logout handles POST /api/v1/auth/logout requests for the authenticated user.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	if err := h.Sessions.Logout(ctx, user.ID); err != nil {
		logger.Error("logout failed", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to end session"})
		return
	}

	clearSessionCookies(w)
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "logged out"})
}

// ChangePassword handles POST /api/v1/auth/change-password requests.
func (h AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid change-password payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "current and new passwords are required"})
		return
	}

	if len(req.NewPassword) < 8 {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
		return
	}

	if err := h.Sessions.ChangePassword(ctx, user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logger.Warn("change-password rejected", "userId", user.ID)
			respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "current password is incorrect"})
			return
		}
		logger.Error("change-password failed", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to change password"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "password changed"})
}

// CurrentUser handles GET /api/v1/users/me requests.
func (h AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, userResponse{User: user})
}

type registerRequest struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type userResponse struct {
	User models.PublicUser `json:"user"`
}

type loginResponse struct {
	User   models.PublicUser    `json:"user"`
	Tokens models.SessionTokens `json:"tokens"`
}

type tokensResponse struct {
	Tokens models.SessionTokens `json:"tokens"`
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, sessionCookie(middleware.AccessTokenCookie, tokens.AccessToken, tokens.AccessExpiresAt))
	http.SetCookie(w, sessionCookie(RefreshTokenCookie, tokens.RefreshToken, tokens.RefreshExpiresAt))
}

func clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, RefreshTokenCookie} {
		cookie := sessionCookie(name, "", time.Time{})
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
	}
}

func sessionCookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}
