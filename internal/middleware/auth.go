package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// AccessVerifier validates access tokens and yields the embedded identity.
type AccessVerifier interface {
	VerifyAccess(token string) (auth.Identity, error)
}

// PrincipalResolver loads the current user record for a verified identity.
type PrincipalResolver interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// AccessTokenCookie is the cookie carrying the access token. The cookie
// takes precedence over the Authorization header.
const AccessTokenCookie = "accessToken"

// RequireAuth guards a handler: requests without a valid access token are
// rejected with 401. The token's subject is re-resolved against storage on
// every request, so a deleted account is locked out even while its access
// token signature is still valid. Expired tokens are rejected here, never
// refreshed; rotation is an explicit client call.
func RequireAuth(verifier AccessVerifier, resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := authenticate(w, r, verifier, resolver)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), user)))
		})
	}
}

// OptionalAuth resolves the viewer when a token is presented but lets
// anonymous requests through. A presented-but-invalid token is still
// rejected rather than silently downgraded to anonymous.
func OptionalAuth(verifier AccessVerifier, resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if extractAccessToken(r) == "" {
				next.ServeHTTP(w, r)
				return
			}
			user, ok := authenticate(w, r, verifier, resolver)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), user)))
		})
	}
}

func authenticate(w http.ResponseWriter, r *http.Request, verifier AccessVerifier, resolver PrincipalResolver) (models.PublicUser, bool) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	token := extractAccessToken(r)
	if token == "" {
		unauthorized(w)
		return models.PublicUser{}, false
	}

	identity, err := verifier.VerifyAccess(token)
	if err != nil {
		logger.Warn("access token rejected", "error", err)
		unauthorized(w)
		return models.PublicUser{}, false
	}

	user, err := resolver.FindByID(ctx, identity.UserID)
	if err != nil {
		logger.Warn("token subject no longer resolvable", "userId", identity.UserID, "error", err)
		unauthorized(w)
		return models.PublicUser{}, false
	}

	return user.Public(), true
}

func extractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}
