package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

var (
	// ErrPrincipalNotFound indicates no user matches the login identifier.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrInvalidCredentials indicates password verification failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRefreshToken indicates the presented refresh token is absent,
	// unverifiable, or superseded by a later login or rotation.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// CredentialStore is the persistence contract the session manager depends
// on. The user record itself is the session store: SetRefreshToken
// overwrites the single live refresh token (or clears it with an empty
// value), so a backend swap never touches the session logic.
// Implementations signal a missing user with repositories.ErrNotFound; any
// other error is treated as a storage failure, not an authentication one.
type CredentialStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	SetRefreshToken(ctx context.Context, userID, token string) error
	SetPasswordHash(ctx context.Context, userID, hash string) error
}

// LoginResult bundles the issued tokens with the public user projection.
type LoginResult struct {
	Tokens models.SessionTokens
	User   models.PublicUser
}

// Manager drives the session lifecycle: login, refresh rotation, logout,
// and password changes. Each token-issuing transition performs exactly one
// persistence write, of the refresh token field.
type Manager struct {
	codec  *Codec
	users  CredentialStore
	hasher PasswordHasher
}

// NewManager constructs a session manager.
func NewManager(codec *Codec, users CredentialStore, hasher PasswordHasher) *Manager {
	if codec == nil || users == nil || hasher == nil {
		panic("auth: manager requires codec, credential store, and hasher")
	}
	return &Manager{codec: codec, users: users, hasher: hasher}
}

// Login authenticates the identifier (username or email) against the stored
// password hash and issues a fresh token pair. The new refresh token
// overwrites any previously stored one, silently invalidating an earlier
// session.
func (m *Manager) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	user, err := m.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return LoginResult{}, ErrPrincipalNotFound
		}
		return LoginResult{}, fmt.Errorf("find principal: %w", err)
	}

	if !m.hasher.Verify(password, user.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}

	tokens, err := m.issue(ctx, user)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{Tokens: tokens, User: user.Public()}, nil
}

// Refresh rotates a refresh token: the presented token must verify against
// the refresh secret and byte-match the single stored value. Both checks
// guard against replay of a superseded token. On success a new pair is
// issued and the new refresh token replaces the old one.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	if refreshToken == "" {
		return models.SessionTokens{}, ErrInvalidRefreshToken
	}

	userID, err := m.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return models.SessionTokens{}, ErrInvalidRefreshToken
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, ErrInvalidRefreshToken
		}
		return models.SessionTokens{}, fmt.Errorf("find token subject: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
		return models.SessionTokens{}, ErrInvalidRefreshToken
	}

	return m.issue(ctx, user)
}

// Logout clears the stored refresh token. Logging out twice is a no-op.
func (m *Manager) Logout(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	if err := m.users.SetRefreshToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// ChangePassword verifies the current password before storing a hash of the
// new one. The stored refresh token is left untouched: an existing session
// survives a password change.
func (m *Manager) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrPrincipalNotFound
		}
		return fmt.Errorf("find principal: %w", err)
	}

	if !m.hasher.Verify(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := m.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := m.users.SetPasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("store password hash: %w", err)
	}
	return nil
}

func (m *Manager) issue(ctx context.Context, user models.User) (models.SessionTokens, error) {
	access, accessExpires, err := m.codec.IssueAccess(user)
	if err != nil {
		return models.SessionTokens{}, err
	}

	refresh, refreshExpires, err := m.codec.IssueRefresh(user.ID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.users.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return models.SessionTokens{}, fmt.Errorf("store refresh token: %w", err)
	}

	return models.SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExpires,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExpires,
	}, nil
}
