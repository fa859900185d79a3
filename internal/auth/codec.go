package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/models"
)

var (
	// ErrTokenExpired indicates the token's expiry claim is in the past.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed indicates the token could not be parsed at all.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenSignature indicates the token was signed with a different secret.
	ErrTokenSignature = errors.New("token signature invalid")
)

// Identity carries the claims embedded in an access token.
type Identity struct {
	UserID   string
	Username string
	Email    string
}

// accessClaims and refreshClaims are deliberately distinct types: an access
// token can never be presented where a refresh token is expected or vice
// versa, because each verification path parses into its own claim set with
// its own secret.
type accessClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email"`
}

type refreshClaims struct {
	jwt.RegisteredClaims
}

// Codec signs and verifies the two bearer artifacts of a session. The access
// and refresh secrets are independent so a compromised token of one kind
// cannot be replayed as the other.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewCodec constructs a Codec with independent secrets and lifetimes.
func NewCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// AccessTTL reports the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL reports the configured refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess signs a short-lived token carrying the user's identity claims.
// Access tokens are stateless: nothing about them is persisted server-side.
func (c *Codec) IssueAccess(user models.User) (string, time.Time, error) {
	now := c.now()
	expires := now.Add(c.accessTTL)
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Username: user.Username,
		Email:    user.Email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.accessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expires, nil
}

// IssueRefresh signs a long-lived token carrying only the user id.
func (c *Codec) IssueRefresh(userID string) (string, time.Time, error) {
	now := c.now()
	expires := now.Add(c.refreshTTL)
	// The jti claim makes every issued token unique even when two issuances
	// land within the same second; rotation depends on the stored value
	// differing from a superseded one.
	claims := refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.refreshSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, expires, nil
}

// VerifyAccess validates an access token against the access secret and
// returns the identity claims it carries.
func (c *Codec) VerifyAccess(token string) (Identity, error) {
	claims := &accessClaims{}
	if err := c.verify(token, claims, c.accessSecret); err != nil {
		return Identity{}, err
	}
	return Identity{
		UserID:   claims.Subject,
		Username: claims.Username,
		Email:    claims.Email,
	}, nil
}

// VerifyRefresh validates a refresh token against the refresh secret and
// returns the user id it was issued to.
func (c *Codec) VerifyRefresh(token string) (string, error) {
	claims := &refreshClaims{}
	if err := c.verify(token, claims, c.refreshSecret); err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (c *Codec) verify(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return ErrTokenSignature
		default:
			return ErrTokenMalformed
		}
	}
	if !parsed.Valid {
		return ErrTokenMalformed
	}
	return nil
}
