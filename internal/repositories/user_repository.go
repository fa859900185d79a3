package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

const userColumns = `id, username, email, full_name, password_hash, avatar_url, cover_image_url, refresh_token, created_at, updated_at`

// UserRepository provides PostgreSQL-backed persistence for user accounts.
// It doubles as the credential store consumed by the session manager: the
// user row carries the single live refresh token.
type UserRepository struct {
	pool db.Pool
}

// NewUserRepository constructs a user repository backed by PostgreSQL.
func NewUserRepository(pool db.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create persists a new user record.
func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (`+userColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, user.ID, user.Username, user.Email, user.FullName, user.PasswordHash,
		user.AvatarURL, user.CoverImageURL, user.RefreshToken, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByUsername fetches a user by their unique username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// FindByIdentifier matches the identifier against username or email.
func (r *UserRepository) FindByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1`, identifier)
}

// SetRefreshToken overwrites the single stored refresh token. An empty
// token clears the session.
func (r *UserRepository) SetRefreshToken(ctx context.Context, userID, token string) error {
	return r.setField(ctx, `UPDATE users SET refresh_token = $2, updated_at = $3 WHERE id = $1`, userID, token)
}

// SetPasswordHash overwrites the stored password hash. This is the only
// write path that touches the credential field, so nothing else can re-hash
// on an unrelated save.
func (r *UserRepository) SetPasswordHash(ctx context.Context, userID, hash string) error {
	return r.setField(ctx, `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`, userID, hash)
}

// UpdateProfile modifies the mutable display fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID, fullName, email string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users SET full_name = $2, email = $3, updated_at = $4 WHERE id = $1
    `, userID, fullName, email, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("update user profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAvatarURL stores the public URL returned by the image store.
func (r *UserRepository) SetAvatarURL(ctx context.Context, userID, url string) error {
	return r.setField(ctx, `UPDATE users SET avatar_url = $2, updated_at = $3 WHERE id = $1`, userID, url)
}

// SetCoverImageURL stores the public URL returned by the image store.
func (r *UserRepository) SetCoverImageURL(ctx context.Context, userID, url string) error {
	return r.setField(ctx, `UPDATE users SET cover_image_url = $2, updated_at = $3 WHERE id = $1`, userID, url)
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var user models.User
	row := conn.QueryRow(ctx, query, args...)
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.PasswordHash,
		&user.AvatarURL, &user.CoverImageURL, &user.RefreshToken, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}

	return user, nil
}

func (r *UserRepository) setField(ctx context.Context, query, userID, value string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, userID, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update user field: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
