package models

import "time"

// User represents a channel account within the ClipStream platform.
// PasswordHash and RefreshToken never leave the persistence and auth layers;
// use Public() for anything that crosses the API boundary.
type User struct {
	ID            string
	Username      string
	Email         string
	FullName      string
	PasswordHash  string
	AvatarURL     string
	CoverImageURL string
	RefreshToken  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Public strips credential material from the user record.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
	}
}

// PublicUser is the projection of a user safe to return to clients.
type PublicUser struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatarUrl"`
	CoverImageURL string    `json:"coverImageUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// UserRef is the minimal owner projection embedded in aggregated views.
type UserRef struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl"`
}

// Ref returns the minimal projection used when a user appears as a video owner.
func (u User) Ref() UserRef {
	return UserRef{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
	}
}

// Video is a single upload owned by exactly one user.
type Video struct {
	ID           string
	OwnerID      string
	Title        string
	Description  string
	VideoURL     string
	ThumbnailURL string
	Duration     float64
	Views        int64
	Published    bool
	CreatedAt    time.Time
}

// Subscription is a directed follow edge from subscriber to channel,
// unique per ordered pair. A user never subscribes to themselves.
type Subscription struct {
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// Like target kinds. Exactly one target id is set per like row; the
// presence of the row is the liked state.
const (
	LikeTargetVideo   = "video"
	LikeTargetComment = "comment"
	LikeTargetTweet   = "tweet"
)

// Like records that a user liked a video, comment, or tweet.
type Like struct {
	ID        string
	UserID    string
	VideoID   string
	CommentID string
	TweetID   string
	CreatedAt time.Time
}

// Playlist groups an ordered set of video references under one owner.
type Playlist struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	VideoIDs    []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
