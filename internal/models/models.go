package models

import "time"

// Account represents a registered channel owner on the platform.
//
// WatchHistory stores video ids most-recent-first and is appended when the
// account views a video. PasswordHash never leaves the persistence layer and
// must be stripped before an account is exposed as an identity or profile.
type Account struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	AvatarURL    string
	CoverURL     string
	WatchHistory []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicProfile is the projection of an account safe to embed in query
// results (comment authors, video owners, subscription counterparts).
type PublicProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

// Public returns the account's public projection.
func (a Account) Public() PublicProfile {
	return PublicProfile{
		ID:       a.ID,
		Username: a.Username,
		FullName: a.FullName,
		Avatar:   a.AvatarURL,
	}
}

// Video is an uploaded piece of content. OwnerID is immutable after creation.
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
	UpdatedAt    time.Time
}

// Comment is attached to a single video. AuthorID is immutable.
type Comment struct {
	ID        string
	VideoID   string
	AuthorID  string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LikeTarget identifies the kind of entity a like points at.
type LikeTarget string

const (
	LikeTargetVideo   LikeTarget = "video"
	LikeTargetComment LikeTarget = "comment"
)

// Like records that an account liked exactly one video or one comment.
// The (AccountID, TargetKind, TargetID) tuple is unique.
type Like struct {
	ID         string
	AccountID  string
	TargetKind LikeTarget
	TargetID   string
	CreatedAt  time.Time
}

// Subscription links a subscriber account to a channel account. The
// (SubscriberID, ChannelID) pair is unique.
type Subscription struct {
	ID           string
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// Playlist is an ordered sequence of video ids owned by one account.
// The same video may appear at more than one position.
type Playlist struct {
	ID          string
	OwnerID     string
	Title       string
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
