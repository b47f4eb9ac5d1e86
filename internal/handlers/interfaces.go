package handlers

import (
	"context"
	"io"

	"github.com/vidtube/backend/internal/models"
)

// AccountStore is the account persistence surface the handlers depend on.
type AccountStore interface {
	Create(ctx context.Context, account models.Account) error
	FindByID(ctx context.Context, id string) (models.Account, error)
	FindByLogin(ctx context.Context, identifier string) (models.Account, error)
	UpdateDetails(ctx context.Context, id, fullName, email string) (models.Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAvatar(ctx context.Context, id, avatarURL string) error
	UpdateCover(ctx context.Context, id, coverURL string) error
	PushWatchHistory(ctx context.Context, id, videoID string) error
}

// VideoStore is the video persistence surface the handlers depend on.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Update(ctx context.Context, id, title, description, thumbnailURL string) (models.Video, error)
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
}

// CommentStore is the comment persistence surface the handlers depend on.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	UpdateContent(ctx context.Context, id, content string) (models.Comment, error)
	Delete(ctx context.Context, id string) error
}

// LikeStore exposes the like toggle and target cleanup.
type LikeStore interface {
	Toggle(ctx context.Context, like models.Like) (added bool, err error)
	DeleteByTarget(ctx context.Context, kind models.LikeTarget, targetID string) error
}

// SubscriptionStore exposes the subscription toggle.
type SubscriptionStore interface {
	Toggle(ctx context.Context, sub models.Subscription) (added bool, err error)
}

// PlaylistStore is the playlist persistence surface the handlers depend on.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	UpdateDetails(ctx context.Context, id, title, description string) (models.Playlist, error)
	Delete(ctx context.Context, id string) error
	AppendVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}

// SessionManager issues, rotates, and ends authenticated sessions.
type SessionManager interface {
	Begin(ctx context.Context, accountID string) (models.SessionTokens, error)
	End(ctx context.Context, accountID string) error
	Rotate(ctx context.Context, refreshToken string) (models.SessionTokens, error)
}

// BlobStorage stores media assets and addresses them by URL.
type BlobStorage interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}
