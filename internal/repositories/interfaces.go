package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// AccountRepository defines the data access contract for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account models.Account) error
	FindByID(ctx context.Context, id string) (models.Account, error)
	FindByLogin(ctx context.Context, identifier string) (models.Account, error)
	FindByUsernameOrID(ctx context.Context, identifier string) (models.Account, error)
	FindManyByIDs(ctx context.Context, ids []string) (map[string]models.Account, error)
	UpdateDetails(ctx context.Context, id, fullName, email string) (models.Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAvatar(ctx context.Context, id, avatarURL string) error
	UpdateCover(ctx context.Context, id, coverURL string) error
	PushWatchHistory(ctx context.Context, id, videoID string) error
}

// VideoRepository exposes data access for uploaded videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	FindManyByIDs(ctx context.Context, ids []string) (map[string]models.Video, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	ListPublished(ctx context.Context, offset, limit int) ([]models.Video, error)
	CountPublished(ctx context.Context) (int64, error)
	Update(ctx context.Context, id, title, description, thumbnailURL string) (models.Video, error)
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
}

// CommentRepository exposes data access for video comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListByVideo(ctx context.Context, videoID string, offset, limit int) ([]models.Comment, error)
	CountByVideo(ctx context.Context, videoID string) (int64, error)
	UpdateContent(ctx context.Context, id, content string) (models.Comment, error)
	Delete(ctx context.Context, id string) error
}

// LikeRepository exposes the toggle primitive and read access for likes.
type LikeRepository interface {
	Toggle(ctx context.Context, like models.Like) (added bool, err error)
	ListByAccount(ctx context.Context, accountID string, kind models.LikeTarget) ([]models.Like, error)
	CountByTargets(ctx context.Context, kind models.LikeTarget, targetIDs []string) (map[string]int64, error)
	DeleteByTarget(ctx context.Context, kind models.LikeTarget, targetID string) error
}

// SubscriptionRepository exposes the toggle primitive and read access for
// subscriber/channel relations.
type SubscriptionRepository interface {
	Toggle(ctx context.Context, sub models.Subscription) (added bool, err error)
	ListBySubscriber(ctx context.Context, subscriberID string) ([]models.Subscription, error)
	ListByChannel(ctx context.Context, channelID string) ([]models.Subscription, error)
	CountByChannel(ctx context.Context, channelID string) (int64, error)
	CountBySubscriber(ctx context.Context, subscriberID string) (int64, error)
}

// PlaylistRepository exposes data access for playlists and their ordered
// video sequences.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]models.Playlist, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	UpdateDetails(ctx context.Context, id, title, description string) (models.Playlist, error)
	Delete(ctx context.Context, id string) error
	AppendVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}
