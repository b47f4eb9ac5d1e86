package graph

import (
	"time"

	"github.com/vidtube/backend/internal/models"
)

// CommentWithAuthor is a comment enriched with its author's public profile.
// Author is nil when the account has been deleted.
type CommentWithAuthor struct {
	ID        string                `json:"id"`
	VideoID   string                `json:"videoId"`
	Content   string                `json:"content"`
	Author    *models.PublicProfile `json:"author,omitempty"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

// CommentPage is one page of a video's comments.
type CommentPage struct {
	Comments   []CommentWithAuthor `json:"comments"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
	TotalPages int                 `json:"totalPages"`
	TotalCount int64               `json:"totalCount"`
}

// VideoWithLikes is a channel-owned video summary with its like count.
type VideoWithLikes struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ThumbnailURL string    `json:"thumbnail"`
	Views        int64     `json:"views"`
	Published    bool      `json:"published"`
	Likes        int64     `json:"likes"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ChannelStats aggregates a channel's dashboard numbers.
type ChannelStats struct {
	SubscriberCount int64            `json:"subscriberCount"`
	TotalLikes      int64            `json:"totalLikes"`
	TotalViews      int64            `json:"totalViews"`
	Videos          []VideoWithLikes `json:"videos"`
}

// LikedVideo is the projection of a liked video; the published flag is
// deliberately not included.
type LikedVideo struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"videoFile"`
	ThumbnailURL string    `json:"thumbnail"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ChannelEntry is one subscription flattened to the channel's profile.
// Channel is nil when the channel account no longer exists.
type ChannelEntry struct {
	SubscriptionID string                `json:"subscriptionId"`
	Channel        *models.PublicProfile `json:"channel,omitempty"`
}

// SubscriberEntry is one subscription flattened to the subscriber's profile.
type SubscriberEntry struct {
	SubscriptionID string                `json:"subscriptionId"`
	Subscriber     *models.PublicProfile `json:"subscriber,omitempty"`
}

// PlaylistSummary is a playlist without its video sequence.
type PlaylistSummary struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PlaylistPage is one page of an owner's playlists.
type PlaylistPage struct {
	Playlists  []PlaylistSummary `json:"playlists"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"totalPages"`
	TotalCount int64             `json:"totalCount"`
}

// PlaylistVideo is the public projection of a video inside a playlist.
type PlaylistVideo struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Title        string    `json:"title"`
	ThumbnailURL string    `json:"thumbnail"`
	Duration     float64   `json:"duration"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PlaylistDetail is a playlist with its enriched video sequence in stored order.
type PlaylistDetail struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"ownerId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Videos      []PlaylistVideo `json:"videos"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ChannelProfile is the public channel page: profile fields plus
// subscription counts and the viewer's membership flag.
type ChannelProfile struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	FullName          string `json:"fullName"`
	Avatar            string `json:"avatar"`
	Cover             string `json:"cover"`
	SubscriberCount   int64  `json:"subscriberCount"`
	SubscribedToCount int64  `json:"subscribedToCount"`
	IsSubscribed      bool   `json:"isSubscribed"`
}

// VideoWithOwner is a video enriched with its owner's public profile.
// Owner is nil when the owning account has been deleted.
type VideoWithOwner struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	VideoURL     string                `json:"videoFile"`
	ThumbnailURL string                `json:"thumbnail"`
	Duration     float64               `json:"duration"`
	Views        int64                 `json:"views"`
	Owner        *models.PublicProfile `json:"owner,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
}

// VideoPage is one page of published videos.
type VideoPage struct {
	Videos     []VideoWithOwner `json:"videos"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
	TotalCount int64            `json:"totalCount"`
}
