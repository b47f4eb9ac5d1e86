// Package graph answers social-graph read queries by composing lookups over
// the independent entity collections: batch-fetch the related ids, join in
// memory, project. There is no relational join in the store, so enrichment
// happens here, and a missing join target degrades to an absent field rather
// than failing the query.
package graph

import (
	"context"
	"fmt"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

// AccountReader is the account lookup surface the engine joins against.
type AccountReader interface {
	FindByID(ctx context.Context, id string) (models.Account, error)
	FindByUsernameOrID(ctx context.Context, identifier string) (models.Account, error)
	FindManyByIDs(ctx context.Context, ids []string) (map[string]models.Account, error)
}

// VideoReader is the video lookup surface the engine joins against.
type VideoReader interface {
	FindManyByIDs(ctx context.Context, ids []string) (map[string]models.Video, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	ListPublished(ctx context.Context, offset, limit int) ([]models.Video, error)
	CountPublished(ctx context.Context) (int64, error)
}

// CommentReader is the comment lookup surface the engine pages over.
type CommentReader interface {
	ListByVideo(ctx context.Context, videoID string, offset, limit int) ([]models.Comment, error)
	CountByVideo(ctx context.Context, videoID string) (int64, error)
}

// LikeReader is the like lookup surface the engine aggregates over.
type LikeReader interface {
	ListByAccount(ctx context.Context, accountID string, kind models.LikeTarget) ([]models.Like, error)
	CountByTargets(ctx context.Context, kind models.LikeTarget, targetIDs []string) (map[string]int64, error)
}

// SubscriptionReader is the subscription lookup surface the engine uses.
type SubscriptionReader interface {
	ListBySubscriber(ctx context.Context, subscriberID string) ([]models.Subscription, error)
	ListByChannel(ctx context.Context, channelID string) ([]models.Subscription, error)
	CountByChannel(ctx context.Context, channelID string) (int64, error)
	CountBySubscriber(ctx context.Context, subscriberID string) (int64, error)
}

// PlaylistReader is the playlist lookup surface the engine pages over.
type PlaylistReader interface {
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]models.Playlist, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
}

// Engine composes multi-entity read queries over the entity collections.
type Engine struct {
	accounts      AccountReader
	videos        VideoReader
	comments      CommentReader
	likes         LikeReader
	subscriptions SubscriptionReader
	playlists     PlaylistReader
}

// NewEngine wires the query engine to its entity collections.
func NewEngine(
	accounts AccountReader,
	videos VideoReader,
	comments CommentReader,
	likes LikeReader,
	subscriptions SubscriptionReader,
	playlists PlaylistReader,
) *Engine {
	return &Engine{
		accounts:      accounts,
		videos:        videos,
		comments:      comments,
		likes:         likes,
		subscriptions: subscriptions,
		playlists:     playlists,
	}
}

const defaultPageLimit = 10

// NormalizePage clamps 1-indexed pagination input to sane values.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	return page, limit
}

func totalPages(totalCount int64, limit int) int {
	return int((totalCount + int64(limit) - 1) / int64(limit))
}

// VideoComments returns one page of a video's comments, each enriched with
// the author's public profile. Ordering is insertion order (created_at, id)
// so pages are reproducible.
func (e *Engine) VideoComments(ctx context.Context, videoID string, page, limit int) (CommentPage, error) {
	page, limit = NormalizePage(page, limit)

	comments, err := e.comments.ListByVideo(ctx, videoID, (page-1)*limit, limit)
	if err != nil {
		return CommentPage{}, fmt.Errorf("list comments: %w", err)
	}

	totalCount, err := e.comments.CountByVideo(ctx, videoID)
	if err != nil {
		return CommentPage{}, fmt.Errorf("count comments: %w", err)
	}

	authorIDs := make([]string, 0, len(comments))
	for _, c := range comments {
		authorIDs = append(authorIDs, c.AuthorID)
	}
	authors, err := e.accounts.FindManyByIDs(ctx, authorIDs)
	if err != nil {
		return CommentPage{}, fmt.Errorf("enrich comment authors: %w", err)
	}

	enriched := make([]CommentWithAuthor, 0, len(comments))
	for _, c := range comments {
		entry := CommentWithAuthor{
			ID:        c.ID,
			VideoID:   c.VideoID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		}
		if author, ok := authors[c.AuthorID]; ok {
			profile := author.Public()
			entry.Author = &profile
		}
		enriched = append(enriched, entry)
	}

	return CommentPage{
		Comments:   enriched,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(totalCount, limit),
		TotalCount: totalCount,
	}, nil
}

// ChannelStats aggregates subscriber count plus per-video like counts and
// the view/like totals across the channel's videos.
func (e *Engine) ChannelStats(ctx context.Context, channelID string) (ChannelStats, error) {
	ctx, span := logging.StartSpan(ctx, "graph.channel_stats")
	defer span.End()

	subscriberCount, err := e.subscriptions.CountByChannel(ctx, channelID)
	if err != nil {
		return ChannelStats{}, fmt.Errorf("count subscribers: %w", err)
	}

	videos, err := e.channelVideosWithLikes(ctx, channelID)
	if err != nil {
		return ChannelStats{}, err
	}

	stats := ChannelStats{
		SubscriberCount: subscriberCount,
		Videos:          videos,
	}
	for _, v := range videos {
		stats.TotalLikes += v.Likes
		stats.TotalViews += v.Views
	}
	return stats, nil
}

// ChannelVideos returns the channel's videos enriched with like counts.
func (e *Engine) ChannelVideos(ctx context.Context, channelID string) ([]VideoWithLikes, error) {
	return e.channelVideosWithLikes(ctx, channelID)
}

func (e *Engine) channelVideosWithLikes(ctx context.Context, channelID string) ([]VideoWithLikes, error) {
	videos, err := e.videos.ListByOwner(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("list channel videos: %w", err)
	}

	ids := make([]string, 0, len(videos))
	for _, v := range videos {
		ids = append(ids, v.ID)
	}
	likeCounts, err := e.likes.CountByTargets(ctx, models.LikeTargetVideo, ids)
	if err != nil {
		return nil, fmt.Errorf("count video likes: %w", err)
	}

	result := make([]VideoWithLikes, 0, len(videos))
	for _, v := range videos {
		result = append(result, VideoWithLikes{
			ID:           v.ID,
			Title:        v.Title,
			ThumbnailURL: v.ThumbnailURL,
			Views:        v.Views,
			Published:    v.Published,
			CreatedAt:    v.CreatedAt,
			UpdatedAt:    v.UpdatedAt,
			Likes:        likeCounts[v.ID],
		})
	}
	return result, nil
}

// LikedVideos returns the videos an account has liked. Likes whose video has
// since been deleted are dropped, and the published flag is not part of the
// projection.
func (e *Engine) LikedVideos(ctx context.Context, accountID string) ([]LikedVideo, error) {
	likes, err := e.likes.ListByAccount(ctx, accountID, models.LikeTargetVideo)
	if err != nil {
		return nil, fmt.Errorf("list likes: %w", err)
	}

	ids := make([]string, 0, len(likes))
	for _, l := range likes {
		ids = append(ids, l.TargetID)
	}
	videos, err := e.videos.FindManyByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("enrich liked videos: %w", err)
	}

	result := make([]LikedVideo, 0, len(likes))
	for _, l := range likes {
		video, ok := videos[l.TargetID]
		if !ok {
			continue
		}
		result = append(result, LikedVideo{
			ID:           video.ID,
			OwnerID:      video.OwnerID,
			Title:        video.Title,
			Description:  video.Description,
			VideoURL:     video.VideoURL,
			ThumbnailURL: video.ThumbnailURL,
			Duration:     video.Duration,
			Views:        video.Views,
			CreatedAt:    video.CreatedAt,
			UpdatedAt:    video.UpdatedAt,
		})
	}
	return result, nil
}

// Subscriptions returns the channels an account subscribes to, each
// flattened to the channel's public profile.
func (e *Engine) Subscriptions(ctx context.Context, accountID string) ([]ChannelEntry, error) {
	subs, err := e.subscriptions.ListBySubscriber(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.ChannelID)
	}
	accounts, err := e.accounts.FindManyByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("enrich channels: %w", err)
	}

	result := make([]ChannelEntry, 0, len(subs))
	for _, s := range subs {
		entry := ChannelEntry{SubscriptionID: s.ID}
		if account, ok := accounts[s.ChannelID]; ok {
			profile := account.Public()
			entry.Channel = &profile
		}
		result = append(result, entry)
	}
	return result, nil
}

// Subscribers returns the accounts subscribed to a channel, each flattened
// to the subscriber's public profile.
func (e *Engine) Subscribers(ctx context.Context, channelID string) ([]SubscriberEntry, error) {
	subs, err := e.subscriptions.ListByChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}

	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.SubscriberID)
	}
	accounts, err := e.accounts.FindManyByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("enrich subscribers: %w", err)
	}

	result := make([]SubscriberEntry, 0, len(subs))
	for _, s := range subs {
		entry := SubscriberEntry{SubscriptionID: s.ID}
		if account, ok := accounts[s.SubscriberID]; ok {
			profile := account.Public()
			entry.Subscriber = &profile
		}
		result = append(result, entry)
	}
	return result, nil
}

// PlaylistsByOwner returns one page of an account's playlists.
func (e *Engine) PlaylistsByOwner(ctx context.Context, ownerID string, page, limit int) (PlaylistPage, error) {
	page, limit = NormalizePage(page, limit)

	playlists, err := e.playlists.ListByOwner(ctx, ownerID, (page-1)*limit, limit)
	if err != nil {
		return PlaylistPage{}, fmt.Errorf("list playlists: %w", err)
	}

	totalCount, err := e.playlists.CountByOwner(ctx, ownerID)
	if err != nil {
		return PlaylistPage{}, fmt.Errorf("count playlists: %w", err)
	}

	summaries := make([]PlaylistSummary, 0, len(playlists))
	for _, p := range playlists {
		summaries = append(summaries, PlaylistSummary{
			ID:          p.ID,
			OwnerID:     p.OwnerID,
			Title:       p.Title,
			Description: p.Description,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		})
	}

	return PlaylistPage{
		Playlists:  summaries,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(totalCount, limit),
		TotalCount: totalCount,
	}, nil
}

// PlaylistByID returns a playlist with its video sequence enriched in stored
// order. Videos deleted since they were added are omitted from the sequence.
func (e *Engine) PlaylistByID(ctx context.Context, playlistID string) (PlaylistDetail, error) {
	playlist, err := e.playlists.FindByID(ctx, playlistID)
	if err != nil {
		return PlaylistDetail{}, err
	}

	videos, err := e.videos.FindManyByIDs(ctx, playlist.VideoIDs)
	if err != nil {
		return PlaylistDetail{}, fmt.Errorf("enrich playlist videos: %w", err)
	}

	detail := PlaylistDetail{
		ID:          playlist.ID,
		OwnerID:     playlist.OwnerID,
		Title:       playlist.Title,
		Description: playlist.Description,
		CreatedAt:   playlist.CreatedAt,
		UpdatedAt:   playlist.UpdatedAt,
		Videos:      make([]PlaylistVideo, 0, len(playlist.VideoIDs)),
	}
	for _, id := range playlist.VideoIDs {
		video, ok := videos[id]
		if !ok {
			continue
		}
		detail.Videos = append(detail.Videos, PlaylistVideo{
			ID:           video.ID,
			OwnerID:      video.OwnerID,
			Title:        video.Title,
			ThumbnailURL: video.ThumbnailURL,
			Duration:     video.Duration,
			CreatedAt:    video.CreatedAt,
			UpdatedAt:    video.UpdatedAt,
		})
	}
	return detail, nil
}

// ChannelProfile resolves a channel by username or id and decorates it with
// subscription counts. isSubscribed reports whether the viewer is among the
// channel's subscribers; it is always false for anonymous viewers.
func (e *Engine) ChannelProfile(ctx context.Context, identifier, viewerID string) (ChannelProfile, error) {
	account, err := e.accounts.FindByUsernameOrID(ctx, identifier)
	if err != nil {
		return ChannelProfile{}, err
	}

	subscribers, err := e.subscriptions.ListByChannel(ctx, account.ID)
	if err != nil {
		return ChannelProfile{}, fmt.Errorf("list subscribers: %w", err)
	}

	subscribedToCount, err := e.subscriptions.CountBySubscriber(ctx, account.ID)
	if err != nil {
		return ChannelProfile{}, fmt.Errorf("count subscribed-to: %w", err)
	}

	isSubscribed := false
	if viewerID != "" {
		for _, s := range subscribers {
			if s.SubscriberID == viewerID {
				isSubscribed = true
				break
			}
		}
	}

	return ChannelProfile{
		ID:                account.ID,
		Username:          account.Username,
		FullName:          account.FullName,
		Avatar:            account.AvatarURL,
		Cover:             account.CoverURL,
		SubscriberCount:   int64(len(subscribers)),
		SubscribedToCount: subscribedToCount,
		IsSubscribed:      isSubscribed,
	}, nil
}

// WatchHistory enriches the account's stored video-id sequence with full
// videos, each nested-enriched with its owner's public profile. Deleted
// videos are omitted; a deleted owner degrades to an absent owner field.
func (e *Engine) WatchHistory(ctx context.Context, accountID string) ([]VideoWithOwner, error) {
	ctx, span := logging.StartSpan(ctx, "graph.watch_history")
	defer span.End()

	account, err := e.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	videos, err := e.videos.FindManyByIDs(ctx, account.WatchHistory)
	if err != nil {
		return nil, fmt.Errorf("enrich watch history: %w", err)
	}

	ownerIDs := make([]string, 0, len(videos))
	for _, v := range videos {
		ownerIDs = append(ownerIDs, v.OwnerID)
	}
	owners, err := e.accounts.FindManyByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("enrich video owners: %w", err)
	}

	result := make([]VideoWithOwner, 0, len(account.WatchHistory))
	for _, id := range account.WatchHistory {
		video, ok := videos[id]
		if !ok {
			continue
		}
		result = append(result, newVideoWithOwner(video, owners))
	}
	return result, nil
}

// PublishedVideos returns one page of published videos, each enriched with
// the owner's public profile.
func (e *Engine) PublishedVideos(ctx context.Context, page, limit int) (VideoPage, error) {
	page, limit = NormalizePage(page, limit)

	videos, err := e.videos.ListPublished(ctx, (page-1)*limit, limit)
	if err != nil {
		return VideoPage{}, fmt.Errorf("list published videos: %w", err)
	}

	totalCount, err := e.videos.CountPublished(ctx)
	if err != nil {
		return VideoPage{}, fmt.Errorf("count published videos: %w", err)
	}

	ownerIDs := make([]string, 0, len(videos))
	for _, v := range videos {
		ownerIDs = append(ownerIDs, v.OwnerID)
	}
	owners, err := e.accounts.FindManyByIDs(ctx, ownerIDs)
	if err != nil {
		return VideoPage{}, fmt.Errorf("enrich video owners: %w", err)
	}

	enriched := make([]VideoWithOwner, 0, len(videos))
	for _, v := range videos {
		enriched = append(enriched, newVideoWithOwner(v, owners))
	}

	return VideoPage{
		Videos:     enriched,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(totalCount, limit),
		TotalCount: totalCount,
	}, nil
}

func newVideoWithOwner(video models.Video, owners map[string]models.Account) VideoWithOwner {
	entry := VideoWithOwner{
		ID:           video.ID,
		Title:        video.Title,
		Description:  video.Description,
		VideoURL:     video.VideoURL,
		ThumbnailURL: video.ThumbnailURL,
		Duration:     video.Duration,
		Views:        video.Views,
		CreatedAt:    video.CreatedAt,
		UpdatedAt:    video.UpdatedAt,
	}
	if owner, ok := owners[video.OwnerID]; ok {
		profile := owner.Public()
		entry.Owner = &profile
	}
	return entry
}
