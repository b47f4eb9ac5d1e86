package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

type fakeAccounts map[string]models.Account

func (f fakeAccounts) FindByID(_ context.Context, id string) (models.Account, error) {
	if account, ok := f[id]; ok {
		return account, nil
	}
	return models.Account{}, repositories.ErrNotFound
}

func (f fakeAccounts) FindByUsernameOrID(_ context.Context, identifier string) (models.Account, error) {
	for _, account := range f {
		if account.Username == identifier || account.ID == identifier {
			return account, nil
		}
	}
	return models.Account{}, repositories.ErrNotFound
}

func (f fakeAccounts) FindManyByIDs(_ context.Context, ids []string) (map[string]models.Account, error) {
	result := make(map[string]models.Account)
	for _, id := range ids {
		if account, ok := f[id]; ok {
			result[id] = account
		}
	}
	return result, nil
}

type fakeVideos []models.Video

func (f fakeVideos) FindManyByIDs(_ context.Context, ids []string) (map[string]models.Video, error) {
	result := make(map[string]models.Video)
	for _, id := range ids {
		for _, v := range f {
			if v.ID == id {
				result[id] = v
			}
		}
	}
	return result, nil
}

func (f fakeVideos) ListByOwner(_ context.Context, ownerID string) ([]models.Video, error) {
	var out []models.Video
	for _, v := range f {
		if v.OwnerID == ownerID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f fakeVideos) ListPublished(_ context.Context, offset, limit int) ([]models.Video, error) {
	var published []models.Video
	for _, v := range f {
		if v.Published {
			published = append(published, v)
		}
	}
	if offset >= len(published) {
		return nil, nil
	}
	end := offset + limit
	if end > len(published) {
		end = len(published)
	}
	return published[offset:end], nil
}

func (f fakeVideos) CountPublished(_ context.Context) (int64, error) {
	var count int64
	for _, v := range f {
		if v.Published {
			count++
		}
	}
	return count, nil
}

type fakeComments []models.Comment

func (f fakeComments) ListByVideo(_ context.Context, videoID string, offset, limit int) ([]models.Comment, error) {
	var matched []models.Comment
	for _, c := range f {
		if c.VideoID == videoID {
			matched = append(matched, c)
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (f fakeComments) CountByVideo(_ context.Context, videoID string) (int64, error) {
	var count int64
	for _, c := range f {
		if c.VideoID == videoID {
			count++
		}
	}
	return count, nil
}

type fakeLikes []models.Like

func (f fakeLikes) ListByAccount(_ context.Context, accountID string, kind models.LikeTarget) ([]models.Like, error) {
	var out []models.Like
	for _, l := range f {
		if l.AccountID == accountID && l.TargetKind == kind {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f fakeLikes) CountByTargets(_ context.Context, kind models.LikeTarget, targetIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, id := range targetIDs {
		for _, l := range f {
			if l.TargetKind == kind && l.TargetID == id {
				counts[id]++
			}
		}
	}
	return counts, nil
}

type fakeSubscriptions []models.Subscription

func (f fakeSubscriptions) ListBySubscriber(_ context.Context, subscriberID string) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, s := range f {
		if s.SubscriberID == subscriberID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f fakeSubscriptions) ListByChannel(_ context.Context, channelID string) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, s := range f {
		if s.ChannelID == channelID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f fakeSubscriptions) CountByChannel(ctx context.Context, channelID string) (int64, error) {
	subs, _ := f.ListByChannel(ctx, channelID)
	return int64(len(subs)), nil
}

func (f fakeSubscriptions) CountBySubscriber(ctx context.Context, subscriberID string) (int64, error) {
	subs, _ := f.ListBySubscriber(ctx, subscriberID)
	return int64(len(subs)), nil
}

type fakePlaylists []models.Playlist

func (f fakePlaylists) FindByID(_ context.Context, id string) (models.Playlist, error) {
	for _, p := range f {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Playlist{}, repositories.ErrNotFound
}

func (f fakePlaylists) ListByOwner(_ context.Context, ownerID string, offset, limit int) ([]models.Playlist, error) {
	var matched []models.Playlist
	for _, p := range f {
		if p.OwnerID == ownerID {
			matched = append(matched, p)
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (f fakePlaylists) CountByOwner(_ context.Context, ownerID string) (int64, error) {
	var count int64
	for _, p := range f {
		if p.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func newTestEngine(
	accounts fakeAccounts,
	videos fakeVideos,
	comments fakeComments,
	likes fakeLikes,
	subs fakeSubscriptions,
	playlists fakePlaylists,
) *Engine {
	return NewEngine(accounts, videos, comments, likes, subs, playlists)
}

func TestVideoCommentsPagination(t *testing.T) {
	accounts := fakeAccounts{
		"author-1": {ID: "author-1", Username: "alice", FullName: "Alice", AvatarURL: "a.png"},
	}
	comments := fakeComments{
		{ID: "c1", VideoID: "v1", AuthorID: "author-1", Content: "first"},
		{ID: "c2", VideoID: "v1", AuthorID: "author-1", Content: "second"},
		{ID: "c3", VideoID: "v1", AuthorID: "gone", Content: "third"},
		{ID: "c4", VideoID: "other", AuthorID: "author-1", Content: "elsewhere"},
	}
	engine := newTestEngine(accounts, nil, comments, nil, nil, nil)

	page, err := engine.VideoComments(context.Background(), "v1", 1, 2)
	if err != nil {
		t.Fatalf("video comments: %v", err)
	}
	if len(page.Comments) != 2 {
		t.Fatalf("expected 2 comments on page 1, got %d", len(page.Comments))
	}
	if page.TotalPages != 2 || page.TotalCount != 3 {
		t.Fatalf("expected totalPages=2 totalCount=3, got %d/%d", page.TotalPages, page.TotalCount)
	}
	if page.Comments[0].Author == nil || page.Comments[0].Author.Username != "alice" {
		t.Fatalf("expected enriched author, got %+v", page.Comments[0].Author)
	}

	page2, err := engine.VideoComments(context.Background(), "v1", 2, 2)
	if err != nil {
		t.Fatalf("video comments page 2: %v", err)
	}
	if len(page2.Comments) != 1 {
		t.Fatalf("expected 1 comment on page 2, got %d", len(page2.Comments))
	}
	if page2.Comments[0].Author != nil {
		t.Fatal("deleted author should degrade to an absent enrichment")
	}
}

func TestVideoCommentsNormalizesPagination(t *testing.T) {
	engine := newTestEngine(fakeAccounts{}, nil, fakeComments{}, nil, nil, nil)

	page, err := engine.VideoComments(context.Background(), "v1", 0, -5)
	if err != nil {
		t.Fatalf("video comments: %v", err)
	}
	if page.Page != 1 || page.Limit != defaultPageLimit {
		t.Fatalf("expected normalized page=1 limit=%d, got %d/%d", defaultPageLimit, page.Page, page.Limit)
	}
}

func TestChannelStatsAggregation(t *testing.T) {
	videos := fakeVideos{
		{ID: "v1", OwnerID: "chan", Title: "one", Views: 10, Published: true},
		{ID: "v2", OwnerID: "chan", Title: "two", Views: 20, Published: true},
		{ID: "v3", OwnerID: "someone-else", Views: 999, Published: true},
	}
	likes := fakeLikes{
		{AccountID: "u1", TargetKind: models.LikeTargetVideo, TargetID: "v1"},
		{AccountID: "u1", TargetKind: models.LikeTargetVideo, TargetID: "v2"},
		{AccountID: "u2", TargetKind: models.LikeTargetVideo, TargetID: "v2"},
		{AccountID: "u3", TargetKind: models.LikeTargetVideo, TargetID: "v2"},
		{AccountID: "u1", TargetKind: models.LikeTargetComment, TargetID: "v1"},
	}
	subs := fakeSubscriptions{
		{ID: "s1", SubscriberID: "u1", ChannelID: "chan"},
		{ID: "s2", SubscriberID: "u2", ChannelID: "chan"},
	}
	engine := newTestEngine(fakeAccounts{}, videos, nil, likes, subs, nil)

	stats, err := engine.ChannelStats(context.Background(), "chan")
	if err != nil {
		t.Fatalf("channel stats: %v", err)
	}
	if stats.TotalViews != 30 {
		t.Fatalf("expected totalViews=30, got %d", stats.TotalViews)
	}
	if stats.TotalLikes != 4 {
		t.Fatalf("expected totalLikes=4, got %d", stats.TotalLikes)
	}
	if stats.SubscriberCount != 2 {
		t.Fatalf("expected 2 subscribers, got %d", stats.SubscriberCount)
	}
	if len(stats.Videos) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(stats.Videos))
	}
	if stats.Videos[0].Likes != 1 || stats.Videos[1].Likes != 3 {
		t.Fatalf("unexpected per-video likes: %+v", stats.Videos)
	}
}

func TestLikedVideosDropsDeletedTargets(t *testing.T) {
	videos := fakeVideos{
		{ID: "v1", OwnerID: "chan", Title: "kept", Published: true},
	}
	likes := fakeLikes{
		{ID: "l1", AccountID: "u1", TargetKind: models.LikeTargetVideo, TargetID: "v1"},
		{ID: "l2", AccountID: "u1", TargetKind: models.LikeTargetVideo, TargetID: "deleted"},
		{ID: "l3", AccountID: "u1", TargetKind: models.LikeTargetComment, TargetID: "c1"},
	}
	engine := newTestEngine(fakeAccounts{}, videos, nil, likes, nil, nil)

	liked, err := engine.LikedVideos(context.Background(), "u1")
	if err != nil {
		t.Fatalf("liked videos: %v", err)
	}
	if len(liked) != 1 {
		t.Fatalf("expected 1 liked video, got %d", len(liked))
	}
	if liked[0].ID != "v1" {
		t.Fatalf("expected v1, got %s", liked[0].ID)
	}
}

func TestSubscriptionsFlattenCounterpart(t *testing.T) {
	accounts := fakeAccounts{
		"chan": {ID: "chan", Username: "channel", FullName: "The Channel"},
		"u1":   {ID: "u1", Username: "watcher", FullName: "Watcher"},
	}
	subs := fakeSubscriptions{
		{ID: "s1", SubscriberID: "u1", ChannelID: "chan"},
		{ID: "s2", SubscriberID: "u1", ChannelID: "vanished"},
	}
	engine := newTestEngine(accounts, nil, nil, nil, subs, nil)

	channels, err := engine.Subscriptions(context.Background(), "u1")
	if err != nil {
		t.Fatalf("subscriptions: %v", err)
	}
	if len(channels) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(channels))
	}
	if channels[0].Channel == nil || channels[0].Channel.Username != "channel" {
		t.Fatalf("expected flattened channel profile, got %+v", channels[0])
	}
	if channels[1].Channel != nil {
		t.Fatal("deleted channel should degrade to an absent enrichment")
	}

	subscribers, err := engine.Subscribers(context.Background(), "chan")
	if err != nil {
		t.Fatalf("subscribers: %v", err)
	}
	if len(subscribers) != 1 || subscribers[0].Subscriber == nil || subscribers[0].Subscriber.Username != "watcher" {
		t.Fatalf("unexpected subscribers: %+v", subscribers)
	}
}

func TestPlaylistByIDPreservesOrderAndDuplicates(t *testing.T) {
	videos := fakeVideos{
		{ID: "v1", OwnerID: "chan", Title: "one", Duration: 10},
		{ID: "v2", OwnerID: "chan", Title: "two", Duration: 20},
	}
	playlists := fakePlaylists{
		{ID: "p1", OwnerID: "u1", Title: "mix", VideoIDs: []string{"v2", "v1", "gone", "v2"}},
	}
	engine := newTestEngine(fakeAccounts{}, videos, nil, nil, nil, playlists)

	detail, err := engine.PlaylistByID(context.Background(), "p1")
	if err != nil {
		t.Fatalf("playlist by id: %v", err)
	}
	got := make([]string, 0, len(detail.Videos))
	for _, v := range detail.Videos {
		got = append(got, v.ID)
	}
	want := []string{"v2", "v1", "v2"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestPlaylistByIDNotFound(t *testing.T) {
	engine := newTestEngine(fakeAccounts{}, nil, nil, nil, nil, fakePlaylists{})
	if _, err := engine.PlaylistByID(context.Background(), "missing"); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestChannelProfile(t *testing.T) {
	accounts := fakeAccounts{
		"chan": {ID: "chan", Username: "creator", FullName: "Creator", AvatarURL: "a.png", CoverURL: "c.png"},
	}
	subs := fakeSubscriptions{
		{ID: "s1", SubscriberID: "u1", ChannelID: "chan"},
		{ID: "s2", SubscriberID: "u2", ChannelID: "chan"},
		{ID: "s3", SubscriberID: "chan", ChannelID: "elsewhere"},
	}
	engine := newTestEngine(accounts, nil, nil, nil, subs, nil)

	profile, err := engine.ChannelProfile(context.Background(), "creator", "u1")
	if err != nil {
		t.Fatalf("channel profile: %v", err)
	}
	if profile.SubscriberCount != 2 || profile.SubscribedToCount != 1 {
		t.Fatalf("unexpected counts: %+v", profile)
	}
	if !profile.IsSubscribed {
		t.Fatal("expected isSubscribed for u1")
	}

	// Lookup by id, anonymous viewer.
	profile, err = engine.ChannelProfile(context.Background(), "chan", "")
	if err != nil {
		t.Fatalf("channel profile by id: %v", err)
	}
	if profile.IsSubscribed {
		t.Fatal("anonymous viewer must never be subscribed")
	}

	if _, err := engine.ChannelProfile(context.Background(), "nobody", ""); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestWatchHistoryEnrichment(t *testing.T) {
	now := time.Now().UTC()
	accounts := fakeAccounts{
		"viewer": {ID: "viewer", Username: "viewer", WatchHistory: []string{"v2", "deleted", "v1"}},
		"chan":   {ID: "chan", Username: "creator", FullName: "Creator"},
	}
	videos := fakeVideos{
		{ID: "v1", OwnerID: "chan", Title: "one", CreatedAt: now},
		{ID: "v2", OwnerID: "orphaned", Title: "two", CreatedAt: now},
	}
	engine := newTestEngine(accounts, videos, nil, nil, nil, nil)

	history, err := engine.WatchHistory(context.Background(), "viewer")
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected deleted video omitted, got %d entries", len(history))
	}
	if history[0].ID != "v2" || history[1].ID != "v1" {
		t.Fatalf("expected stored order preserved, got %+v", history)
	}
	if history[0].Owner != nil {
		t.Fatal("deleted owner should degrade to an absent enrichment")
	}
	if history[1].Owner == nil || history[1].Owner.Username != "creator" {
		t.Fatalf("expected nested owner enrichment, got %+v", history[1].Owner)
	}
}

func TestPublishedVideosFilterAndEnrich(t *testing.T) {
	accounts := fakeAccounts{
		"chan": {ID: "chan", Username: "creator"},
	}
	videos := fakeVideos{
		{ID: "v1", OwnerID: "chan", Title: "public", Published: true},
		{ID: "v2", OwnerID: "chan", Title: "draft", Published: false},
	}
	engine := newTestEngine(accounts, videos, nil, nil, nil, nil)

	page, err := engine.PublishedVideos(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("published videos: %v", err)
	}
	if len(page.Videos) != 1 || page.Videos[0].ID != "v1" {
		t.Fatalf("expected only the published video, got %+v", page.Videos)
	}
	if page.Videos[0].Owner == nil || page.Videos[0].Owner.Username != "creator" {
		t.Fatalf("expected owner enrichment, got %+v", page.Videos[0].Owner)
	}
	if page.TotalCount != 1 || page.TotalPages != 1 {
		t.Fatalf("unexpected pagination: %+v", page)
	}
}
