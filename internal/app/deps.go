package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/graph"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

// buildDependencies wires together the concrete implementations used by the
// HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	accounts := repositories.NewPostgresAccountRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)
	comments := repositories.NewPostgresCommentRepository(pool)
	likes := repositories.NewPostgresLikeRepository(pool)
	subscriptions := repositories.NewPostgresSubscriptionRepository(pool)
	playlists := repositories.NewPostgresPlaylistRepository(pool)

	sessionStore := repositories.NewPostgresSessionStore(pool)
	accessCodec := auth.NewCodec(cfg.AccessTokenSecret, cfg.AccessTokenTTL, auth.UseAccess)
	refreshCodec := auth.NewCodec(cfg.RefreshTokenSecret, cfg.RefreshTokenTTL, auth.UseRefresh)
	sessions := auth.NewManager(accessCodec, refreshCodec, sessionStore, accounts)

	blobs, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("configure object storage: %w", err)
	}

	engine := graph.NewEngine(accounts, videos, comments, likes, subscriptions, playlists)

	return handlers.Dependencies{
		Accounts:      accounts,
		Videos:        videos,
		Comments:      comments,
		Likes:         likes,
		Subscriptions: subscriptions,
		Playlists:     playlists,
		Sessions:      sessions,
		Engine:        engine,
		Storage:       blobs,
		Verifier:      sessions,
		AuthLimiter:   middleware.NewIPRateLimiter(cfg.AuthRateLimit, time.Minute, cfg.AuthRateLimitBurst, 10*time.Minute),
	}, nil
}
