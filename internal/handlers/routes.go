package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/graph"
	"github.com/vidtube/backend/internal/middleware"
)

// Dependencies aggregates the collaborators required by the HTTP handlers.
type Dependencies struct {
	Accounts      AccountStore
	Videos        VideoStore
	Comments      CommentStore
	Likes         LikeStore
	Subscriptions SubscriptionStore
	Playlists     PlaylistStore
	Sessions      SessionManager
	Engine        *graph.Engine
	Storage       BlobStorage
	Verifier      middleware.AccessVerifier
	AuthLimiter   RateLimiter
}

// RegisterRoutes wires every endpoint into the provided ServeMux. Mandatory
// endpoints sit behind RequireIdentity; endpoints whose behaviour varies for
// authenticated viewers use ResolveIdentity instead.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	require := middleware.RequireIdentity(deps.Verifier, deps.Accounts)
	resolve := middleware.ResolveIdentity(deps.Verifier, deps.Accounts)

	health := HealthHandler{}
	authH := AuthHandler{Accounts: deps.Accounts, Sessions: deps.Sessions, Storage: deps.Storage, Limiter: deps.AuthLimiter}
	users := UserHandler{Accounts: deps.Accounts, Engine: deps.Engine, Storage: deps.Storage}
	videos := VideoHandler{Videos: deps.Videos, Accounts: deps.Accounts, Likes: deps.Likes, Engine: deps.Engine, Storage: deps.Storage}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos, Likes: deps.Likes, Engine: deps.Engine}
	likes := LikeHandler{Likes: deps.Likes, Videos: deps.Videos, Comments: deps.Comments, Engine: deps.Engine}
	subs := SubscriptionHandler{Subscriptions: deps.Subscriptions, Accounts: deps.Accounts, Engine: deps.Engine}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Videos: deps.Videos, Engine: deps.Engine}
	dashboard := DashboardHandler{Engine: deps.Engine}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/auth/register", authH.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authH.Login)
	mux.Handle("POST /api/v1/auth/logout", require(http.HandlerFunc(authH.Logout)))
	mux.HandleFunc("POST /api/v1/auth/refresh", authH.Refresh)
	mux.Handle("POST /api/v1/auth/change-password", require(http.HandlerFunc(authH.ChangePassword)))

	mux.Handle("GET /api/v1/users/me", resolve(http.HandlerFunc(users.Me)))
	mux.Handle("PATCH /api/v1/users/me", require(http.HandlerFunc(users.UpdateMe)))
	mux.Handle("PUT /api/v1/users/me/avatar", require(http.HandlerFunc(users.UpdateAvatar)))
	mux.Handle("PUT /api/v1/users/me/cover", require(http.HandlerFunc(users.UpdateCover)))
	mux.Handle("GET /api/v1/users/me/history", require(http.HandlerFunc(users.History)))
	mux.Handle("GET /api/v1/users/{identifier}/profile", resolve(http.HandlerFunc(users.Profile)))
	mux.Handle("GET /api/v1/users/{id}/playlists", resolve(http.HandlerFunc(playlists.ListByOwner)))

	mux.Handle("POST /api/v1/videos", require(http.HandlerFunc(videos.Create)))
	mux.Handle("GET /api/v1/videos", resolve(http.HandlerFunc(videos.List)))
	mux.Handle("GET /api/v1/videos/{id}", resolve(http.HandlerFunc(videos.Get)))
	mux.Handle("PATCH /api/v1/videos/{id}", require(http.HandlerFunc(videos.Update)))
	mux.Handle("DELETE /api/v1/videos/{id}", require(http.HandlerFunc(videos.Delete)))

	mux.Handle("POST /api/v1/videos/{id}/comments", require(http.HandlerFunc(comments.Create)))
	mux.HandleFunc("GET /api/v1/videos/{id}/comments", comments.List)
	mux.Handle("PATCH /api/v1/comments/{id}", require(http.HandlerFunc(comments.Update)))
	mux.Handle("DELETE /api/v1/comments/{id}", require(http.HandlerFunc(comments.Delete)))

	mux.Handle("POST /api/v1/likes/video/{id}", require(http.HandlerFunc(likes.ToggleVideo)))
	mux.Handle("POST /api/v1/likes/comment/{id}", require(http.HandlerFunc(likes.ToggleComment)))
	mux.Handle("GET /api/v1/likes/videos", require(http.HandlerFunc(likes.LikedVideos)))

	mux.Handle("POST /api/v1/subscriptions/{channelId}", require(http.HandlerFunc(subs.Toggle)))
	mux.Handle("GET /api/v1/subscriptions", resolve(http.HandlerFunc(subs.ListMine)))
	mux.Handle("GET /api/v1/channels/{id}/subscribers", resolve(http.HandlerFunc(subs.ListSubscribers)))

	mux.Handle("POST /api/v1/playlists", require(http.HandlerFunc(playlists.Create)))
	mux.HandleFunc("GET /api/v1/playlists/{id}", playlists.Get)
	mux.Handle("PATCH /api/v1/playlists/{id}", require(http.HandlerFunc(playlists.Update)))
	mux.Handle("DELETE /api/v1/playlists/{id}", require(http.HandlerFunc(playlists.Delete)))
	mux.Handle("POST /api/v1/playlists/{id}/videos/{videoId}", require(http.HandlerFunc(playlists.AddVideo)))
	mux.Handle("DELETE /api/v1/playlists/{id}/videos/{videoId}", require(http.HandlerFunc(playlists.RemoveVideo)))

	mux.Handle("GET /api/v1/dashboard/stats", require(http.HandlerFunc(dashboard.Stats)))
	mux.Handle("GET /api/v1/dashboard/videos", require(http.HandlerFunc(dashboard.Videos)))
}
