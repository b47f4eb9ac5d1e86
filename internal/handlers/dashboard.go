package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/graph"
	"github.com/vidtube/backend/internal/middleware"
)

// DashboardHandler serves the caller's own channel analytics.
type DashboardHandler struct {
	Engine *graph.Engine
}

// Stats handles GET /api/v1/dashboard/stats.
func (h DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		fail(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	stats, err := h.Engine.ChannelStats(ctx, identity.ID)
	if err != nil {
		failFromError(ctx, w, err, "load channel stats")
		return
	}

	respond(ctx, w, http.StatusOK, stats, "channel stats")
}

// Videos handles GET /api/v1/dashboard/videos: every video the caller owns,
// drafts included, with like counts.
func (h DashboardHandler) Videos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		fail(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	videos, err := h.Engine.ChannelVideos(ctx, identity.ID)
	if err != nil {
		failFromError(ctx, w, err, "load channel videos")
		return
	}

	respond(ctx, w, http.StatusOK, videos, "channel videos")
}
