package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/graph"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
)

// LikeHandler serves like toggles and the liked-videos listing.
type LikeHandler struct {
	Likes    LikeStore
	Videos   VideoStore
	Comments CommentStore
	Engine   *graph.Engine
}

// ToggleVideo handles POST /api/v1/likes/video/{id}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetVideo)
}

// ToggleComment handles POST /api/v1/likes/comment/{id}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetComment)
}

// toggle flips the caller's like on the target: present → removed, absent →
// added. The target must exist when the like is being added.
func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, kind models.LikeTarget) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		fail(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	targetID := r.PathValue("id")
	var err error
	switch kind {
	case models.LikeTargetVideo:
		_, err = h.Videos.FindByID(ctx, targetID)
	case models.LikeTargetComment:
		_, err = h.Comments.FindByID(ctx, targetID)
	}
	if err != nil {
		failFromError(ctx, w, err, "load like target")
		return
	}

	added, err := h.Likes.Toggle(ctx, models.Like{
		ID:         uuid.NewString(),
		AccountID:  identity.ID,
		TargetKind: kind,
		TargetID:   targetID,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		failFromError(ctx, w, err, "toggle like")
		return
	}

	state := "removed"
	if added {
		state = "added"
	}
	logging.FromContext(ctx).Info("like toggled", "kind", string(kind), "targetId", targetID, "state", state)
	respond(ctx, w, http.StatusOK, toggleResponse{State: state}, "like "+state)
}

// LikedVideos handles GET /api/v1/likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		fail(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	videos, err := h.Engine.LikedVideos(ctx, identity.ID)
	if err != nil {
		failFromError(ctx, w, err, "list liked videos")
		return
	}

	respond(ctx, w, http.StatusOK, videos, "liked videos")
}

type toggleResponse struct {
	State string `json:"state"`
}
