package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/graph"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
)

// CommentHandler serves comment creation, listing, and author mutations.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore
	Likes    LikeStore
	Engine   *graph.Engine
	NowFunc  func() time.Time
}

// Create handles POST /api/v1/videos/{id}/comments.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		fail(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	video, err := h.Videos.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		failFromError(ctx, w, err, "load video")
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		fail(ctx, w, http.StatusBadRequest, "comment content is required")
		return
	}

	now := h.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   video.ID,
		AuthorID:  identity.ID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		failFromError(ctx, w, err, "create comment")
		return
	}

	logging.FromContext(ctx).Info("comment created", "commentId", comment.ID, "videoId", video.ID)
	respond(ctx, w, http.StatusCreated, newCommentResponse(comment), "comment added")
}

// List handles GET /api/v1/videos/{id}/comments, paginated in insertion
// order with enriched authors.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, err := h.Videos.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		failFromError(ctx, w, err, "load video")
		return
	}

	page, limit := pageParams(r)
	result, err := h.Engine.VideoComments(ctx, video.ID, page, limit)
	if err != nil {
		failFromError(ctx, w, err, "list comments")
		return
	}

	respond(ctx, w, http.StatusOK, result, "comments")
}

// Update handles PATCH /api/v1/comments/{id}. Author only.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		fail(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	comment, err := h.Comments.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		failFromError(ctx, w, err, "load comment")
		return
	}
	if comment.AuthorID != identity.ID {
		fail(ctx, w, http.StatusForbidden, "only the author may modify this comment")
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		fail(ctx, w, http.StatusBadRequest, "comment content is required")
		return
	}

	updated, err := h.Comments.UpdateContent(ctx, comment.ID, req.Content)
	if err != nil {
		failFromError(ctx, w, err, "update comment")
		return
	}

	respond(ctx, w, http.StatusOK, newCommentResponse(updated), "comment updated")
}

// Delete handles DELETE /api/v1/comments/{id}. Author only; likes pointing
// at the comment are removed with it.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		fail(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	comment, err := h.Comments.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		failFromError(ctx, w, err, "load comment")
		return
	}
	if comment.AuthorID != identity.ID {
		fail(ctx, w, http.StatusForbidden, "only the author may delete this comment")
		return
	}

	if err := h.Comments.Delete(ctx, comment.ID); err != nil {
		failFromError(ctx, w, err, "delete comment")
		return
	}
	if err := h.Likes.DeleteByTarget(ctx, models.LikeTargetComment, comment.ID); err != nil {
		logger.Warn("delete comment likes", "commentId", comment.ID, "error", err)
	}

	logger.Info("comment deleted", "commentId", comment.ID)
	respond(ctx, w, http.StatusOK, nil, "comment deleted")
}

type commentRequest struct {
	Content string `json:"content"`
}

type commentResponse struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newCommentResponse(comment models.Comment) commentResponse {
	return commentResponse{
		ID:        comment.ID,
		VideoID:   comment.VideoID,
		AuthorID:  comment.AuthorID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
