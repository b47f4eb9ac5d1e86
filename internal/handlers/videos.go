package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/graph"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// VideoHandler serves upload, listing, playback-fetch, and owner mutations.
type VideoHandler struct {
	Videos   VideoStore
	Accounts AccountStore
	Likes    LikeStore
	Engine   *graph.Engine
	Storage  BlobStorage
	NowFunc  func() time.Time
}

// Create handles POST /api/v1/videos: a multipart form carrying the video
// file, its thumbnail, and the metadata fields.
func (h VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		fail(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		fail(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		fail(ctx, w, http.StatusBadRequest, "title is required")
		return
	}
	description := strings.TrimSpace(r.FormValue("description"))
	duration, _ := strconv.ParseFloat(r.FormValue("duration"), 64)

	videoFile, videoHeader, err := r.FormFile("video")
	if err != nil {
		fail(ctx, w, http.StatusBadRequest, "video file is required")
		return
	}
	videoURL, err := storeUpload(ctx, h.Storage, "videos", videoFile, videoHeader)
	if err != nil {
		logger.Error("upload video", "error", err)
		fail(ctx, w, http.StatusInternalServerError, "failed to store video")
		return
	}

	thumbFile, thumbHeader, err := r.FormFile("thumbnail")
	if err != nil {
		discardBlob(ctx, h.Storage, videoURL)
		fail(ctx, w, http.StatusBadRequest, "thumbnail file is required")
		return
	}
	thumbURL, err := storeUpload(ctx, h.Storage, "thumbnails", thumbFile, thumbHeader)
	if err != nil {
		discardBlob(ctx, h.Storage, videoURL)
		logger.Error("upload thumbnail", "error", err)
		fail(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
		return
	}

	now := h.now()
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      identity.ID,
		Title:        title,
		Description:  description,
		VideoURL:     videoURL,
		ThumbnailURL: thumbURL,
		Duration:     duration,
		Published:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		discardBlob(ctx, h.Storage, videoURL)
		discardBlob(ctx, h.Storage, thumbURL)
		failFromError(ctx, w, err, "create video")
		return
	}

	logger.Info("video uploaded", "videoId", video.ID, "ownerId", identity.ID)
	respond(ctx, w, http.StatusCreated, newVideoResponse(video), "video uploaded")
}

// List handles GET /api/v1/videos: published videos, paginated, each with
// the owner's public profile.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, limit := pageParams(r)
	result, err := h.Engine.PublishedVideos(ctx, page, limit)
	if err != nil {
		failFromError(ctx, w, err, "list published videos")
		return
	}

	respond(ctx, w, http.StatusOK, result, "videos")
}

// Get handles GET /api/v1/videos/{id}. Unpublished videos are visible only
// to their owner. A successful fetch counts a view and, for an authenticated
// viewer, moves the video to the front of their watch history.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, err := h.Videos.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		failFromError(ctx, w, err, "load video")
		return
	}

	identity, authenticated := middleware.IdentityFrom(ctx)
	if !video.Published && (!authenticated || identity.ID != video.OwnerID) {
		fail(ctx, w, http.StatusNotFound, "resource not found")
		return
	}

	if err := h.Videos.IncrementViews(ctx, video.ID); err != nil {
		logger.Warn("increment views", "videoId", video.ID, "error", err)
	} else {
		video.Views++
	}
	if authenticated {
		if err := h.Accounts.PushWatchHistory(ctx, identity.ID, video.ID); err != nil {
			logger.Warn("push watch history", "videoId", video.ID, "error", err)
		}
	}

	resp := newVideoResponse(video)
	if owner, err := h.Accounts.FindByID(ctx, video.OwnerID); err == nil {
		profile := owner.Public()
		resp.Owner = &profile
	} else if !errors.Is(err, repositories.ErrNotFound) {
		failFromError(ctx, w, err, "load video owner")
		return
	}

	respond(ctx, w, http.StatusOK, resp, "video")
}

// Update handles PATCH /api/v1/videos/{id}: title, description, and
// optionally a replacement thumbnail. Owner only.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

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
	if video.OwnerID != identity.ID {
		fail(ctx, w, http.StatusForbidden, "only the owner may modify this video")
		return
	}

	var title, description, thumbURL string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			fail(ctx, w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		title = strings.TrimSpace(r.FormValue("title"))
		description = strings.TrimSpace(r.FormValue("description"))
		thumbURL, err = optionalUpload(ctx, h.Storage, r, "thumbnail", "thumbnails")
		if err != nil {
			logger.Error("upload thumbnail", "error", err)
			fail(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
			return
		}
	} else {
		var req updateVideoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			fail(ctx, w, http.StatusBadRequest, "invalid request body")
			return
		}
		title = strings.TrimSpace(req.Title)
		description = strings.TrimSpace(req.Description)
	}

	if title == "" && description == "" && thumbURL == "" {
		fail(ctx, w, http.StatusBadRequest, "nothing to update")
		return
	}

	oldThumb := video.ThumbnailURL
	updated, err := h.Videos.Update(ctx, video.ID, title, description, thumbURL)
	if err != nil {
		discardBlob(ctx, h.Storage, thumbURL)
		failFromError(ctx, w, err, "update video")
		return
	}
	if thumbURL != "" && oldThumb != thumbURL {
		discardBlob(ctx, h.Storage, oldThumb)
	}

	logger.Info("video updated", "videoId", video.ID)
	respond(ctx, w, http.StatusOK, newVideoResponse(updated), "video updated")
}

// Delete handles DELETE /api/v1/videos/{id}: the record, its blobs, and its
// likes are removed. Owner only.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

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
	if video.OwnerID != identity.ID {
		fail(ctx, w, http.StatusForbidden, "only the owner may delete this video")
		return
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		failFromError(ctx, w, err, "delete video")
		return
	}

	discardBlob(ctx, h.Storage, video.VideoURL)
	discardBlob(ctx, h.Storage, video.ThumbnailURL)
	if err := h.Likes.DeleteByTarget(ctx, models.LikeTargetVideo, video.ID); err != nil {
		logger.Warn("delete video likes", "videoId", video.ID, "error", err)
	}

	logger.Info("video deleted", "videoId", video.ID, "ownerId", identity.ID)
	respond(ctx, w, http.StatusOK, nil, "video deleted")
}

type updateVideoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type videoResponse struct {
	ID           string                `json:"id"`
	OwnerID      string                `json:"ownerId"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	VideoURL     string                `json:"videoFile"`
	ThumbnailURL string                `json:"thumbnail"`
	Duration     float64               `json:"duration"`
	Views        int64                 `json:"views"`
	Published    bool                  `json:"published"`
	Owner        *models.PublicProfile `json:"owner,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
}

func newVideoResponse(video models.Video) videoResponse {
	return videoResponse{
		ID:           video.ID,
		OwnerID:      video.OwnerID,
		Title:        video.Title,
		Description:  video.Description,
		VideoURL:     video.VideoURL,
		ThumbnailURL: video.ThumbnailURL,
		Duration:     video.Duration,
		Views:        video.Views,
		Published:    video.Published,
		CreatedAt:    video.CreatedAt,
		UpdatedAt:    video.UpdatedAt,
	}
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
