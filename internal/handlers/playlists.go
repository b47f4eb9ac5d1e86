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

// PlaylistHandler serves playlist CRUD and sequence edits. Every mutation is
// restricted to the playlist owner.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Videos    VideoStore
	Engine    *graph.Engine
	NowFunc   func() time.Time
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		fail(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		fail(ctx, w, http.StatusBadRequest, "title is required")
		return
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     identity.ID,
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		failFromError(ctx, w, err, "create playlist")
		return
	}

	logging.FromContext(ctx).Info("playlist created", "playlistId", playlist.ID, "ownerId", identity.ID)
	respond(ctx, w, http.StatusCreated, newPlaylistResponse(playlist), "playlist created")
}

// ListByOwner handles GET /api/v1/users/{id}/playlists, paginated.
func (h PlaylistHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, limit := pageParams(r)
	result, err := h.Engine.PlaylistsByOwner(ctx, r.PathValue("id"), page, limit)
	if err != nil {
		failFromError(ctx, w, err, "list playlists")
		return
	}

	respond(ctx, w, http.StatusOK, result, "playlists")
}

// Get handles GET /api/v1/playlists/{id}: the playlist with its video
// sequence enriched in stored order.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	detail, err := h.Engine.PlaylistByID(ctx, r.PathValue("id"))
	if err != nil {
		failFromError(ctx, w, err, "load playlist")
		return
	}

	respond(ctx, w, http.StatusOK, detail, "playlist")
}

// Update handles PATCH /api/v1/playlists/{id}. Owner only.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" && req.Description == "" {
		fail(ctx, w, http.StatusBadRequest, "nothing to update")
		return
	}

	updated, err := h.Playlists.UpdateDetails(ctx, playlist.ID, req.Title, req.Description)
	if err != nil {
		failFromError(ctx, w, err, "update playlist")
		return
	}

	respond(ctx, w, http.StatusOK, newPlaylistResponse(updated), "playlist updated")
}

// Delete handles DELETE /api/v1/playlists/{id}. Owner only.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	if err := h.Playlists.Delete(ctx, playlist.ID); err != nil {
		failFromError(ctx, w, err, "delete playlist")
		return
	}

	logging.FromContext(ctx).Info("playlist deleted", "playlistId", playlist.ID)
	respond(ctx, w, http.StatusOK, nil, "playlist deleted")
}

// AddVideo handles POST /api/v1/playlists/{id}/videos/{videoId}. The video
// is appended at the end; the same video may appear more than once.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	videoID := r.PathValue("videoId")
	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		failFromError(ctx, w, err, "load video")
		return
	}

	if err := h.Playlists.AppendVideo(ctx, playlist.ID, videoID); err != nil {
		failFromError(ctx, w, err, "append playlist video")
		return
	}

	logging.FromContext(ctx).Info("playlist video added", "playlistId", playlist.ID, "videoId", videoID)
	respond(ctx, w, http.StatusOK, nil, "video added to playlist")
}

// RemoveVideo handles DELETE /api/v1/playlists/{id}/videos/{videoId}. Every
// occurrence of the video is removed.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	videoID := r.PathValue("videoId")
	if err := h.Playlists.RemoveVideo(ctx, playlist.ID, videoID); err != nil {
		failFromError(ctx, w, err, "remove playlist video")
		return
	}

	logging.FromContext(ctx).Info("playlist video removed", "playlistId", playlist.ID, "videoId", videoID)
	respond(ctx, w, http.StatusOK, nil, "video removed from playlist")
}

// ownedPlaylist loads the playlist from the path and enforces that the
// caller owns it, writing the error response itself on failure.
func (h PlaylistHandler) ownedPlaylist(w http.ResponseWriter, r *http.Request) (models.Playlist, bool) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		fail(ctx, w, http.StatusUnauthorized, "authentication required")
		return models.Playlist{}, false
	}

	playlist, err := h.Playlists.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		failFromError(ctx, w, err, "load playlist")
		return models.Playlist{}, false
	}
	if playlist.OwnerID != identity.ID {
		fail(ctx, w, http.StatusForbidden, "only the owner may modify this playlist")
		return models.Playlist{}, false
	}
	return playlist, true
}

type playlistRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type playlistResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newPlaylistResponse(playlist models.Playlist) playlistResponse {
	return playlistResponse{
		ID:          playlist.ID,
		OwnerID:     playlist.OwnerID,
		Title:       playlist.Title,
		Description: playlist.Description,
		CreatedAt:   playlist.CreatedAt,
		UpdatedAt:   playlist.UpdatedAt,
	}
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
