package handlers

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"

	"github.com/vidtube/backend/internal/graph"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/middleware"
)

// UserHandler serves profile, account-detail, and watch-history endpoints.
type UserHandler struct {
	Accounts AccountStore
	Engine   *graph.Engine
	Storage  BlobStorage
}

// Me handles GET /api/v1/users/me.
func (h UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		fail(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	respond(ctx, w, http.StatusOK, currentUserResponse{
		ID:       identity.ID,
		Username: identity.Username,
		Email:    identity.Email,
		FullName: identity.FullName,
		Avatar:   identity.AvatarURL,
		Cover:    identity.CoverURL,
	}, "current user")
}

// UpdateMe handles PATCH /api/v1/users/me. Only full name and email can be
// changed here; empty fields keep their stored value.
func (h UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		fail(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req updateDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.FullName == "" && req.Email == "" {
		fail(ctx, w, http.StatusBadRequest, "nothing to update")
		return
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			fail(ctx, w, http.StatusBadRequest, "invalid email address")
			return
		}
	}

	account, err := h.Accounts.UpdateDetails(ctx, identity.ID, req.FullName, req.Email)
	if err != nil {
		failFromError(ctx, w, err, "update account details")
		return
	}

	logging.FromContext(ctx).Info("account details updated", "accountId", identity.ID)
	respond(ctx, w, http.StatusOK, currentUserResponse{
		ID:       account.ID,
		Username: account.Username,
		Email:    account.Email,
		FullName: account.FullName,
		Avatar:   account.AvatarURL,
		Cover:    account.CoverURL,
	}, "account updated")
}

// UpdateAvatar handles PUT /api/v1/users/me/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "avatar", "avatars")
}

// UpdateCover handles PUT /api/v1/users/me/cover.
func (h UserHandler) UpdateCover(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "cover", "covers")
}

// replaceImage implements the avatar/cover replacement sequence: upload the
// new object, persist the new URL, then delete the old object. A persistence
// failure cleans up the just-uploaded object so no blob is orphaned.
func (h UserHandler) replaceImage(w http.ResponseWriter, r *http.Request, field, prefix string) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		fail(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		fail(ctx, w, http.StatusBadRequest, field+" file is required")
		return
	}

	newURL, err := storeUpload(ctx, h.Storage, prefix, file, header)
	if err != nil {
		logger.Error("upload "+field, "error", err)
		fail(ctx, w, http.StatusInternalServerError, "failed to store "+field)
		return
	}

	var oldURL string
	if field == "avatar" {
		oldURL = identity.AvatarURL
		err = h.Accounts.UpdateAvatar(ctx, identity.ID, newURL)
	} else {
		oldURL = identity.CoverURL
		err = h.Accounts.UpdateCover(ctx, identity.ID, newURL)
	}
	if err != nil {
		discardBlob(ctx, h.Storage, newURL)
		failFromError(ctx, w, err, "persist "+field)
		return
	}

	discardBlob(ctx, h.Storage, oldURL)
	logger.Info(field+" replaced", "accountId", identity.ID)
	respond(ctx, w, http.StatusOK, map[string]string{field: newURL}, field+" updated")
}

// Profile handles GET /api/v1/users/{identifier}/profile. The identifier may
// be a username or an account id; an authenticated viewer additionally gets
// their subscription membership.
func (h UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identifier := r.PathValue("identifier")
	if identifier == "" {
		fail(ctx, w, http.StatusBadRequest, "channel identifier is required")
		return
	}

	viewerID := ""
	if identity, ok := middleware.IdentityFrom(ctx); ok {
		viewerID = identity.ID
	}

	profile, err := h.Engine.ChannelProfile(ctx, identifier, viewerID)
	if err != nil {
		failFromError(ctx, w, err, "load channel profile")
		return
	}

	respond(ctx, w, http.StatusOK, profile, "channel profile")
}

// History handles GET /api/v1/users/me/history.
func (h UserHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		fail(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	history, err := h.Engine.WatchHistory(ctx, identity.ID)
	if err != nil {
		failFromError(ctx, w, err, "load watch history")
		return
	}

	respond(ctx, w, http.StatusOK, history, "watch history")
}

type currentUserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
	Cover    string `json:"cover"`
}

type updateDetailsRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}
