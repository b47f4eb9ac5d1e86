package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/repositories"
)

// envelope is the uniform response body: every endpoint, success or failure,
// returns this shape so clients can branch on the success flag alone.
type envelope struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors,omitempty"`
}

func respond(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	writeEnvelope(ctx, w, envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

func fail(ctx context.Context, w http.ResponseWriter, status int, message string, details ...string) {
	writeEnvelope(ctx, w, envelope{
		StatusCode: status,
		Data:       nil,
		Message:    message,
		Success:    false,
		Errors:     details,
	})
}

// failFromError maps sentinel errors onto HTTP statuses. Anything unmapped
// becomes a 500 with a generic message so internals never leak to callers.
func failFromError(ctx context.Context, w http.ResponseWriter, err error, operation string) {
	logger := logging.FromContext(ctx)

	switch {
	case errors.Is(err, repositories.ErrNotFound):
		fail(ctx, w, http.StatusNotFound, "resource not found")
	case errors.Is(err, repositories.ErrConflict):
		fail(ctx, w, http.StatusConflict, "resource already exists")
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenMismatch),
		errors.Is(err, auth.ErrSessionNotFound):
		fail(ctx, w, http.StatusUnauthorized, "invalid or expired credentials")
	default:
		logger.Error(operation, "error", err)
		fail(ctx, w, http.StatusInternalServerError, "internal server error")
	}
}

func writeEnvelope(ctx context.Context, w http.ResponseWriter, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.StatusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", body.StatusCode, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case body.StatusCode >= http.StatusInternalServerError:
		logger.Error("request failed", "status", body.StatusCode, "message", body.Message)
	case body.StatusCode >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", body.StatusCode, "message", body.Message)
	}
}

// pageParams reads 1-indexed pagination from the query string. Absent or
// malformed values fall back to the engine's defaults.
func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}
