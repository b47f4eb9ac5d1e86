package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// AuthHandler implements registration, login, logout, token rotation, and
// password changes.
type AuthHandler struct {
	Accounts AccountStore
	Sessions SessionManager
	Storage  BlobStorage
	Limiter  RateLimiter
	NowFunc  func() time.Time
}

// Register handles POST /api/v1/auth/register. Avatar and cover images are
// optional multipart parts; everything else is required.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "register") {
		fail(ctx, w, http.StatusTooManyRequests, "too many registration attempts")
		return
	}

	var req registerRequest
	var avatarURL, coverURL string

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			logger.Warn("invalid registration form", "error", err)
			fail(ctx, w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		req = registerRequest{
			Username: r.FormValue("username"),
			Email:    r.FormValue("email"),
			FullName: r.FormValue("fullName"),
			Password: r.FormValue("password"),
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration payload", "error", err)
		fail(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)

	if msg := validateRegistration(req); msg != "" {
		logger.Warn("registration rejected", "reason", msg)
		fail(ctx, w, http.StatusBadRequest, msg)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("hash password", "error", err)
		fail(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	if h.Storage != nil && r.MultipartForm != nil {
		avatarURL, err = optionalUpload(ctx, h.Storage, r, "avatar", "avatars")
		if err != nil {
			logger.Error("upload avatar", "error", err)
			fail(ctx, w, http.StatusInternalServerError, "failed to store avatar")
			return
		}
		coverURL, err = optionalUpload(ctx, h.Storage, r, "cover", "covers")
		if err != nil {
			discardBlob(ctx, h.Storage, avatarURL)
			logger.Error("upload cover", "error", err)
			fail(ctx, w, http.StatusInternalServerError, "failed to store cover image")
			return
		}
	}

	now := h.now()
	account := models.Account{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: string(hashed),
		AvatarURL:    avatarURL,
		CoverURL:     coverURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Accounts.Create(ctx, account); err != nil {
		discardBlob(ctx, h.Storage, avatarURL)
		discardBlob(ctx, h.Storage, coverURL)
		if errors.Is(err, repositories.ErrConflict) {
			logger.Warn("registration conflict", "username", req.Username)
			fail(ctx, w, http.StatusConflict, "username or email already registered")
			return
		}
		failFromError(ctx, w, err, "create account")
		return
	}

	logger.Info("account registered", "accountId", account.ID, "username", account.Username)
	respond(ctx, w, http.StatusCreated, account.Public(), "account registered")
}

// Login handles POST /api/v1/auth/login. The identifier may be a username or
// an email address; on success both session cookies are set.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		fail(ctx, w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		fail(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	identifier := strings.TrimSpace(strings.ToLower(firstNonEmpty(req.Identifier, req.Username, req.Email)))
	if identifier == "" || req.Password == "" {
		fail(ctx, w, http.StatusBadRequest, "username or email and password are required")
		return
	}

	account, err := h.Accounts.FindByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logger.Warn("login unknown identifier", "identifier", identifier)
			fail(ctx, w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		failFromError(ctx, w, err, "login lookup")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		logger.Warn("login password mismatch", "accountId", account.ID)
		fail(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tokens, err := h.Sessions.Begin(ctx, account.ID)
	if err != nil {
		failFromError(ctx, w, err, "begin session")
		return
	}

	setSessionCookies(w, tokens)
	logger.Info("login succeeded", "accountId", account.ID)
	respond(ctx, w, http.StatusOK, loginResponse{
		Account: account.Public(),
		Tokens:  tokens,
	}, "logged in")
}

// Logout handles POST /api/v1/auth/logout: the session slot is cleared and
// both cookies are expired.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		fail(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.Sessions.End(ctx, identity.ID); err != nil {
		failFromError(ctx, w, err, "end session")
		return
	}

	clearSessionCookies(w)
	logging.FromContext(ctx).Info("logout", "accountId", identity.ID)
	respond(ctx, w, http.StatusOK, nil, "logged out")
}

// Refresh handles POST /api/v1/auth/refresh. The refresh token is read from
// the cookie first, then the request body. Rotation is single-use: a token
// that has already been exchanged is rejected.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	token := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		token = cookie.Value
	}
	if token == "" && r.Body != nil {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			token = strings.TrimSpace(req.RefreshToken)
		}
	}
	if token == "" {
		fail(ctx, w, http.StatusBadRequest, "refresh token is required")
		return
	}

	tokens, err := h.Sessions.Rotate(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidToken),
			errors.Is(err, auth.ErrTokenMismatch),
			errors.Is(err, auth.ErrSessionNotFound),
			errors.Is(err, repositories.ErrNotFound):
			logger.Warn("refresh rejected", "error", err)
			fail(ctx, w, http.StatusUnauthorized, "invalid or expired refresh token")
		default:
			failFromError(ctx, w, err, "rotate session")
		}
		return
	}

	setSessionCookies(w, tokens)
	respond(ctx, w, http.StatusOK, tokens, "session refreshed")
}

// ChangePassword handles POST /api/v1/auth/change-password.
func (h AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		fail(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		fail(ctx, w, http.StatusBadRequest, "old and new passwords are required")
		return
	}
	if len(req.NewPassword) < 8 {
		fail(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	account, err := h.Accounts.FindByID(ctx, identity.ID)
	if err != nil {
		failFromError(ctx, w, err, "load account")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.OldPassword)); err != nil {
		logger.Warn("change-password old password mismatch", "accountId", identity.ID)
		fail(ctx, w, http.StatusUnauthorized, "old password is incorrect")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("hash password", "error", err)
		fail(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	if err := h.Accounts.UpdatePassword(ctx, identity.ID, string(hashed)); err != nil {
		failFromError(ctx, w, err, "update password")
		return
	}

	logger.Info("password changed", "accountId", identity.ID)
	respond(ctx, w, http.StatusOK, nil, "password changed")
}

func validateRegistration(req registerRequest) string {
	switch {
	case req.Username == "":
		return "username is required"
	case req.Email == "":
		return "email is required"
	case req.FullName == "":
		return "full name is required"
	case req.Password == "":
		return "password is required"
	case len(req.Password) < 8:
		return "password must be at least 8 characters"
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return "invalid email address"
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type loginResponse struct {
	Account models.PublicProfile `json:"account"`
	Tokens  models.SessionTokens `json:"tokens"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
