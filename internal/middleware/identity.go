package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

const accessTokenCookie = "accessToken"

// Identity is the authenticated caller attached to the request context.
// It carries no credential material.
type Identity struct {
	ID        string
	Username  string
	Email     string
	FullName  string
	AvatarURL string
	CoverURL  string
}

func identityFromAccount(account models.Account) Identity {
	return Identity{
		ID:        account.ID,
		Username:  account.Username,
		Email:     account.Email,
		FullName:  account.FullName,
		AvatarURL: account.AvatarURL,
		CoverURL:  account.CoverURL,
	}
}

type identityCtxKey struct{}

// WithIdentity stores the authenticated caller on the context.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, identity)
}

// IdentityFrom retrieves the authenticated caller, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityCtxKey{}).(Identity)
	return identity, ok
}

// AccessVerifier validates an access token and returns the account id.
type AccessVerifier interface {
	VerifyAccess(token string) (string, error)
}

// AccountLoader resolves the verified account id to a live account.
type AccountLoader interface {
	FindByID(ctx context.Context, id string) (models.Account, error)
}

// extractAccessToken reads the access token from the request: the
// accessToken cookie first, then the Authorization bearer header.
func extractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func resolve(r *http.Request, verifier AccessVerifier, accounts AccountLoader) (Identity, bool) {
	token := extractAccessToken(r)
	if token == "" {
		return Identity{}, false
	}

	accountID, err := verifier.VerifyAccess(token)
	if err != nil {
		return Identity{}, false
	}

	account, err := accounts.FindByID(r.Context(), accountID)
	if err != nil {
		return Identity{}, false
	}
	return identityFromAccount(account), true
}

// RequireIdentity rejects requests without a valid access token bound to a
// live account. The token is read from the accessToken cookie or the
// Authorization bearer header.
func RequireIdentity(verifier AccessVerifier, accounts AccountLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := resolve(r, verifier, accounts)
			if !ok {
				writeUnauthorized(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// ResolveIdentity attaches the caller's identity when a valid token is
// presented but lets anonymous requests through untouched.
func ResolveIdentity(verifier AccessVerifier, accounts AccountLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity, ok := resolve(r, verifier, accounts); ok {
				r = r.WithContext(WithIdentity(r.Context(), identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	logging.FromContext(r.Context()).Info("request rejected", "reason", "missing or invalid access token")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": http.StatusUnauthorized,
		"data":       nil,
		"message":    "authentication required",
		"success":    false,
	})
}
