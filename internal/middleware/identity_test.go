package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

type staticVerifier map[string]string

func (v staticVerifier) VerifyAccess(token string) (string, error) {
	if id, ok := v[token]; ok {
		return id, nil
	}
	return "", errors.New("invalid token")
}

type staticLoader map[string]models.Account

func (l staticLoader) FindByID(_ context.Context, id string) (models.Account, error) {
	if account, ok := l[id]; ok {
		return account, nil
	}
	return models.Account{}, repositories.ErrNotFound
}

func identityProbe(t *testing.T) (http.Handler, *Identity) {
	t.Helper()
	captured := &Identity{}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, ok := IdentityFrom(r.Context()); ok {
			*captured = identity
		}
		w.WriteHeader(http.StatusNoContent)
	}), captured
}

func TestRequireIdentityFromCookie(t *testing.T) {
	verifier := staticVerifier{"good-token": "acct-1"}
	loader := staticLoader{"acct-1": {ID: "acct-1", Username: "alice", PasswordHash: "secret"}}
	probe, captured := identityProbe(t)
	handler := RequireIdentity(verifier, loader)(probe)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "good-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if captured.ID != "acct-1" || captured.Username != "alice" {
		t.Fatalf("unexpected identity: %+v", captured)
	}
}

func TestRequireIdentityFromBearerHeader(t *testing.T) {
	verifier := staticVerifier{"good-token": "acct-1"}
	loader := staticLoader{"acct-1": {ID: "acct-1", Username: "alice"}}
	probe, captured := identityProbe(t)
	handler := RequireIdentity(verifier, loader)(probe)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if captured.ID != "acct-1" {
		t.Fatalf("unexpected identity: %+v", captured)
	}
}

func TestRequireIdentityCookieTakesPrecedence(t *testing.T) {
	verifier := staticVerifier{"cookie-token": "acct-1", "header-token": "acct-2"}
	loader := staticLoader{
		"acct-1": {ID: "acct-1", Username: "alice"},
		"acct-2": {ID: "acct-2", Username: "bob"},
	}
	probe, captured := identityProbe(t)
	handler := RequireIdentity(verifier, loader)(probe)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "cookie-token"})
	req.Header.Set("Authorization", "Bearer header-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if captured.ID != "acct-1" {
		t.Fatalf("expected the cookie identity, got %+v", captured)
	}
}

func TestRequireIdentityRejections(t *testing.T) {
	verifier := staticVerifier{"good-token": "acct-1", "orphan-token": "gone"}
	loader := staticLoader{"acct-1": {ID: "acct-1"}}
	probe, _ := identityProbe(t)
	handler := RequireIdentity(verifier, loader)(probe)

	cases := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{name: "no credentials", setup: func(*http.Request) {}},
		{name: "invalid token", setup: func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer bogus")
		}},
		{name: "deleted account", setup: func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer orphan-token")
		}},
		{name: "malformed authorization header", setup: func(r *http.Request) {
			r.Header.Set("Authorization", "Token good-token")
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}

			var body struct {
				StatusCode int    `json:"statusCode"`
				Success    bool   `json:"success"`
				Message    string `json:"message"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.StatusCode != http.StatusUnauthorized || body.Success {
				t.Fatalf("unexpected envelope: %+v", body)
			}
		})
	}
}

func TestResolveIdentityOptional(t *testing.T) {
	verifier := staticVerifier{"good-token": "acct-1"}
	loader := staticLoader{"acct-1": {ID: "acct-1", Username: "alice"}}
	probe, captured := identityProbe(t)
	handler := ResolveIdentity(verifier, loader)(probe)

	// Anonymous requests pass through without an identity.
	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for anonymous request, got %d", rec.Code)
	}
	if captured.ID != "" {
		t.Fatalf("expected no identity, got %+v", captured)
	}

	// Valid credentials attach one.
	req = httptest.NewRequest(http.MethodGet, "/public", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "good-token"})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if captured.ID != "acct-1" {
		t.Fatalf("expected identity attached, got %+v", captured)
	}
}
