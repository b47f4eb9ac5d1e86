package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

type staticAccounts map[string]models.Account

func (s staticAccounts) FindByID(_ context.Context, id string) (models.Account, error) {
	account, ok := s[id]
	if !ok {
		return models.Account{}, repositories.ErrNotFound
	}
	return account, nil
}

func newTestManager(store auth.SessionStore, accounts auth.AccountFinder) *auth.Manager {
	access := auth.NewCodec("access-secret", time.Minute, auth.UseAccess)
	refresh := auth.NewCodec("refresh-secret", time.Hour, auth.UseRefresh)
	return auth.NewManager(access, refresh, store, accounts)
}

func TestManagerBeginAndRotate(t *testing.T) {
	store := auth.NewInMemorySessionStore()
	manager := newTestManager(store, staticAccounts{"account-1": {ID: "account-1"}})

	tokens, err := manager.Begin(context.Background(), "account-1")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty tokens: %+v", tokens)
	}

	rotated, err := manager.Rotate(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected a new refresh token")
	}

	current, ok := store.Current("account-1")
	if !ok || current != rotated.RefreshToken {
		t.Fatalf("slot should hold the rotated token, got %q", current)
	}

	// The superseded token must not rotate a second time.
	if _, err := manager.Rotate(context.Background(), tokens.RefreshToken); !errors.Is(err, auth.ErrTokenMismatch) {
		t.Fatalf("expected token mismatch got %v", err)
	}
}

func TestManagerRotateFailures(t *testing.T) {
	store := auth.NewInMemorySessionStore()
	accounts := staticAccounts{"account-1": {ID: "account-1"}}
	manager := newTestManager(store, accounts)

	if _, err := manager.Rotate(context.Background(), ""); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected invalid token got %v", err)
	}
	if _, err := manager.Rotate(context.Background(), "garbage"); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected invalid token got %v", err)
	}

	// Access tokens are not accepted on the rotation path.
	tokens, err := manager.Begin(context.Background(), "account-1")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := manager.Rotate(context.Background(), tokens.AccessToken); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected invalid token for access credential got %v", err)
	}

	// A token for a deleted account fails with not found.
	delete(accounts, "account-1")
	if _, err := manager.Rotate(context.Background(), tokens.RefreshToken); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestManagerBeginSupersedesPriorSession(t *testing.T) {
	store := auth.NewInMemorySessionStore()
	manager := newTestManager(store, staticAccounts{"account-1": {ID: "account-1"}})

	first, err := manager.Begin(context.Background(), "account-1")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := manager.Begin(context.Background(), "account-1"); err != nil {
		t.Fatalf("second begin: %v", err)
	}

	if _, err := manager.Rotate(context.Background(), first.RefreshToken); !errors.Is(err, auth.ErrTokenMismatch) {
		t.Fatalf("expected mismatch for superseded token got %v", err)
	}
}

func TestManagerEndClearsSlot(t *testing.T) {
	store := auth.NewInMemorySessionStore()
	manager := newTestManager(store, staticAccounts{"account-1": {ID: "account-1"}})

	tokens, err := manager.Begin(context.Background(), "account-1")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := manager.End(context.Background(), "account-1"); err != nil {
		t.Fatalf("end: %v", err)
	}

	if _, err := manager.Rotate(context.Background(), tokens.RefreshToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected session not found after logout got %v", err)
	}

	// Ending an already-empty session is a no-op.
	if err := manager.End(context.Background(), "account-1"); err != nil {
		t.Fatalf("end on empty slot: %v", err)
	}
}

func TestManagerConcurrentRotationSingleWinner(t *testing.T) {
	store := auth.NewInMemorySessionStore()
	manager := newTestManager(store, staticAccounts{"account-1": {ID: "account-1"}})

	tokens, err := manager.Begin(context.Background(), "account-1")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	const rotations = 16
	var wg sync.WaitGroup
	results := make(chan error, rotations)

	for i := 0; i < rotations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Rotate(context.Background(), tokens.RefreshToken)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, mismatches int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, auth.ErrTokenMismatch):
			mismatches++
		default:
			t.Fatalf("unexpected rotation error: %v", err)
		}
	}

	if wins != 1 {
		t.Fatalf("expected exactly one winning rotation, got %d", wins)
	}
	if mismatches != rotations-1 {
		t.Fatalf("expected %d mismatches, got %d", rotations-1, mismatches)
	}
}
