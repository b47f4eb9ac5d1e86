package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vidtube/backend/internal/models"
)

var (
	// ErrSessionNotFound indicates the account has no active session slot.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTokenMismatch indicates the presented refresh token has been
	// superseded by a newer one and must not be honoured again.
	ErrTokenMismatch = errors.New("refresh token mismatch")
)

// SessionStore persists the single refresh-token slot per account.
//
// Swap must be atomic with respect to concurrent swaps for the same account:
// of N rotations presenting the same stale token, exactly one may succeed.
type SessionStore interface {
	Put(ctx context.Context, accountID, refreshToken string) error
	Swap(ctx context.Context, accountID, presented, next string) error
	Clear(ctx context.Context, accountID string) error
}

// AccountFinder resolves the account a refresh token claims to belong to.
type AccountFinder interface {
	FindByID(ctx context.Context, id string) (models.Account, error)
}

// Manager issues, rotates, and invalidates access/refresh token pairs.
// Sessions are single-slot: beginning a new session invalidates every
// refresh token previously issued to that account.
type Manager struct {
	access   *Codec
	refresh  *Codec
	store    SessionStore
	accounts AccountFinder
}

// NewManager constructs a Manager around the two token codecs.
func NewManager(access, refresh *Codec, store SessionStore, accounts AccountFinder) *Manager {
	if store == nil {
		panic("auth: session store must not be nil")
	}
	if access == nil || refresh == nil {
		panic("auth: both codecs must be provided")
	}
	return &Manager{access: access, refresh: refresh, store: store, accounts: accounts}
}

// Begin issues a fresh token pair and overwrites the account's session slot.
func (m *Manager) Begin(ctx context.Context, accountID string) (models.SessionTokens, error) {
	accessToken, err := m.access.Issue(accountID)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, err := m.refresh.Issue(accountID)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("issue refresh token: %w", err)
	}

	if err := m.store.Put(ctx, accountID, refreshToken); err != nil {
		return models.SessionTokens{}, fmt.Errorf("store refresh token: %w", err)
	}

	now := time.Now().UTC()
	return models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  now.Add(m.access.TTL()),
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(m.refresh.TTL()),
	}, nil
}

// End clears the account's session slot, invalidating its refresh token.
func (m *Manager) End(ctx context.Context, accountID string) error {
	if err := m.store.Clear(ctx, accountID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Rotate exchanges a refresh token for a new pair. The presented token must
// verify, its account must still exist, and it must equal the slot value.
// The slot comparison and replacement happen atomically in the store, so of
// two concurrent rotations with the same token one fails with
// ErrTokenMismatch.
func (m *Manager) Rotate(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	accountID, err := m.refresh.Verify(refreshToken)
	if err != nil {
		return models.SessionTokens{}, ErrInvalidToken
	}

	if m.accounts != nil {
		if _, err := m.accounts.FindByID(ctx, accountID); err != nil {
			return models.SessionTokens{}, err
		}
	}

	nextRefresh, err := m.refresh.Issue(accountID)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("issue refresh token: %w", err)
	}

	if err := m.store.Swap(ctx, accountID, refreshToken, nextRefresh); err != nil {
		return models.SessionTokens{}, err
	}

	accessToken, err := m.access.Issue(accountID)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("issue access token: %w", err)
	}

	now := time.Now().UTC()
	return models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  now.Add(m.access.TTL()),
		RefreshToken:     nextRefresh,
		RefreshExpiresAt: now.Add(m.refresh.TTL()),
	}, nil
}

// VerifyAccess validates an access token and returns the account id.
func (m *Manager) VerifyAccess(token string) (string, error) {
	return m.access.Verify(token)
}
