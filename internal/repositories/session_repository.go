package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/db"
)

// PostgresSessionStore persists the per-account refresh-token slot.
type PostgresSessionStore struct {
	pool db.Pool
}

// NewPostgresSessionStore constructs a session store backed by PostgreSQL.
func NewPostgresSessionStore(pool db.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

// Put overwrites the account's slot, invalidating any prior refresh token.
func (s *PostgresSessionStore) Put(ctx context.Context, accountID, refreshToken string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO sessions (account_id, refresh_token, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (account_id)
        DO UPDATE SET refresh_token = EXCLUDED.refresh_token, updated_at = NOW()
    `, accountID, refreshToken)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// Swap replaces the slot value only when the presented token still matches
// it. The conditional UPDATE is a single atomic statement, so concurrent
// rotations of the same account serialize on the row: exactly one matches,
// the rest observe a mismatch.
func (s *PostgresSessionStore) Swap(ctx context.Context, accountID, presented, next string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE sessions
        SET refresh_token = $3, updated_at = NOW()
        WHERE account_id = $1 AND refresh_token = $2
    `, accountID, presented, next)
	if err != nil {
		return fmt.Errorf("swap session token: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Distinguish a missing slot from a superseded token.
	row := conn.QueryRow(ctx, `SELECT 1 FROM sessions WHERE account_id = $1`, accountID)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.ErrSessionNotFound
		}
		return fmt.Errorf("check session slot: %w", err)
	}
	return auth.ErrTokenMismatch
}

// Clear removes the account's slot.
func (s *PostgresSessionStore) Clear(ctx context.Context, accountID string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `DELETE FROM sessions WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

var _ auth.SessionStore = (*PostgresSessionStore)(nil)
