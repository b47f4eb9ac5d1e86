package repositories

import (
	"context"
	"fmt"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// Toggle flips the like for the (account, target) pair and reports whether
// the relation now exists.
//
// Removal runs first; when nothing was removed an insert-if-absent follows.
// The unique index on the key tuple makes the insert race-safe: when a
// concurrent caller wins the insert, ON CONFLICT DO NOTHING turns this
// caller's attempt into the same "added" outcome instead of an error.
func (r *PostgresLikeRepository) Toggle(ctx context.Context, like models.Like) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM likes
        WHERE account_id = $1 AND target_kind = $2 AND target_id = $3
    `, like.AccountID, like.TargetKind, like.TargetID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO likes (id, account_id, target_kind, target_id, created_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (account_id, target_kind, target_id) DO NOTHING
    `, like.ID, like.AccountID, like.TargetKind, like.TargetID, like.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}
	return true, nil
}

// ListByAccount returns the account's likes for one target kind, oldest first.
func (r *PostgresLikeRepository) ListByAccount(ctx context.Context, accountID string, kind models.LikeTarget) ([]models.Like, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, account_id, target_kind, target_id, created_at
        FROM likes
        WHERE account_id = $1 AND target_kind = $2
        ORDER BY created_at, id
    `, accountID, kind)
	if err != nil {
		return nil, fmt.Errorf("query likes: %w", err)
	}
	defer rows.Close()

	var likes []models.Like
	for rows.Next() {
		var like models.Like
		if err := rows.Scan(&like.ID, &like.AccountID, &like.TargetKind, &like.TargetID, &like.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		likes = append(likes, like)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate likes: %w", err)
	}
	return likes, nil
}

// CountByTargets returns like counts keyed by target id. Targets with no
// likes are absent from the map.
func (r *PostgresLikeRepository) CountByTargets(ctx context.Context, kind models.LikeTarget, targetIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(targetIDs))
	if len(targetIDs) == 0 {
		return counts, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT target_id, COUNT(*)
        FROM likes
        WHERE target_kind = $1 AND target_id = ANY($2)
        GROUP BY target_id
    `, kind, targetIDs)
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var targetID string
		var count int64
		if err := rows.Scan(&targetID, &count); err != nil {
			return nil, fmt.Errorf("scan like count: %w", err)
		}
		counts[targetID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate like counts: %w", err)
	}
	return counts, nil
}

// DeleteByTarget removes every like pointing at the target. Used when the
// target entity itself is deleted.
func (r *PostgresLikeRepository) DeleteByTarget(ctx context.Context, kind models.LikeTarget, targetID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        DELETE FROM likes WHERE target_kind = $1 AND target_id = $2
    `, kind, targetID); err != nil {
		return fmt.Errorf("delete likes by target: %w", err)
	}
	return nil
}

var _ LikeRepository = (*PostgresLikeRepository)(nil)
