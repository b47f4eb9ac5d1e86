package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

const accountColumns = `id, username, email, full_name, password_hash, avatar_url, cover_url, watch_history, created_at, updated_at`

// PostgresAccountRepository provides PostgreSQL-backed persistence for accounts.
type PostgresAccountRepository struct {
	pool db.Pool
}

// NewPostgresAccountRepository constructs an account repository backed by PostgreSQL.
func NewPostgresAccountRepository(pool db.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// Create persists a new account record.
func (r *PostgresAccountRepository) Create(ctx context.Context, account models.Account) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO accounts (id, username, email, full_name, password_hash, avatar_url, cover_url, watch_history, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, '{}', $8, $9)
    `, account.ID, account.Username, account.Email, account.FullName, account.PasswordHash,
		account.AvatarURL, account.CoverURL, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// FindByID fetches an account by its identifier.
func (r *PostgresAccountRepository) FindByID(ctx context.Context, id string) (models.Account, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

// FindByLogin fetches an account by username or email, whichever matches.
func (r *PostgresAccountRepository) FindByLogin(ctx context.Context, identifier string) (models.Account, error) {
	return r.findOne(ctx, `WHERE username = $1 OR email = $1`, identifier)
}

// FindByUsernameOrID fetches an account by username or by id equivalence,
// mirroring the channel-profile lookup contract.
func (r *PostgresAccountRepository) FindByUsernameOrID(ctx context.Context, identifier string) (models.Account, error) {
	return r.findOne(ctx, `WHERE username = $1 OR id::TEXT = $1`, identifier)
}

func (r *PostgresAccountRepository) findOne(ctx context.Context, where string, args ...any) (models.Account, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Account{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts `+where, args...)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrNotFound
		}
		return models.Account{}, fmt.Errorf("select account: %w", err)
	}
	return account, nil
}

// FindManyByIDs loads the given accounts, keyed by id. Missing ids are
// simply absent from the result, never an error.
func (r *PostgresAccountRepository) FindManyByIDs(ctx context.Context, ids []string) (map[string]models.Account, error) {
	result := make(map[string]models.Account, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query accounts by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		result[account.ID] = account
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return result, nil
}

// UpdateDetails modifies the mutable profile fields and returns the stored row.
func (r *PostgresAccountRepository) UpdateDetails(ctx context.Context, id, fullName, email string) (models.Account, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Account{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE accounts
        SET full_name = COALESCE(NULLIF($2, ''), full_name),
            email = COALESCE(NULLIF($3, ''), email),
            updated_at = NOW()
        WHERE id = $1
        RETURNING `+accountColumns, id, fullName, email)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.Account{}, ErrConflict
		}
		return models.Account{}, fmt.Errorf("update account details: %w", err)
	}
	return account, nil
}

// UpdatePassword replaces the stored password hash.
func (r *PostgresAccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, `UPDATE accounts SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
}

// UpdateAvatar replaces the avatar reference.
func (r *PostgresAccountRepository) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	return r.exec(ctx, `UPDATE accounts SET avatar_url = $2, updated_at = NOW() WHERE id = $1`, id, avatarURL)
}

// UpdateCover replaces the cover image reference.
func (r *PostgresAccountRepository) UpdateCover(ctx context.Context, id, coverURL string) error {
	return r.exec(ctx, `UPDATE accounts SET cover_url = $2, updated_at = NOW() WHERE id = $1`, id, coverURL)
}

// PushWatchHistory moves the video id to the front of the account's watch
// history, dropping any earlier occurrence.
func (r *PostgresAccountRepository) PushWatchHistory(ctx context.Context, id, videoID string) error {
	return r.exec(ctx, `
        UPDATE accounts
        SET watch_history = array_prepend($2, array_remove(watch_history, $2))
        WHERE id = $1
    `, id, videoID)
}

func (r *PostgresAccountRepository) exec(ctx context.Context, sql string, args ...any) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (models.Account, error) {
	var account models.Account
	err := row.Scan(&account.ID, &account.Username, &account.Email, &account.FullName,
		&account.PasswordHash, &account.AvatarURL, &account.CoverURL, &account.WatchHistory,
		&account.CreatedAt, &account.UpdatedAt)
	return account, err
}

var _ AccountRepository = (*PostgresAccountRepository)(nil)
