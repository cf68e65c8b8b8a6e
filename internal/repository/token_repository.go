package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hexaosint/api/internal/models"
)

var ErrTokenNotFound = errors.New("refresh token not found")

type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

const tokenColumns = `
	id, user_id, token_hash, device, ip_address, expires_at, revoked, revoked_at, created_at
`

func scanToken(row pgx.Row) (models.RefreshToken, error) {
	var token models.RefreshToken
	if err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.Device,
		&token.IPAddress,
		&token.ExpiresAt,
		&token.Revoked,
		&token.RevokedAt,
		&token.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RefreshToken{}, ErrTokenNotFound
		}
		return models.RefreshToken{}, err
	}
	return token, nil
}

func (r *TokenRepository) Create(ctx context.Context, token models.RefreshToken) error {
	const query = `
		INSERT INTO refresh_tokens (
			id, user_id, token_hash, device, ip_address, expires_at, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.Device,
		token.IPAddress,
		token.ExpiresAt,
	)
	return err
}

// FindActive returns the token row iff it is unrevoked and unexpired.
// Lookup has no side effects.
func (r *TokenRepository) FindActive(ctx context.Context, tokenHash []byte, now time.Time) (models.RefreshToken, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM refresh_tokens
		WHERE token_hash = $1 AND revoked = FALSE AND expires_at > $2
	`
	return scanToken(r.pool.QueryRow(ctx, query, tokenHash, now))
}

// Revoke marks a single active token revoked. Returns ErrTokenNotFound when
// no active row matches, including a row that was already revoked.
func (r *TokenRepository) Revoke(ctx context.Context, tokenHash []byte, now time.Time) error {
	const query = `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = $2
		WHERE token_hash = $1 AND revoked = FALSE
	`
	cmd, err := r.pool.Exec(ctx, query, tokenHash, now)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// Rotate consumes the presented token and persists its replacement in one
// transaction. The revoke is conditional on the row still being active, so
// two concurrent rotations of the same token cannot both succeed: the loser
// gets ErrTokenNotFound and nothing is written.
func (r *TokenRepository) Rotate(ctx context.Context, oldHash []byte, next models.RefreshToken, now time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rotate: %w", err)
	}
	defer tx.Rollback(ctx)

	const revoke = `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = $2
		WHERE token_hash = $1 AND revoked = FALSE AND expires_at > $2
	`
	cmd, err := tx.Exec(ctx, revoke, oldHash, now)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTokenNotFound
	}

	const insert = `
		INSERT INTO refresh_tokens (
			id, user_id, token_hash, device, ip_address, expires_at, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW()
		)
	`
	if _, err := tx.Exec(ctx, insert,
		next.ID,
		next.UserID,
		next.TokenHash,
		next.Device,
		next.IPAddress,
		next.ExpiresAt,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RevokeAllForUser marks every active token for the user revoked and returns
// how many rows changed.
func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	const query = `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = $2
		WHERE user_id = $1 AND revoked = FALSE
	`
	cmd, err := r.pool.Exec(ctx, query, userID, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *TokenRepository) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]models.RefreshToken, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM refresh_tokens
		WHERE user_id = $1 AND revoked = FALSE AND expires_at > $2
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []models.RefreshToken
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// DeleteExpired removes rows whose expiry has passed, revoked or not.
// Revoked-but-unexpired rows are kept for audit until they expire. Safe to
// run concurrently with live traffic: it only touches logically dead rows.
func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM refresh_tokens WHERE expires_at < $1`
	cmd, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
