// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/salamnest/salamnest/internal/identity"
	"github.com/salamnest/salamnest/internal/store"
)

// ResetCodeRepository implements identity.ResetCodeRepository using PostgreSQL.
type ResetCodeRepository struct {
	pool store.Pool
}

// NewResetCodeRepository creates a new ResetCodeRepository.
func NewResetCodeRepository(pool store.Pool) *ResetCodeRepository {
	return &ResetCodeRepository{pool: pool}
}

// Replace deletes prior codes for the user or email and stores code in one transaction.
func (r *ResetCodeRepository) Replace(ctx context.Context, code *identity.ResetCode) error {
	return store.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM password_reset_codes WHERE user_id = $1 OR email = $2`,
			code.UserID.String(), code.Email); err != nil {
			return oops.Code("RESET_CODE_CREATE_FAILED").
				With("operation", "delete prior codes").
				With("user_id", code.UserID.String()).
				Wrap(err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO password_reset_codes (id, user_id, email, code_hash, expires_at, used_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, code.ID.String(), code.UserID.String(), code.Email, code.CodeHash, code.ExpiresAt, code.UsedAt, code.CreatedAt); err != nil {
			return oops.Code("RESET_CODE_CREATE_FAILED").
				With("operation", "insert code").
				With("user_id", code.UserID.String()).
				Wrap(err)
		}
		return nil
	})
}

// LatestUnused returns the newest unused code for email and hash.
func (r *ResetCodeRepository) LatestUnused(ctx context.Context, email, codeHash string) (*identity.ResetCode, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, email, code_hash, expires_at, used_at, created_at
		FROM password_reset_codes
		WHERE email = $1 AND code_hash = $2 AND used_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, email, codeHash)

	var (
		c             identity.ResetCode
		idStr, userID string
	)
	err := row.Scan(&idStr, &userID, &c.Email, &c.CodeHash, &c.ExpiresAt, &c.UsedAt, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("RESET_CODE_NOT_FOUND").Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("RESET_CODE_LOOKUP_FAILED").Wrap(err)
	}
	if c.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("RESET_CODE_CORRUPT_ID").With("id", idStr).Wrap(err)
	}
	if c.UserID, err = ulid.Parse(userID); err != nil {
		return nil, oops.Code("RESET_CODE_CORRUPT_ID").With("user_id", userID).Wrap(err)
	}
	return &c, nil
}

// MarkUsed sets used_at if it is still empty.
func (r *ResetCodeRepository) MarkUsed(ctx context.Context, id ulid.ULID, at time.Time) (bool, error) {
	result, err := r.pool.Exec(ctx,
		`UPDATE password_reset_codes SET used_at = $2 WHERE id = $1 AND used_at IS NULL`,
		id.String(), at)
	if err != nil {
		return false, oops.Code("RESET_CODE_MARK_USED_FAILED").With("id", id.String()).Wrap(err)
	}
	return result.RowsAffected() == 1, nil
}

// Delete removes a code.
func (r *ResetCodeRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM password_reset_codes WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("RESET_CODE_DELETE_FAILED").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("RESET_CODE_NOT_FOUND").With("id", id.String()).Wrap(identity.ErrNotFound)
	}
	return nil
}

// DeleteExpired removes codes whose expiry is at or before now.
func (r *ResetCodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM password_reset_codes WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, oops.Code("RESET_CODE_PURGE_FAILED").Wrap(err)
	}
	return result.RowsAffected(), nil
}

// ResetTokenRepository implements identity.ResetTokenRepository using PostgreSQL.
type ResetTokenRepository struct {
	pool store.Pool
}

// NewResetTokenRepository creates a new ResetTokenRepository.
func NewResetTokenRepository(pool store.Pool) *ResetTokenRepository {
	return &ResetTokenRepository{pool: pool}
}

// Replace deletes prior tokens for the user or email and stores token in one transaction.
func (r *ResetTokenRepository) Replace(ctx context.Context, token *identity.ResetToken) error {
	return store.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM password_reset_tokens WHERE user_id = $1 OR email = $2`,
			token.UserID.String(), token.Email); err != nil {
			return oops.Code("RESET_TOKEN_CREATE_FAILED").
				With("operation", "delete prior tokens").
				With("user_id", token.UserID.String()).
				Wrap(err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO password_reset_tokens (id, user_id, email, token_hash, expires_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, token.ID.String(), token.UserID.String(), token.Email, token.TokenHash, token.ExpiresAt, token.CreatedAt); err != nil {
			return oops.Code("RESET_TOKEN_CREATE_FAILED").
				With("operation", "insert token").
				With("user_id", token.UserID.String()).
				Wrap(err)
		}
		return nil
	})
}

// Claim deletes and returns the token with hash.
func (r *ResetTokenRepository) Claim(ctx context.Context, tokenHash string) (*identity.ResetToken, error) {
	row := r.pool.QueryRow(ctx, `
		DELETE FROM password_reset_tokens
		WHERE token_hash = $1
		RETURNING id, user_id, email, token_hash, expires_at, created_at
	`, tokenHash)

	var (
		t             identity.ResetToken
		idStr, userID string
	)
	err := row.Scan(&idStr, &userID, &t.Email, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("RESET_TOKEN_NOT_FOUND").Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("RESET_TOKEN_CLAIM_FAILED").Wrap(err)
	}
	if t.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("RESET_TOKEN_CORRUPT_ID").With("id", idStr).Wrap(err)
	}
	if t.UserID, err = ulid.Parse(userID); err != nil {
		return nil, oops.Code("RESET_TOKEN_CORRUPT_ID").With("user_id", userID).Wrap(err)
	}
	return &t, nil
}

// DeleteExpired removes tokens whose expiry is at or before now.
func (r *ResetTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM password_reset_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, oops.Code("RESET_TOKEN_PURGE_FAILED").Wrap(err)
	}
	return result.RowsAffected(), nil
}
