// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

// Package postgres provides PostgreSQL implementations of identity repositories.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/salamnest/salamnest/internal/identity"
	"github.com/salamnest/salamnest/internal/store"
)

const userColumns = `id, email, first_name, last_name, phone, avatar_url, role,
		       password_hash, refresh_token_hash, created_at, updated_at`

// UserRepository implements identity.UserRepository using PostgreSQL.
type UserRepository struct {
	pool store.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool store.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Create stores a new user.
func (r *UserRepository) Create(ctx context.Context, user *identity.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (
			id, email, first_name, last_name, phone, avatar_url, role,
			password_hash, refresh_token_hash, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		user.ID.String(),
		user.Email,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.AvatarURL,
		string(user.Role),
		user.PasswordHash,
		user.RefreshTokenHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return oops.Code("USER_EMAIL_TAKEN").With("email", user.Email).Wrap(identity.ErrEmailTaken)
	}
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("email", user.Email).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*identity.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id.String())

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email (case-insensitive).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("email", email).Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			With("email", email).
			Wrap(err)
	}
	return user, nil
}

// ExistsByEmail reports whether a user has email (case-insensitive).
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`, email).Scan(&exists)
	if err != nil {
		return false, oops.Code("USER_EXISTS_FAILED").With("email", email).Wrap(err)
	}
	return exists, nil
}

// Update stores profile fields and role.
func (r *UserRepository) Update(ctx context.Context, user *identity.User) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET
			email = $2,
			first_name = $3,
			last_name = $4,
			phone = $5,
			avatar_url = $6,
			role = $7,
			updated_at = $8
		WHERE id = $1
	`,
		user.ID.String(),
		user.Email,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.AvatarURL,
		string(user.Role),
		user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return oops.Code("USER_EMAIL_TAKEN").With("email", user.Email).Wrap(identity.ErrEmailTaken)
	}
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update user").
			With("id", user.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", user.ID.String()).Wrap(identity.ErrNotFound)
	}
	return nil
}

// UpdatePasswordHash replaces the password hash.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id ulid.ULID, hash string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`,
		id.String(), hash)
	if err != nil {
		return oops.Code("USER_PASSWORD_UPDATE_FAILED").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(identity.ErrNotFound)
	}
	return nil
}

// SetRefreshTokenHash overwrites the refresh-token slot. A nil hash clears it.
func (r *UserRepository) SetRefreshTokenHash(ctx context.Context, id ulid.ULID, hash *string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token_hash = $2 WHERE id = $1`,
		id.String(), hash)
	if err != nil {
		return oops.Code("USER_REFRESH_TOKEN_UPDATE_FAILED").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(identity.ErrNotFound)
	}
	return nil
}

// Delete removes a user. Reset artifacts go with it.
func (r *UserRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("USER_DELETE_FAILED").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(identity.ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (*identity.User, error) {
	var (
		u     identity.User
		idStr string
		role  string
	)
	if err := row.Scan(
		&idStr,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.Phone,
		&u.AvatarURL,
		&role,
		&u.PasswordHash,
		&u.RefreshTokenHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck // callers classify pgx.ErrNoRows
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_CORRUPT_ID").With("id", idStr).Wrap(err)
	}
	u.ID = id
	u.Role = identity.Role(role)
	return &u, nil
}
