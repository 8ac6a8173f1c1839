// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package identity

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

// Repository sentinel errors. Implementations wrap them so errors.Is works.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned when an email is already used by another user.
	ErrEmailTaken = errors.New("email already registered")
)

// UserRepository persists users. Emails are passed in normalized form and
// must be unique regardless of case.
type UserRepository interface {
	// Create stores a new user. Returns ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by email, ignoring case.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// ExistsByEmail reports whether any user has email, ignoring case.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Update stores profile fields and role. Password and refresh-token hashes
	// are left unchanged. Returns ErrEmailTaken on a duplicate email.
	Update(ctx context.Context, user *User) error

	// UpdatePasswordHash replaces the password hash.
	UpdatePasswordHash(ctx context.Context, id ulid.ULID, hash string) error

	// SetRefreshTokenHash overwrites the refresh-token slot. A nil hash clears it.
	SetRefreshTokenHash(ctx context.Context, id ulid.ULID, hash *string) error

	// Delete removes a user.
	Delete(ctx context.Context, id ulid.ULID) error
}

// ResetCodeRepository persists password reset codes.
type ResetCodeRepository interface {
	// Replace deletes every code for the user or email and stores code, atomically.
	Replace(ctx context.Context, code *ResetCode) error

	// LatestUnused returns the newest code for email and hash that has not been used.
	LatestUnused(ctx context.Context, email, codeHash string) (*ResetCode, error)

	// MarkUsed sets used_at if it is still empty. Returns false if another
	// caller already used the code.
	MarkUsed(ctx context.Context, id ulid.ULID, at time.Time) (bool, error)

	// Delete removes a code.
	Delete(ctx context.Context, id ulid.ULID) error

	// DeleteExpired removes codes that expired before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ResetTokenRepository persists password reset tokens.
type ResetTokenRepository interface {
	// Replace deletes every token for the user or email and stores token, atomically.
	Replace(ctx context.Context, token *ResetToken) error

	// Claim deletes the token with hash and returns it. Only one caller can
	// claim a given token.
	Claim(ctx context.Context, tokenHash string) (*ResetToken, error)

	// DeleteExpired removes tokens that expired before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
