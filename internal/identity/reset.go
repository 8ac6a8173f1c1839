// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
)

// ReasonInvalidOrExpired is the only failure reason reported by the reset
// operations, whatever actually went wrong.
const ReasonInvalidOrExpired = "invalid_or_expired_code"

// ResetCode is a hashed one-time code issued by forgot-password.
type ResetCode struct {
	ID        ulid.ULID
	UserID    ulid.ULID
	Email     string
	CodeHash  string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the code had expired at now.
func (c *ResetCode) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// ResetToken is a hashed single-use token that authorizes a password change.
type ResetToken struct {
	ID        ulid.ULID
	UserID    ulid.ULID
	Email     string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the token had expired at now.
func (t *ResetToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// ResetCodeInput is the payload of CreateResetCode.
type ResetCodeInput struct {
	UserID    ulid.ULID `json:"userId"`
	Email     string    `json:"email"`
	CodeHash  string    `json:"codeHash"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ResetTokenInput is the payload of CreatePasswordReset.
type ResetTokenInput struct {
	UserID    ulid.ULID `json:"userId"`
	Email     string    `json:"email"`
	TokenHash string    `json:"tokenHash"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ResetResult reports the outcome of VerifyResetCode and ResetPasswordWithToken.
// A failed outcome is not an error: Reason is always ReasonInvalidOrExpired.
type ResetResult struct {
	Success bool      `json:"success"`
	UserID  ulid.ULID `json:"userId,omitzero"`
	Reason  string    `json:"reason,omitempty"`
}

func resetFailed() ResetResult {
	return ResetResult{Success: false, Reason: ReasonInvalidOrExpired}
}

// HashSecret returns the hex sha256 of a reset code or reset token.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
