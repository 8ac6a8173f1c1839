// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package auth

import (
	"context"

	"github.com/oklog/ulid/v2"

	"github.com/salamnest/salamnest/internal/identity"
)

// IdentityStore is the part of the identity store the orchestrator calls.
// Both *identity.Store and the bus-backed *identity.Client satisfy it.
type IdentityStore interface {
	ValidateCredentials(ctx context.Context, email, password string) (identity.Principal, error)
	SetRefreshToken(ctx context.Context, id ulid.ULID, raw string) error
	ClearRefreshToken(ctx context.Context, id ulid.ULID) error
	MatchRefreshToken(ctx context.Context, id ulid.ULID, raw string) (identity.Principal, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, in identity.NewUser) (*identity.UserView, error)
	FindByEmail(ctx context.Context, email string) (*identity.UserView, error)
	CreateResetCode(ctx context.Context, in identity.ResetCodeInput) error
	VerifyResetCode(ctx context.Context, email, codeHash string) (identity.ResetResult, error)
	CreatePasswordReset(ctx context.Context, in identity.ResetTokenInput) error
	ResetPasswordWithToken(ctx context.Context, tokenHash, newPassword string) (identity.ResetResult, error)
}

var (
	_ IdentityStore = (*identity.Store)(nil)
	_ IdentityStore = (*identity.Client)(nil)
)
