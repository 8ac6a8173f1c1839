// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package identity

import (
	"context"

	bus "github.com/salamnest/salamnest/internal/grpc"
)

var ack = Ack{Success: true}

// NewBusService exposes s under ServiceName.
func NewBusService(s *Store) *bus.Service {
	return bus.NewService(ServiceName).
		Handle(CmdValidateUser, bus.Typed(func(ctx context.Context, req CredentialsRequest) (Principal, error) {
			return s.ValidateCredentials(ctx, req.Email, req.Password)
		})).
		Handle(CmdSetRefreshToken, bus.Typed(func(ctx context.Context, req RefreshTokenRequest) (Ack, error) {
			return ack, s.SetRefreshToken(ctx, req.UserID, req.RefreshToken)
		})).
		Handle(CmdRemoveRefreshToken, bus.Typed(func(ctx context.Context, req UserIDRequest) (Ack, error) {
			return ack, s.ClearRefreshToken(ctx, req.UserID)
		})).
		Handle(CmdValidateRefreshToken, bus.Typed(func(ctx context.Context, req RefreshTokenRequest) (Principal, error) {
			return s.MatchRefreshToken(ctx, req.UserID, req.RefreshToken)
		})).
		Handle(CmdCreateUser, bus.Typed(func(ctx context.Context, req NewUser) (*UserView, error) {
			return s.CreateUser(ctx, req)
		})).
		Handle(CmdUserExistsByEmail, bus.Typed(func(ctx context.Context, req EmailRequest) (ExistsResponse, error) {
			exists, err := s.ExistsByEmail(ctx, req.Email)
			return ExistsResponse{Exists: exists}, err
		})).
		Handle(CmdFindUserByEmail, bus.Typed(func(ctx context.Context, req EmailRequest) (*UserView, error) {
			return s.FindByEmail(ctx, req.Email)
		})).
		Handle(CmdGetUserByID, bus.Typed(func(ctx context.Context, req UserIDRequest) (*UserView, error) {
			return s.GetByID(ctx, req.UserID)
		})).
		Handle(CmdUpdateUser, bus.Typed(func(ctx context.Context, req UpdateUserRequest) (*UserView, error) {
			return s.UpdateByID(ctx, req.UserID, req.UserPatch)
		})).
		Handle(CmdDeleteUser, bus.Typed(func(ctx context.Context, req UserIDRequest) (Ack, error) {
			return ack, s.DeleteByID(ctx, req.UserID)
		})).
		Handle(CmdCreateResetCode, bus.Typed(func(ctx context.Context, req ResetCodeInput) (Ack, error) {
			return ack, s.CreateResetCode(ctx, req)
		})).
		Handle(CmdVerifyResetCode, bus.Typed(func(ctx context.Context, req VerifyResetCodeRequest) (ResetResult, error) {
			return s.VerifyResetCode(ctx, req.Email, req.CodeHash)
		})).
		Handle(CmdCreatePasswordReset, bus.Typed(func(ctx context.Context, req ResetTokenInput) (Ack, error) {
			return ack, s.CreatePasswordReset(ctx, req)
		})).
		Handle(CmdResetPasswordWithToken, bus.Typed(func(ctx context.Context, req ResetPasswordRequest) (ResetResult, error) {
			return s.ResetPasswordWithToken(ctx, req.TokenHash, req.NewPassword)
		}))
}
