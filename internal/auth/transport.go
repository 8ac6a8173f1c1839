// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package auth

import (
	"context"

	bus "github.com/salamnest/salamnest/internal/grpc"
	"github.com/salamnest/salamnest/internal/token"
)

// NewBusService exposes the orchestrator under ServiceName.
func NewBusService(s *Service, resets *PasswordResetService) *bus.Service {
	return bus.NewService(ServiceName).
		Handle(CmdLogin, bus.Typed(func(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
			return s.Login(ctx, req)
		})).
		Handle(CmdRegister, bus.Typed(func(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
			return s.Register(ctx, req)
		})).
		Handle(CmdRefresh, bus.Typed(func(ctx context.Context, req token.Payload) (*RefreshResponse, error) {
			return s.Refresh(ctx, req)
		})).
		Handle(CmdValidateRefreshToken, bus.Typed(func(ctx context.Context, req RefreshTokenRequest) (token.Payload, error) {
			return s.ValidateRefreshToken(ctx, req.RefreshToken)
		})).
		Handle(CmdLogout, bus.Typed(func(ctx context.Context, req token.Payload) (*MessageResponse, error) {
			return s.Logout(ctx, req), nil
		})).
		Handle(CmdForgotPassword, bus.Typed(func(ctx context.Context, req ForgotPasswordRequest) (*ResetResponse, error) {
			return resets.RequestCode(ctx, req.Email), nil
		})).
		Handle(CmdVerifyResetCode, bus.Typed(func(ctx context.Context, req VerifyResetCodeRequest) (*ResetResponse, error) {
			return resets.VerifyCode(ctx, req.Email, req.Code)
		})).
		Handle(CmdResetPassword, bus.Typed(func(ctx context.Context, req ResetPasswordRequest) (*ResetResponse, error) {
			return resets.ResetPassword(ctx, req.Token, req.NewPassword)
		}))
}
