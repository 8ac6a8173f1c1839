// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package auth

import (
	"context"

	"github.com/salamnest/salamnest/internal/identity"
	"github.com/salamnest/salamnest/internal/token"
)

// Client calls the auth service over the bus. It is what a gateway uses.
type Client struct {
	bus identity.Sender
}

// NewClient creates a Client that sends through bus.
func NewClient(bus identity.Sender) *Client {
	return &Client{bus: bus}
}

func send[Resp any](ctx context.Context, c *Client, command string, req any) (*Resp, error) {
	var resp Resp
	if err := c.bus.Send(ctx, ServiceName, command, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login calls login.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	return send[AuthResponse](ctx, c, CmdLogin, req)
}

// Register calls register.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	return send[AuthResponse](ctx, c, CmdRegister, req)
}

// Refresh calls refresh.
func (c *Client) Refresh(ctx context.Context, p token.Payload) (*RefreshResponse, error) {
	return send[RefreshResponse](ctx, c, CmdRefresh, p)
}

// ValidateRefreshToken calls validate_refresh_token.
func (c *Client) ValidateRefreshToken(ctx context.Context, raw string) (*token.Payload, error) {
	return send[token.Payload](ctx, c, CmdValidateRefreshToken, RefreshTokenRequest{RefreshToken: raw})
}

// Logout calls logout.
func (c *Client) Logout(ctx context.Context, p token.Payload) (*MessageResponse, error) {
	return send[MessageResponse](ctx, c, CmdLogout, p)
}

// ForgotPassword calls forgot_password.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*ResetResponse, error) {
	return send[ResetResponse](ctx, c, CmdForgotPassword, ForgotPasswordRequest{Email: email})
}

// VerifyResetCode calls verify_reset_code.
func (c *Client) VerifyResetCode(ctx context.Context, email, code string) (*ResetResponse, error) {
	return send[ResetResponse](ctx, c, CmdVerifyResetCode, VerifyResetCodeRequest{Email: email, Code: code})
}

// ResetPassword calls reset_password.
func (c *Client) ResetPassword(ctx context.Context, rawToken, newPassword string) (*ResetResponse, error) {
	return send[ResetResponse](ctx, c, CmdResetPassword, ResetPasswordRequest{Token: rawToken, NewPassword: newPassword})
}
