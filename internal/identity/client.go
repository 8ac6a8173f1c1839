// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package identity

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// Sender sends a bus command and decodes the reply.
type Sender interface {
	Send(ctx context.Context, service, command string, req, resp any) error
}

// Client calls a remote Store over the bus. Its methods mirror Store's.
type Client struct {
	bus Sender
}

// NewClient creates a Client that sends through bus.
func NewClient(bus Sender) *Client {
	return &Client{bus: bus}
}

func (c *Client) send(ctx context.Context, command string, req, resp any) error {
	return c.bus.Send(ctx, ServiceName, command, req, resp)
}

// ValidateCredentials calls validate_user.
func (c *Client) ValidateCredentials(ctx context.Context, email, password string) (Principal, error) {
	var p Principal
	err := c.send(ctx, CmdValidateUser, CredentialsRequest{Email: email, Password: password}, &p)
	return p, err
}

// SetRefreshToken calls set_refresh_token.
func (c *Client) SetRefreshToken(ctx context.Context, id ulid.ULID, raw string) error {
	return c.send(ctx, CmdSetRefreshToken, RefreshTokenRequest{UserID: id, RefreshToken: raw}, nil)
}

// ClearRefreshToken calls remove_refresh_token.
func (c *Client) ClearRefreshToken(ctx context.Context, id ulid.ULID) error {
	return c.send(ctx, CmdRemoveRefreshToken, UserIDRequest{UserID: id}, nil)
}

// MatchRefreshToken calls validate_refresh_token.
func (c *Client) MatchRefreshToken(ctx context.Context, id ulid.ULID, raw string) (Principal, error) {
	var p Principal
	err := c.send(ctx, CmdValidateRefreshToken, RefreshTokenRequest{UserID: id, RefreshToken: raw}, &p)
	return p, err
}

// CreateUser calls create_user.
func (c *Client) CreateUser(ctx context.Context, in NewUser) (*UserView, error) {
	var u UserView
	if err := c.send(ctx, CmdCreateUser, in, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ExistsByEmail calls user_exists_by_email.
func (c *Client) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var resp ExistsResponse
	err := c.send(ctx, CmdUserExistsByEmail, EmailRequest{Email: email}, &resp)
	return resp.Exists, err
}

// FindByEmail calls find_user_by_email.
func (c *Client) FindByEmail(ctx context.Context, email string) (*UserView, error) {
	var u UserView
	if err := c.send(ctx, CmdFindUserByEmail, EmailRequest{Email: email}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID calls get_user_by_id.
func (c *Client) GetByID(ctx context.Context, id ulid.ULID) (*UserView, error) {
	var u UserView
	if err := c.send(ctx, CmdGetUserByID, UserIDRequest{UserID: id}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateByID calls update_user.
func (c *Client) UpdateByID(ctx context.Context, id ulid.ULID, patch UserPatch) (*UserView, error) {
	var u UserView
	if err := c.send(ctx, CmdUpdateUser, UpdateUserRequest{UserID: id, UserPatch: patch}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteByID calls delete_user.
func (c *Client) DeleteByID(ctx context.Context, id ulid.ULID) error {
	return c.send(ctx, CmdDeleteUser, UserIDRequest{UserID: id}, nil)
}

// CreateResetCode calls create_reset_code.
func (c *Client) CreateResetCode(ctx context.Context, in ResetCodeInput) error {
	return c.send(ctx, CmdCreateResetCode, in, nil)
}

// VerifyResetCode calls verify_reset_code.
func (c *Client) VerifyResetCode(ctx context.Context, email, codeHash string) (ResetResult, error) {
	var res ResetResult
	err := c.send(ctx, CmdVerifyResetCode, VerifyResetCodeRequest{Email: email, CodeHash: codeHash}, &res)
	return res, err
}

// CreatePasswordReset calls create_password_reset.
func (c *Client) CreatePasswordReset(ctx context.Context, in ResetTokenInput) error {
	return c.send(ctx, CmdCreatePasswordReset, in, nil)
}

// ResetPasswordWithToken calls reset_password_with_token.
func (c *Client) ResetPasswordWithToken(ctx context.Context, tokenHash, newPassword string) (ResetResult, error) {
	var res ResetResult
	err := c.send(ctx, CmdResetPasswordWithToken, ResetPasswordRequest{TokenHash: tokenHash, NewPassword: newPassword}, &res)
	return res, err
}
