// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package identity

import "github.com/oklog/ulid/v2"

// ServiceName is the bus service the identity process serves.
const ServiceName = "salamnest.identity.v1.IdentityStore"

// Bus command names.
const (
	CmdCreateUser             = "create_user"
	CmdValidateUser           = "validate_user"
	CmdSetRefreshToken        = "set_refresh_token"
	CmdRemoveRefreshToken     = "remove_refresh_token"
	CmdValidateRefreshToken   = "validate_refresh_token"
	CmdUserExistsByEmail      = "user_exists_by_email"
	CmdFindUserByEmail        = "find_user_by_email"
	CmdGetUserByID            = "get_user_by_id"
	CmdUpdateUser             = "update_user"
	CmdDeleteUser             = "delete_user"
	CmdCreateResetCode        = "create_reset_code"
	CmdVerifyResetCode        = "verify_reset_code"
	CmdCreatePasswordReset    = "create_password_reset"
	CmdResetPasswordWithToken = "reset_password_with_token"
)

// CredentialsRequest is the payload of validate_user.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshTokenRequest is the payload of set_refresh_token and validate_refresh_token.
type RefreshTokenRequest struct {
	UserID       ulid.ULID `json:"userId"`
	RefreshToken string    `json:"refreshToken"`
}

// UserIDRequest is the payload of commands keyed by user ID.
type UserIDRequest struct {
	UserID ulid.ULID `json:"userId"`
}

// EmailRequest is the payload of commands keyed by email.
type EmailRequest struct {
	Email string `json:"email"`
}

// UpdateUserRequest is the payload of update_user.
type UpdateUserRequest struct {
	UserID ulid.ULID `json:"userId"`
	UserPatch
}

// VerifyResetCodeRequest is the payload of verify_reset_code.
type VerifyResetCodeRequest struct {
	Email    string `json:"email"`
	CodeHash string `json:"codeHash"`
}

// ResetPasswordRequest is the payload of reset_password_with_token.
type ResetPasswordRequest struct {
	TokenHash   string `json:"tokenHash"`
	NewPassword string `json:"newPassword"`
}

// Ack is returned by commands that only report success.
type Ack struct {
	Success bool `json:"success"`
}

// ExistsResponse is returned by user_exists_by_email.
type ExistsResponse struct {
	Exists bool `json:"exists"`
}
