// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package auth

import (
	"github.com/oklog/ulid/v2"

	"github.com/salamnest/salamnest/internal/identity"
)

// ServiceName is the bus service the auth process serves.
const ServiceName = "salamnest.auth.v1.Auth"

// Bus command names.
const (
	CmdLogin                = "login"
	CmdRegister             = "register"
	CmdRefresh              = "refresh"
	CmdLogout               = "logout"
	CmdValidateRefreshToken = "validate_refresh_token"
	CmdForgotPassword       = "forgot_password"
	CmdVerifyResetCode      = "verify_reset_code"
	CmdResetPassword        = "reset_password"
)

// Caller-visible messages.
const (
	MsgLoginSuccessful      = "Login successful"
	MsgRegistered           = "Registration successful"
	MsgRegisteredPleaseLog  = "Registration successful. Please log in."
	MsgRegisteredDegraded   = "Registered. Please log in."
	MsgLoggedOut            = "Logged out"
	MsgResetCodeSent        = "If an account exists for this email, a reset code has been sent."
	MsgResetCodeVerified    = "Code verified. You can now reset your password."
	MsgPasswordResetSuccess = "Password has been reset successfully."
)

// LoginRequest is the payload of login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// RegisterRequest is the payload of register.
type RegisterRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Phone     *string `json:"phone,omitempty"`
	Role      string  `json:"role,omitempty"`
}

// AuthResponse is returned by login and register. Tokens are absent when
// register did not sign the user in.
type AuthResponse struct {
	ID           ulid.ULID     `json:"id"`
	Email        string        `json:"email"`
	Role         identity.Role `json:"role"`
	AccessToken  string        `json:"accessToken,omitempty"`
	RefreshToken string        `json:"refreshToken,omitempty"`
	Message      string        `json:"message"`
}

// RefreshTokenRequest is the payload of validate_refresh_token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse is returned by refresh.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// MessageResponse is returned by logout.
type MessageResponse struct {
	Message string `json:"message"`
}

// ForgotPasswordRequest is the payload of forgot_password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// VerifyResetCodeRequest is the payload of verify_reset_code.
type VerifyResetCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResetPasswordRequest is the payload of reset_password.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ResetResponse is returned by each step of the reset flow. ResetToken is
// only set by verify_reset_code.
type ResetResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	ResetToken string `json:"resetToken,omitempty"`
}
