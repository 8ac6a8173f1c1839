// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

// Package auth orchestrates sign-in and password recovery on top of the
// identity store.
//
// # Services
//
//   - Service - login, register, refresh and logout
//   - PasswordResetService - the forgot-password flow
//
// Neither service keeps session state. Refresh tokens live in the identity
// store's single slot per user, so a new login replaces the previous one.
//
// # Password reset
//
// The reset flow moves through Idle, CodeRequested, CodeVerified and
// Completed. Each transition is one PasswordResetService method and can be
// called on its own:
//
//	RequestCode    Idle -> CodeRequested
//	VerifyCode     CodeRequested -> CodeVerified
//	ResetPassword  CodeVerified -> Completed
//
// Callers never learn whether an email is registered. RequestCode always
// acknowledges, and every VerifyCode and ResetPassword failure reads the same.
package auth
