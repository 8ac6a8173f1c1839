// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

// Package identity owns SalamNest user records and their credentials.
//
// # Records
//
// The Store is the only writer of four records:
//   - User - profile, role, password hash and the single refresh-token slot
//   - ResetCode - hashed six digit code sent by email during password reset
//   - ResetToken - hashed high-entropy token issued after a code is verified
//
// Raw passwords and raw refresh tokens cross into this package and are hashed
// before they reach a repository. Hashes never leave it: callers receive
// UserView and Principal values instead of User.
//
// # Transport
//
// RegisterHandlers exposes the Store on the internal bus and Client calls it
// from other processes. Both sides use the command names in contract.go.
package identity
