// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package auth

import (
	"github.com/salamnest/salamnest/pkg/errutil"
)

func errInvalidCredentials() error {
	return errutil.Authentication("AUTH_INVALID_CREDENTIALS").Errorf("invalid credentials")
}

func errInvalidRefreshToken() error {
	return errutil.Authentication("AUTH_REFRESH_TOKEN_INVALID").Errorf("invalid refresh token")
}

func errInvalidResetCode() error {
	return errutil.BadRequest("RESET_CODE_INVALID").Errorf("invalid or expired code")
}

func errInvalidResetToken() error {
	return errutil.BadRequest("RESET_TOKEN_INVALID").Errorf("invalid or expired token")
}

// internalError reports err as an internal failure of operation. Errors that
// already carry another kind are not wrapped, so the new kind sticks.
func internalError(code, operation string, err error) error {
	b := errutil.Internal(code).With("operation", operation)
	if errutil.KindOf(err) == errutil.KindInternal {
		return b.Wrap(err)
	}
	return b.With("cause", err.Error()).Errorf("%s failed", operation)
}
