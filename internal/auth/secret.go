// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/samber/oops"
)

// Reset secret sizes.
const (
	ResetCodeDigits = 6
	ResetTokenBytes = 32 // 64 hex chars
)

var (
	resetCodeMin   = big.NewInt(100000)
	resetCodeRange = big.NewInt(900000)
)

// Generator produces a fresh secret.
type Generator func() (string, error)

// GenerateResetCode returns a uniformly random six-digit code in 100000-999999.
func GenerateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, resetCodeRange)
	if err != nil {
		return "", oops.Code("RESET_CODE_GENERATE_FAILED").Wrap(err)
	}
	return fmt.Sprintf("%06d", n.Add(n, resetCodeMin).Int64()), nil
}

// GenerateResetToken returns 32 random bytes, hex encoded.
func GenerateResetToken() (string, error) {
	b := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("RESET_TOKEN_GENERATE_FAILED").Wrap(err)
	}
	return hex.EncodeToString(b), nil
}

// isResetCode reports whether s is exactly six ASCII digits.
func isResetCode(s string) bool {
	if len(s) != ResetCodeDigits {
		return false
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
