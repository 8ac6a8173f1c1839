// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package identity

import (
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/salamnest/salamnest/pkg/errutil"
)

// MinPasswordLength is the shortest password accepted at registration and reset.
const MinPasswordLength = 8

// User is the stored account record. It never leaves this package's boundary;
// use View to hand it to callers.
type User struct {
	ID               ulid.ULID
	Email            string
	FirstName        string
	LastName         string
	Phone            *string
	AvatarURL        *string
	Role             Role
	PasswordHash     string
	RefreshTokenHash *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// View strips credential material from u.
func (u *User) View() *UserView {
	return &UserView{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserView is the caller-facing projection of a User.
type UserView struct {
	ID        ulid.ULID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     *string   `json:"phone,omitempty"`
	AvatarURL *string   `json:"avatarUrl,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Principal is the identity a credential resolves to.
// Role is left as stored so the caller can normalize it.
type Principal struct {
	ID   ulid.ULID `json:"id"`
	Role string    `json:"role"`
}

// NewUser holds the fields accepted by CreateUser.
type NewUser struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Phone     *string `json:"phone,omitempty"`
	Role      string  `json:"role,omitempty"`
}

// UserPatch holds the optional fields accepted by UpdateByID.
// There is deliberately no password field.
type UserPatch struct {
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
	Role      *string `json:"role,omitempty"`
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a bare, parseable address.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errutil.Validation("EMAIL_INVALID").
			With("email", email).
			Errorf("email must be a valid address")
	}
	return nil
}

// ValidatePassword enforces the password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errutil.Validation("PASSWORD_TOO_SHORT").
			With("min_length", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
