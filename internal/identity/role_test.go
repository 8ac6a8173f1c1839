// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salamnest/salamnest/internal/identity"
	"github.com/salamnest/salamnest/pkg/errutil"
)

func TestParseRole(t *testing.T) {
	r, err := identity.ParseRole("  Staff ")
	require.NoError(t, err)
	assert.Equal(t, identity.RoleStaff, r)

	_, err = identity.ParseRole("guardian")
	errutil.AssertErrorCode(t, err, "ROLE_INVALID")
	errutil.AssertErrorKind(t, err, errutil.KindValidation)
}

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  identity.Role
	}{
		{"role value", identity.RoleAdmin, identity.RoleAdmin},
		{"plain string", "parent", identity.RoleParent},
		{"mixed case string", "ADMIN", identity.RoleAdmin},
		{"string slice", []string{"staff"}, identity.RoleStaff},
		{"role slice", []identity.Role{identity.RoleParent}, identity.RoleParent},
		{"decoded json array", []any{"admin"}, identity.RoleAdmin},
		{"repeated entries", []string{"staff", "Staff"}, identity.RoleStaff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := identity.NormalizeRole(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeRole_FailsLoudly(t *testing.T) {
	inputs := map[string]any{
		"unknown name":     "guardian",
		"empty string":     "",
		"nil":              nil,
		"number":           42,
		"empty list":       []string{},
		"conflicting list": []string{"admin", "parent"},
		"non-string item":  []any{"admin", 1},
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := identity.NormalizeRole(input)
			errutil.AssertErrorCode(t, err, "ROLE_UNRESOLVABLE")
			errutil.AssertErrorKind(t, err, errutil.KindInternal)
		})
	}
}
