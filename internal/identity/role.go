// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package identity

import (
	"strings"

	"github.com/salamnest/salamnest/pkg/errutil"
)

// Role is one of the closed set of SalamNest account roles.
type Role string

// Account roles.
const (
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleParent Role = "parent"
)

// DefaultRole is assigned when registration does not name one.
const DefaultRole = RoleParent

// Valid reports whether r is in the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleParent:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole parses a single role name. Case and surrounding space are ignored.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", errutil.Validation("ROLE_INVALID").
			With("role", s).
			Errorf("role must be one of admin, staff, parent")
	}
	return r, nil
}

// NormalizeRole maps any accepted role representation to the closed set.
//
// Accepted shapes are a Role, a string, or a list holding exactly one distinct
// role (as []string, []Role or the []any produced by JSON decoding). Anything
// else fails with ROLE_UNRESOLVABLE instead of falling back to a default.
func NormalizeRole(v any) (Role, error) {
	switch val := v.(type) {
	case Role:
		return normalizeOne(string(val))
	case string:
		return normalizeOne(val)
	case []Role:
		names := make([]string, len(val))
		for i, r := range val {
			names[i] = string(r)
		}
		return normalizeList(names)
	case []string:
		return normalizeList(val)
	case []any:
		names := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return "", unresolvable(v)
			}
			names = append(names, s)
		}
		return normalizeList(names)
	default:
		return "", unresolvable(v)
	}
}

func normalizeOne(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", unresolvable(s)
	}
	return r, nil
}

func normalizeList(names []string) (Role, error) {
	var found Role
	for _, n := range names {
		r, err := normalizeOne(n)
		if err != nil {
			return "", err
		}
		if found != "" && found != r {
			return "", unresolvable(names)
		}
		found = r
	}
	if found == "" {
		return "", unresolvable(names)
	}
	return found, nil
}

func unresolvable(v any) error {
	return errutil.Internal("ROLE_UNRESOLVABLE").
		With("role", v).
		Errorf("role cannot be resolved")
}
