// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package errutil

import "github.com/samber/oops"

// Kind classifies an error for callers on the other side of a service boundary.
// It is carried as the oops domain so it survives logging and transport.
type Kind string

// Error kinds understood by every SalamNest service.
const (
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindConflict       Kind = "conflict"
	KindNotFound       Kind = "not_found"
	KindValidation     Kind = "validation"
	KindBadRequest     Kind = "bad_request"
	KindInternal       Kind = "internal"
)

// InternalMessage is what callers see for any internal failure.
const InternalMessage = "internal error"

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindAuthentication, KindAuthorization, KindConflict, KindNotFound,
		KindValidation, KindBadRequest, KindInternal:
		return true
	}
	return false
}

// In starts an oops builder for the given kind and code.
func In(kind Kind, code string) oops.OopsErrorBuilder {
	return oops.In(string(kind)).Code(code)
}

// Authentication starts an authentication error (bad credentials or tokens).
func Authentication(code string) oops.OopsErrorBuilder { return In(KindAuthentication, code) }

// Authorization starts an authorization error.
func Authorization(code string) oops.OopsErrorBuilder { return In(KindAuthorization, code) }

// Conflict starts a conflict error.
func Conflict(code string) oops.OopsErrorBuilder { return In(KindConflict, code) }

// NotFound starts a not-found error.
func NotFound(code string) oops.OopsErrorBuilder { return In(KindNotFound, code) }

// Validation starts a validation error for malformed input.
func Validation(code string) oops.OopsErrorBuilder { return In(KindValidation, code) }

// BadRequest starts a generic bad-request error.
func BadRequest(code string) oops.OopsErrorBuilder { return In(KindBadRequest, code) }

// Internal starts an internal error.
func Internal(code string) oops.OopsErrorBuilder { return In(KindInternal, code) }

// KindOf returns the kind carried by err. Errors without a known kind are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return KindInternal
	}
	if k := Kind(oopsErr.Domain()); k.Valid() {
		return k
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// CodeOf returns the oops code of err, or an empty string.
func CodeOf(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	if code, ok := any(oopsErr.Code()).(string); ok {
		return code
	}
	return ""
}

// PublicMessage returns the message safe to show to a caller.
// Internal failures never expose their detail.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	if KindOf(err) == KindInternal {
		return InternalMessage
	}
	return err.Error()
}
