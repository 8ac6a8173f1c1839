// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package grpc

import (
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/salamnest/salamnest/pkg/errutil"
)

var kindCodes = map[errutil.Kind]codes.Code{
	errutil.KindAuthentication: codes.Unauthenticated,
	errutil.KindAuthorization:  codes.PermissionDenied,
	errutil.KindConflict:       codes.AlreadyExists,
	errutil.KindNotFound:       codes.NotFound,
	errutil.KindValidation:     codes.InvalidArgument,
	errutil.KindBadRequest:     codes.FailedPrecondition,
	errutil.KindInternal:       codes.Internal,
}

// toStatus encodes err as a gRPC status carrying its kind and code.
// Internal errors keep only the generic public message.
func toStatus(err error) error {
	kind := errutil.KindOf(err)
	code, ok := kindCodes[kind]
	if !ok {
		code = codes.Internal
	}
	st := status.New(code, errutil.PublicMessage(err))
	detailed, detailErr := st.WithDetails(&errdetails.ErrorInfo{
		Reason: errutil.CodeOf(err),
		Domain: string(kind),
	})
	if detailErr != nil {
		return st.Err()
	}
	return detailed.Err()
}

// fromStatus rebuilds a kinded error from a failed call.
func fromStatus(err error, service, command string) error {
	st, ok := status.FromError(err)
	if !ok {
		return errutil.Internal("BUS_CALL_FAILED").
			With("service", service).
			With("command", command).
			Wrap(err)
	}

	switch st.Code() {
	case codes.DeadlineExceeded, codes.Canceled:
		return errutil.Internal("BUS_TIMEOUT").
			With("service", service).
			With("command", command).
			Errorf("%s %s: %s", service, command, st.Message())
	case codes.Unavailable:
		return errutil.Internal("BUS_UNAVAILABLE").
			With("service", service).
			With("command", command).
			Errorf("%s %s: %s", service, command, st.Message())
	}

	for _, detail := range st.Details() {
		info, ok := detail.(*errdetails.ErrorInfo)
		if !ok {
			continue
		}
		kind := errutil.Kind(info.GetDomain())
		if !kind.Valid() {
			break
		}
		reason := info.GetReason()
		if reason == "" {
			reason = "BUS_REMOTE_ERROR"
		}
		return errutil.In(kind, reason).With("command", command).Errorf("%s", st.Message())
	}

	return errutil.In(kindForCode(st.Code()), "BUS_REMOTE_ERROR").
		With("command", command).
		Errorf("%s", st.Message())
}

func kindForCode(c codes.Code) errutil.Kind {
	for kind, code := range kindCodes {
		if code == c {
			return kind
		}
	}
	return errutil.KindInternal
}
