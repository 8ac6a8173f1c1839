// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

// Package grpc implements the SalamNest internal bus: synchronous
// request/response calls keyed by a service and command name, with JSON
// payloads carried over gRPC.
package grpc

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"log/slog"
	"net"
	"sort"
	"time"

	"github.com/samber/oops"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/salamnest/salamnest/pkg/errutil"
)

// Handler serves one command. payload is the raw JSON request body; the
// returned value is encoded as JSON.
type Handler func(ctx context.Context, payload []byte) (any, error)

// Typed adapts fn to a Handler that decodes the payload into Req.
func Typed[Req, Resp any](fn func(context.Context, Req) (Resp, error)) Handler {
	return func(ctx context.Context, payload []byte) (any, error) {
		var req Req
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &req); err != nil {
				return nil, errutil.Validation("PAYLOAD_INVALID").Errorf("invalid payload: %v", err)
			}
		}
		return fn(ctx, req)
	}
}

// Service groups the commands served under one service name.
type Service struct {
	name     string
	handlers map[string]Handler
}

// NewService creates an empty service, e.g. "salamnest.auth.v1.Auth".
func NewService(name string) *Service {
	return &Service{name: name, handlers: make(map[string]Handler)}
}

// Name returns the service name.
func (s *Service) Name() string { return s.name }

// Handle registers h for command, replacing any previous handler.
func (s *Service) Handle(command string, h Handler) *Service {
	s.handlers[command] = h
	return s
}

// Commands returns the registered command names in order.
func (s *Service) Commands() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ServerConfig holds configuration for the bus server.
type ServerConfig struct {
	// TLSConfig enables TLS. If nil, the server accepts plaintext connections.
	TLSConfig *tls.Config

	// Logger receives request failures. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics records request counts and latency. Optional.
	Metrics *Metrics
}

// Server serves registered services.
type Server struct {
	grpc    *grpc.Server
	logger  *slog.Logger
	metrics *Metrics
}

// NewServer creates a bus server.
func NewServer(cfg ServerConfig, opts ...grpc.ServerOption) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.TLSConfig != nil {
		opts = append(opts, grpc.Creds(credentials.NewTLS(cfg.TLSConfig)))
	}
	return &Server{
		grpc:    grpc.NewServer(opts...),
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
}

// Register exposes svc. It must be called before Serve.
func (s *Server) Register(svc *Service) {
	desc := &grpc.ServiceDesc{
		ServiceName: svc.name,
		HandlerType: (*any)(nil),
		Metadata:    "salamnest/bus",
	}
	for _, command := range svc.Commands() {
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: command,
			Handler:    s.methodHandler(svc.name, command, svc.handlers[command]),
		})
	}
	s.grpc.RegisterService(desc, nil)
}

// Serve accepts connections on lis until Stop or GracefulStop is called.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.grpc.Serve(lis); err != nil {
		return oops.Code("BUS_SERVE_FAILED").With("addr", lis.Addr().String()).Wrap(err)
	}
	return nil
}

// GracefulStop stops accepting calls and waits for in-flight calls to finish.
func (s *Server) GracefulStop() { s.grpc.GracefulStop() }

// Stop closes all connections immediately.
func (s *Server) Stop() { s.grpc.Stop() }

func (s *Server) methodHandler(service, command string, h Handler) grpc.MethodHandler {
	fullMethod := "/" + service + "/" + command
	return func(_ any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(wrapperspb.BytesValue)
		if err := dec(in); err != nil {
			return nil, err
		}
		call := func(ctx context.Context, req any) (any, error) {
			return s.dispatch(ctx, service, command, h, req.(*wrapperspb.BytesValue))
		}
		if interceptor == nil {
			return call(ctx, in)
		}
		return interceptor(ctx, in, &grpc.UnaryServerInfo{FullMethod: fullMethod}, call)
	}
}

func (s *Server) dispatch(ctx context.Context, service, command string, h Handler, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	start := time.Now()
	resp, err := h(ctx, in.GetValue())
	if err == nil {
		var body []byte
		body, err = json.Marshal(resp)
		if err == nil {
			s.metrics.observe(service, command, outcomeOK, time.Since(start))
			return wrapperspb.Bytes(body), nil
		}
		err = errutil.Internal("BUS_RESPONSE_ENCODE_FAILED").With("command", command).Wrap(err)
	}

	kind := errutil.KindOf(err)
	s.metrics.observe(service, command, string(kind), time.Since(start))
	if kind == errutil.KindInternal {
		errutil.LogError(s.logger.With("service", service, "command", command), "bus command failed", err)
	} else {
		s.logger.DebugContext(ctx, "bus command rejected",
			"service", service, "command", command, "kind", kind, "code", errutil.CodeOf(err))
	}
	return nil, toStatus(err)
}
