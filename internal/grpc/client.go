// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package grpc

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"time"

	"github.com/samber/oops"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/salamnest/salamnest/pkg/errutil"
)

// DefaultCallTimeout bounds calls whose context has no deadline.
const DefaultCallTimeout = 5 * time.Second

// Client sends commands to a bus server.
type Client struct {
	conn    *grpc.ClientConn
	timeout time.Duration
	metrics *Metrics
}

// ClientConfig holds configuration for the bus client.
type ClientConfig struct {
	// Address is the target bus server address (e.g., "localhost:7101")
	Address string

	// TLSConfig for TLS. If nil, insecure connection is used.
	TLSConfig *tls.Config

	// KeepaliveTime is how often to ping the server (default: 10s)
	KeepaliveTime time.Duration

	// KeepaliveTimeout is how long to wait for ping response (default: 5s)
	KeepaliveTimeout time.Duration

	// CallTimeout applies to calls whose context has no deadline (default: 5s)
	CallTimeout time.Duration

	// Metrics records client-side call outcomes. Optional.
	Metrics *Metrics

	// DialOptions are appended to the defaults.
	DialOptions []grpc.DialOption
}

// NewClient creates a new bus client. The connection is established lazily.
func NewClient(_ context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.Address == "" {
		return nil, oops.Code("BUS_CONFIG_INVALID").Errorf("address is required")
	}

	if cfg.KeepaliveTime == 0 {
		cfg.KeepaliveTime = 10 * time.Second
	}
	if cfg.KeepaliveTimeout == 0 {
		cfg.KeepaliveTimeout = 5 * time.Second
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}

	opts := []grpc.DialOption{
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                cfg.KeepaliveTime,
			Timeout:             cfg.KeepaliveTimeout,
			PermitWithoutStream: true,
		}),
	}

	if cfg.TLSConfig != nil {
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(cfg.TLSConfig)))
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	opts = append(opts, cfg.DialOptions...)

	conn, err := grpc.NewClient(cfg.Address, opts...)
	if err != nil {
		return nil, oops.Code("BUS_DIAL_FAILED").With("address", cfg.Address).Wrap(err)
	}

	return &Client{conn: conn, timeout: cfg.CallTimeout, metrics: cfg.Metrics}, nil
}

// Close closes the underlying gRPC connection.
func (c *Client) Close() error {
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return oops.Code("BUS_CLOSE_FAILED").Wrap(err)
		}
	}
	return nil
}

// Send invokes command on service with req encoded as JSON and decodes the
// reply into resp, which may be nil. Failures carry the remote error kind;
// timeouts and unreachable servers are internal errors.
func (c *Client) Send(ctx context.Context, service, command string, req, resp any) error {
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return errutil.Internal("BUS_REQUEST_ENCODE_FAILED").With("command", command).Wrap(err)
	}

	out := new(wrapperspb.BytesValue)
	if err := c.conn.Invoke(ctx, "/"+service+"/"+command, wrapperspb.Bytes(body), out); err != nil {
		callErr := fromStatus(err, service, command)
		c.metrics.observeClient(service, command, string(errutil.KindOf(callErr)))
		return callErr
	}
	c.metrics.observeClient(service, command, outcomeOK)

	if resp == nil {
		return nil
	}
	if err := json.Unmarshal(out.GetValue(), resp); err != nil {
		return errutil.Internal("BUS_RESPONSE_DECODE_FAILED").With("command", command).Wrap(err)
	}
	return nil
}
