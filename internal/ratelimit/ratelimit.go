// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

// Package ratelimit provides fixed-window attempt counters.
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/salamnest/salamnest/pkg/errutil"
)

// Limiter decides whether another attempt for key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	// Reset forgets all attempts for key.
	Reset(ctx context.Context, key string) error
}

// Unlimited allows every attempt. Used when no Redis is configured.
type Unlimited struct{}

// Allow always returns true.
func (Unlimited) Allow(context.Context, string) (bool, error) { return true, nil }

// Reset does nothing.
func (Unlimited) Reset(context.Context, string) error { return nil }

// Window is a fixed-window counter stored in Redis. The counter gets an
// expiry whenever it has none, so the first attempt in a window starts it;
// attempts beyond max are refused until it lapses.
type Window struct {
	client redis.Cmdable
	prefix string
	max    int64
	window time.Duration
}

// NewWindow creates a Window that allows max attempts per key per window.
func NewWindow(client redis.Cmdable, prefix string, maxAttempts int, window time.Duration) (*Window, error) {
	if client == nil {
		return nil, oops.Code("RATELIMIT_CONFIG_INVALID").Errorf("redis client is required")
	}
	if maxAttempts <= 0 {
		return nil, oops.Code("RATELIMIT_CONFIG_INVALID").With("max", maxAttempts).Errorf("max attempts must be positive")
	}
	if window <= 0 {
		return nil, oops.Code("RATELIMIT_CONFIG_INVALID").With("window", window).Errorf("window must be positive")
	}
	return &Window{client: client, prefix: prefix, max: int64(maxAttempts), window: window}, nil
}

// Allow counts an attempt for key. The increment and the expiry run in one
// MULTI/EXEC so a counter is never left without a TTL.
func (w *Window) Allow(ctx context.Context, key string) (bool, error) {
	k := w.prefix + key
	var count *redis.IntCmd
	_, err := w.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, w.window)
		return nil
	})
	if err != nil {
		return false, errutil.Internal("RATELIMIT_UNAVAILABLE").With("key", k).Wrap(err)
	}
	return count.Val() <= w.max, nil
}

// Reset forgets all attempts for key.
func (w *Window) Reset(ctx context.Context, key string) error {
	if err := w.client.Del(ctx, w.prefix+key).Err(); err != nil {
		return errutil.Internal("RATELIMIT_UNAVAILABLE").With("key", w.prefix+key).Wrap(err)
	}
	return nil
}

// NewRedisClient opens a client and checks it answers.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, oops.Code("REDIS_CONNECT_FAILED").With("addr", addr).Wrap(err)
	}
	return client, nil
}
