// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salamnest/salamnest/pkg/errutil"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestNewWindow_Validation(t *testing.T) {
	_, client := newTestRedis(t)

	_, err := NewWindow(nil, "p:", 1, time.Minute)
	errutil.AssertErrorCode(t, err, "RATELIMIT_CONFIG_INVALID")

	_, err = NewWindow(client, "p:", 0, time.Minute)
	errutil.AssertErrorCode(t, err, "RATELIMIT_CONFIG_INVALID")

	_, err = NewWindow(client, "p:", 1, 0)
	errutil.AssertErrorCode(t, err, "RATELIMIT_CONFIG_INVALID")
}

func TestWindow_Allow(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	w, err := NewWindow(client, "reset:req:", 3, 15*time.Minute)
	require.NoError(t, err)

	for i := range 3 {
		ok, err := w.Allow(ctx, "a@x.com")
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i+1)
	}
	ok, err := w.Allow(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, ok, "fourth attempt is refused")

	ok, err = w.Allow(ctx, "b@x.com")
	require.NoError(t, err)
	assert.True(t, ok, "keys are counted separately")

	assert.Equal(t, 15*time.Minute, mr.TTL("reset:req:a@x.com"))

	mr.FastForward(15 * time.Minute)
	ok, err = w.Allow(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, ok, "window lapsed")
}

func TestWindow_Allow_KeepsWindowStart(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	w, err := NewWindow(client, "p:", 5, 10*time.Minute)
	require.NoError(t, err)

	_, err = w.Allow(ctx, "k")
	require.NoError(t, err)
	mr.FastForward(4 * time.Minute)
	_, err = w.Allow(ctx, "k")
	require.NoError(t, err)

	assert.Equal(t, 6*time.Minute, mr.TTL("p:k"), "later attempts do not extend the window")
}

func TestWindow_Allow_HealsCounterWithoutTTL(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	w, err := NewWindow(client, "p:", 5, time.Minute)
	require.NoError(t, err)

	require.NoError(t, mr.Set("p:k", "7"))
	assert.Zero(t, mr.TTL("p:k"))

	ok, err := w.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("p:k"))

	mr.FastForward(time.Minute)
	ok, err = w.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "an orphaned counter lapses instead of blocking forever")
}

func TestWindow_Reset(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	w, err := NewWindow(client, "v:", 1, time.Minute)
	require.NoError(t, err)

	ok, err := w.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = w.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, w.Reset(ctx, "k"))
	ok, err = w.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWindow_RedisDown(t *testing.T) {
	mr, client := newTestRedis(t)
	w, err := NewWindow(client, "p:", 5, time.Minute)
	require.NoError(t, err)
	mr.Close()

	ok, err := w.Allow(context.Background(), "k")
	assert.False(t, ok)
	errutil.AssertErrorCode(t, err, "RATELIMIT_UNAVAILABLE")
	errutil.AssertErrorKind(t, err, errutil.KindInternal)
}

func TestUnlimited(t *testing.T) {
	var l Limiter = Unlimited{}
	ok, err := l.Allow(context.Background(), "anything")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, l.Reset(context.Background(), "anything"))
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	client, err := NewRedisClient(context.Background(), addr, "", 0)
	require.NoError(t, err)
	_ = client.Close()

	mr.Close()
	_, err = NewRedisClient(context.Background(), addr, "", 0)
	errutil.AssertErrorCode(t, err, "REDIS_CONNECT_FAILED")
}
