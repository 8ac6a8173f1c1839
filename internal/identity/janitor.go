// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package identity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/salamnest/salamnest/pkg/errutil"
)

// DefaultPurgeInterval is how often the janitor runs when not configured.
const DefaultPurgeInterval = 10 * time.Minute

// Purger deletes expired reset codes and tokens. *Store implements it.
type Purger interface {
	PurgeExpired(ctx context.Context) (codes, tokens int64, err error)
}

// Janitor periodically purges expired reset artifacts.
type Janitor struct {
	purger   Purger
	interval time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewJanitor creates a Janitor that runs every interval.
func NewJanitor(purger Purger, interval time.Duration, logger *slog.Logger) (*Janitor, error) {
	if purger == nil {
		return nil, oops.Errorf("purger is required")
	}
	if interval <= 0 {
		return nil, oops.Code("JANITOR_CONFIG_INVALID").With("interval", interval.String()).
			Errorf("purge interval must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{purger: purger, interval: interval, logger: logger}, nil
}

// RunOnce runs a single purge.
func (j *Janitor) RunOnce(ctx context.Context) error {
	codes, tokens, err := j.purger.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	if codes > 0 || tokens > 0 {
		j.logger.InfoContext(ctx, "purged expired reset artifacts", "codes", codes, "tokens", tokens)
	}
	return nil
}

// Start purges once now and then every interval until Stop or ctx ends.
func (j *Janitor) Start(ctx context.Context) {
	ctx, j.cancel = context.WithCancel(ctx)
	j.wg.Add(1)
	go j.run(ctx)
}

// Stop halts the janitor and waits for a running purge to finish.
func (j *Janitor) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
	j.wg.Wait()
}

func (j *Janitor) run(ctx context.Context) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		if err := j.RunOnce(ctx); err != nil && ctx.Err() == nil {
			errutil.LogError(j.logger, "reset purge failed", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
