// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package main

import (
	"context"
	cryptotls "crypto/tls"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"

	"github.com/salamnest/salamnest/internal/config"
	bus "github.com/salamnest/salamnest/internal/grpc"
	"github.com/salamnest/salamnest/internal/observability"
	"github.com/salamnest/salamnest/internal/tls"
)

const (
	shutdownTimeout      = 5 * time.Second
	gracefulStopDeadline = 10 * time.Second
)

// process is one long-running bus server plus its optional observability
// listener.
type process struct {
	service string
	logger  *slog.Logger
	bus     *bus.Server
	obs     *observability.Server
	ready   atomic.Bool
}

// newProcess creates the observability server (when metrics.addr is set)
// and returns the bus metrics registered on it, or nil.
func newProcess(cfg *config.Config, service string, logger *slog.Logger) (*process, *bus.Metrics) {
	p := &process{service: service, logger: logger}
	if cfg.Metrics.Addr == "" {
		return p, nil
	}
	p.obs = observability.NewServer(observability.Config{
		Addr:    cfg.Metrics.Addr,
		Service: service,
		Version: version,
		Ready:   p.ready.Load,
		Logger:  logger,
	})
	return p, bus.NewMetrics(p.obs.Registry())
}

// serve listens on addr and blocks until a signal arrives, ctx is cancelled
// or a server fails. Shutdown is graceful with a hard deadline.
func (p *process) serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return oops.Code("LISTEN_FAILED").With("addr", addr).Wrap(err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		if serveErr := p.bus.Serve(lis); serveErr != nil {
			errChan <- serveErr
		}
	}()

	if p.obs != nil {
		obsErrChan, startErr := p.obs.Start()
		if startErr != nil {
			p.bus.Stop()
			return startErr
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	p.ready.Store(true)
	p.logger.Info("bus server listening", "service", p.service, "addr", lis.Addr().String())

	var runErr error
	select {
	case sig := <-sigChan:
		p.logger.Info("received shutdown signal", "signal", sig)
	case runErr = <-errChan:
		p.logger.Error("bus server failed", "error", runErr)
	case <-ctx.Done():
		p.logger.Info("context cancelled, shutting down")
	}

	p.ready.Store(false)
	p.shutdown()
	return runErr
}

func (p *process) shutdown() {
	p.logger.Info("shutting down...")

	stopped := make(chan struct{})
	go func() {
		p.bus.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(gracefulStopDeadline):
		p.logger.Warn("graceful stop timed out, forcing")
		p.bus.Stop()
	}

	if p.obs != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := p.obs.Stop(shutdownCtx); err != nil {
			p.logger.Warn("error stopping observability server", "error", err)
		}
	}

	p.logger.Info("shutdown complete")
}

// monitorServerErrors cancels ctx when a server reports an error. It exits
// when the channel closes or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}

// serverTLS loads the mTLS config for name, or nil when the bus is plaintext.
func serverTLS(cfg *config.Config, name string) (*cryptotls.Config, error) {
	if cfg.Bus.CertsDir == "" {
		return nil, nil
	}
	return tls.ServerConfig(cfg.Bus.CertsDir, name)
}

// clientTLS loads the mTLS config name uses to reach serverName, or nil when
// the bus is plaintext.
func clientTLS(cfg *config.Config, name, serverName string) (*cryptotls.Config, error) {
	if cfg.Bus.CertsDir == "" {
		return nil, nil
	}
	return tls.ClientConfig(cfg.Bus.CertsDir, name, serverName)
}
