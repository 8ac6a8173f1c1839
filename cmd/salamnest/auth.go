// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/salamnest/salamnest/internal/auth"
	"github.com/salamnest/salamnest/internal/config"
	bus "github.com/salamnest/salamnest/internal/grpc"
	"github.com/salamnest/salamnest/internal/identity"
	"github.com/salamnest/salamnest/internal/notify"
	"github.com/salamnest/salamnest/internal/ratelimit"
	"github.com/salamnest/salamnest/internal/token"
)

// Key prefixes of the reset throttles in Redis.
const (
	requestLimitPrefix = "salamnest:reset:request:"
	verifyLimitPrefix  = "salamnest:reset:verify:"
)

// NewAuthCmd creates the auth subcommand.
func NewAuthCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Start the auth orchestrator process",
		Long: `Start the auth orchestrator which handles login, registration,
refresh, logout and the password reset flow, delegating all persistence
to the identity store over the bus.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if err := cfg.ValidateAuth(); err != nil {
				return err
			}
			return runAuth(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("auth-listen-addr", "", "bus listen address")
	cmd.Flags().String("identity-target", "", "bus address of the identity store")
	cmd.Flags().Bool("auth-auto-login", true, "sign users in as part of registration")

	return cmd
}

// authServices is the wired orchestrator of one auth process.
type authServices struct {
	sessions *auth.Service
	resets   *auth.PasswordResetService
	close    func()
}

func runAuth(ctx context.Context, cfg *config.Config) error {
	logger, err := setupLogging(cfg, "auth")
	if err != nil {
		return err
	}

	logger.Info("starting auth orchestrator",
		"listen_addr", cfg.Auth.ListenAddr,
		"identity_target", cfg.Identity.Target,
	)

	proc, busMetrics := newProcess(cfg, "auth", logger)

	dialTLS, err := clientTLS(cfg, "auth", "identity")
	if err != nil {
		return err
	}
	conn, err := bus.NewClient(ctx, bus.ClientConfig{
		Address:     cfg.Identity.Target,
		TLSConfig:   dialTLS,
		CallTimeout: cfg.Auth.CallTimeout,
		Metrics:     busMetrics,
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Debug("error closing identity connection", "error", closeErr)
		}
	}()

	var reg prometheus.Registerer
	if proc.obs != nil {
		reg = proc.obs.Registry()
	}
	svcs, err := buildAuth(ctx, cfg, identity.NewClient(conn), logger, reg)
	if err != nil {
		return err
	}
	defer svcs.close()

	tlsConfig, err := serverTLS(cfg, "auth")
	if err != nil {
		return err
	}
	proc.bus = bus.NewServer(bus.ServerConfig{
		TLSConfig: tlsConfig,
		Logger:    logger,
		Metrics:   busMetrics,
	})
	proc.bus.Register(auth.NewBusService(svcs.sessions, svcs.resets))

	return proc.serve(ctx, cfg.Auth.ListenAddr)
}

// buildAuth wires the session and reset services on top of an identity
// store. reg may be nil, in which case no auth metrics are recorded.
func buildAuth(ctx context.Context, cfg *config.Config, store auth.IdentityStore, logger *slog.Logger, reg prometheus.Registerer) (*authServices, error) {
	issuer, err := token.NewIssuer(token.Config{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
		Issuer:        cfg.Auth.Issuer,
	})
	if err != nil {
		return nil, err
	}

	var metrics *auth.Metrics
	if reg != nil {
		metrics = auth.NewMetrics(reg)
	}

	sessions, err := auth.NewServiceWithLogger(store, issuer, auth.Config{
		AutoLogin:   cfg.Auth.AutoLogin,
		CallTimeout: cfg.Auth.CallTimeout,
	}, logger, auth.WithMetrics(metrics))
	if err != nil {
		return nil, err
	}

	notifier, err := newNotifier(cfg.Mail, logger)
	if err != nil {
		return nil, err
	}

	requests, verifies, closeLimiters, err := newLimiters(ctx, cfg)
	if err != nil {
		return nil, err
	}

	resets, err := auth.NewPasswordResetServiceWithLogger(store, notifier, auth.ResetConfig{
		CodeTTL:       cfg.Reset.CodeTTL,
		TokenTTL:      cfg.Reset.TokenTTL,
		CallTimeout:   cfg.Auth.CallTimeout,
		VerifyTimeout: cfg.Auth.ResetCallTimeout,
	}, logger,
		auth.WithRequestLimiter(requests),
		auth.WithVerifyLimiter(verifies),
		auth.WithResetMetrics(metrics),
	)
	if err != nil {
		closeLimiters()
		return nil, err
	}

	return &authServices{
		sessions: sessions,
		resets:   resets,
		close: func() {
			resets.Wait()
			closeLimiters()
		},
	}, nil
}

// newNotifier sends reset codes over SMTP when a relay is configured and
// only logs them otherwise.
func newNotifier(cfg config.MailConfig, logger *slog.Logger) (notify.Notifier, error) {
	smtpCfg := notify.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
	}
	if !smtpCfg.Configured() {
		logger.Warn("no mail relay configured, reset codes will only be logged")
		return notify.NewLogNotifier(logger), nil
	}
	return notify.NewSMTPNotifier(smtpCfg)
}

// newLimiters returns the forgot-password and verify-code throttles. Without
// redis.addr both are unlimited.
func newLimiters(ctx context.Context, cfg *config.Config) (requests, verifies ratelimit.Limiter, closeFn func(), err error) {
	if cfg.Redis.Addr == "" {
		return ratelimit.Unlimited{}, ratelimit.Unlimited{}, func() {}, nil
	}

	client, err := ratelimit.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn = func() { _ = client.Close() }

	requestWindow, err := ratelimit.NewWindow(client, requestLimitPrefix, cfg.Reset.MaxRequests, cfg.Reset.Window)
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	verifyWindow, err := ratelimit.NewWindow(client, verifyLimitPrefix, cfg.Reset.MaxVerifyAttempts, cfg.Reset.Window)
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	return requestWindow, verifyWindow, closeFn, nil
}
