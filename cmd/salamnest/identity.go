// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package main

import (
	"context"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/salamnest/salamnest/internal/config"
	bus "github.com/salamnest/salamnest/internal/grpc"
	"github.com/salamnest/salamnest/internal/identity"
	"github.com/salamnest/salamnest/internal/identity/postgres"
	"github.com/salamnest/salamnest/internal/store"
)

// NewIdentityCmd creates the identity subcommand.
func NewIdentityCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Start the identity store process",
		Long: `Start the identity store which owns user records, password hashes,
refresh token hashes and password reset artifacts, and serves them on the bus.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if err := cfg.ValidateIdentity(); err != nil {
				return err
			}
			return runIdentity(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("database-url", "", "PostgreSQL connection URL")
	cmd.Flags().String("identity-listen-addr", "", "bus listen address")
	cmd.Flags().Duration("identity-purge-interval", 0, "how often expired reset artifacts are purged (0 = never)")

	return cmd
}

// newHasher builds the password hasher from configuration.
func newHasher(cfg *config.Config) *identity.Argon2idHasher {
	return identity.NewArgon2idHasherWithParams(identity.Argon2Params{
		Time:   cfg.Identity.HashIterations,
		Memory: cfg.Identity.HashMemoryKiB,
	})
}

func runIdentity(ctx context.Context, cfg *config.Config) error {
	logger, err := setupLogging(cfg, "identity")
	if err != nil {
		return err
	}

	logger.Info("starting identity store", "listen_addr", cfg.Identity.ListenAddr)

	pool, err := store.Connect(ctx, store.ConnectConfig{
		URL:      cfg.Database.URL,
		Attempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	logger.Info("connected to database")

	st, err := identity.NewStoreWithLogger(
		postgres.NewUserRepository(pool),
		postgres.NewResetCodeRepository(pool),
		postgres.NewResetTokenRepository(pool),
		newHasher(cfg),
		logger,
	)
	if err != nil {
		return err
	}

	tlsConfig, err := serverTLS(cfg, "identity")
	if err != nil {
		return err
	}

	proc, busMetrics := newProcess(cfg, "identity", logger)
	proc.bus = bus.NewServer(bus.ServerConfig{
		TLSConfig: tlsConfig,
		Logger:    logger,
		Metrics:   busMetrics,
	})
	proc.bus.Register(identity.NewBusService(st))

	if cfg.Identity.PurgeInterval > 0 {
		janitor, err := identity.NewJanitor(st, cfg.Identity.PurgeInterval, logger)
		if err != nil {
			return err
		}
		janitor.Start(ctx)
		defer janitor.Stop()
	}

	return proc.serve(ctx, cfg.Identity.ListenAddr)
}
