// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/salamnest/salamnest/internal/config"
	"github.com/salamnest/salamnest/internal/logging"
	"github.com/salamnest/salamnest/internal/xdg"
)

// globalOptions holds flags shared by every subcommand.
type globalOptions struct {
	configFile string
}

// NewRootCmd creates the root command for the SalamNest CLI.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "salamnest",
		Short: "SalamNest - credential and session services",
		Long: `SalamNest runs the identity store, which owns users and password
reset artifacts, and the auth orchestrator, which signs users in and
drives the password reset flow over the internal bus.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/salamnest/salamnest.yaml if present)")
	cmd.PersistentFlags().String("log-format", "json", "log format (json or text)")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("metrics-addr", "", "metrics/health HTTP address (empty = disabled)")
	cmd.PersistentFlags().String("bus-certs-dir", "", "directory holding bus mTLS certificates (empty = plaintext)")

	cmd.AddCommand(NewIdentityCmd(opts))
	cmd.AddCommand(NewAuthCmd(opts))
	cmd.AddCommand(NewMigrateCmd(opts))
	cmd.AddCommand(NewCertsCmd())

	return cmd
}

// load reads the layered configuration for cmd. Without --config the XDG
// config file is used when it exists.
func (o *globalOptions) load(cmd *cobra.Command) (*config.Config, error) {
	path := o.configFile
	if path == "" {
		if candidate := xdg.ConfigFile(); fileExists(candidate) {
			path = candidate
		}
	}

	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogging installs the default logger for a service process.
func setupLogging(cfg *config.Config, service string) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.SetDefault(service, version, cfg.Log.Format, level), nil
}

// fileExists returns true if the file exists, false otherwise.
// Permission errors are treated as "file exists" so they surface on load.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !os.IsNotExist(err)
}
