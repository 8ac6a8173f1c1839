// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package main

import (
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/salamnest/salamnest/internal/tls"
	"github.com/salamnest/salamnest/internal/xdg"
)

// busPeers are the processes that get a certificate from certs init.
var busPeers = []string{"identity", "auth"}

// certsOptions holds flags for certs init.
type certsOptions struct {
	dir   string
	hosts []string
	force bool
}

// NewCertsCmd creates the certs subcommand.
func NewCertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "certs",
		Short: "Manage bus mTLS certificates",
	}

	opts := &certsOptions{}
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a bus CA and certificates for every process",
		Long: `Generate a private CA and one certificate per bus process
(identity and auth). Point bus.certs_dir at the output directory to
enable mutual TLS on the bus.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.dir == "" {
				opts.dir = xdg.CertsDir()
			}
			if err := initCerts(opts); err != nil {
				return err
			}
			cmd.Printf("Certificates written to %s\n", opts.dir)
			return nil
		},
	}
	initCmd.Flags().StringVar(&opts.dir, "dir", "", "output directory (default: XDG_CONFIG_HOME/salamnest/certs)")
	initCmd.Flags().StringSliceVar(&opts.hosts, "host", nil, "extra DNS name or IP for every certificate (repeatable)")
	initCmd.Flags().BoolVar(&opts.force, "force", false, "overwrite an existing CA")

	cmd.AddCommand(initCmd)
	return cmd
}

func initCerts(opts *certsOptions) error {
	if !opts.force && fileExists(filepath.Join(opts.dir, "root-ca.crt")) {
		return oops.Code("CERTS_EXIST").
			With("dir", opts.dir).
			Errorf("a CA already exists; use --force to replace it")
	}

	ca, err := tls.GenerateCA()
	if err != nil {
		return err
	}
	if err := ca.Save(opts.dir); err != nil {
		return err
	}

	for _, name := range busPeers {
		cert, err := ca.Issue(name, opts.hosts...)
		if err != nil {
			return err
		}
		if err := cert.Save(opts.dir); err != nil {
			return err
		}
	}
	return nil
}
