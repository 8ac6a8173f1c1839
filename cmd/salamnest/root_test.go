// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateConfig points XDG_CONFIG_HOME at an empty directory so a developer's
// own configuration never leaks into tests.
func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func TestNewRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"identity", "auth", "migrate", "certs"})

	for _, flag := range []string{"config", "log-format", "log-level", "metrics-addr", "bus-certs-dir"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestGlobalOptions_Load(t *testing.T) {
	t.Run("uses the XDG config file when present", func(t *testing.T) {
		home := isolateConfig(t)
		require.NoError(t, os.MkdirAll(filepath.Join(home, "salamnest"), 0o700))
		require.NoError(t, os.WriteFile(filepath.Join(home, "salamnest", "salamnest.yaml"),
			[]byte("log:\n  level: debug\n"), 0o600))

		opts := &globalOptions{}
		cmd := NewRootCmd()
		cfg, err := opts.load(cmd)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("explicit file wins over XDG", func(t *testing.T) {
		isolateConfig(t)
		path := filepath.Join(t.TempDir(), "custom.yaml")
		require.NoError(t, os.WriteFile(path, []byte("log:\n  format: text\n"), 0o600))

		opts := &globalOptions{configFile: path}
		cfg, err := opts.load(NewRootCmd())
		require.NoError(t, err)
		assert.Equal(t, "text", cfg.Log.Format)
	})

	t.Run("invalid log format is rejected", func(t *testing.T) {
		isolateConfig(t)
		t.Setenv("SALAMNEST_LOG__FORMAT", "xml")

		_, err := (&globalOptions{}).load(NewRootCmd())
		require.Error(t, err)
	})
}

func TestRootCmd_RejectsMissingSecrets(t *testing.T) {
	isolateConfig(t)

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"auth"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.access_secret")
}

func TestRootCmd_IdentityRequiresDatabase(t *testing.T) {
	isolateConfig(t)

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"identity"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.url")
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "present")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	assert.True(t, fileExists(path))
	assert.False(t, fileExists(filepath.Join(dir, "absent")))
}
