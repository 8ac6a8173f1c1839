// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salamnest/salamnest/pkg/errutil"
)

type fakeMigrator struct {
	url     string
	version uint
	dirty   bool
	pending []uint
	forced  *int
	upErr   error
	ups     int
	downs   int
	closed  bool
}

func (f *fakeMigrator) Up() error                    { f.ups++; return f.upErr }
func (f *fakeMigrator) Down() error                  { f.downs++; return nil }
func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, f.dirty, nil }
func (f *fakeMigrator) Force(v int) error            { f.forced = &v; return nil }
func (f *fakeMigrator) PendingMigrations() ([]uint, error) {
	return f.pending, nil
}
func (f *fakeMigrator) Close() error { f.closed = true; return nil }

func runMigrate(t *testing.T, fake *fakeMigrator, args ...string) (string, error) {
	t.Helper()
	isolateConfig(t)

	cmd := newMigrateCmd(&globalOptions{}, func(url string) (migrator, error) {
		fake.url = url
		return fake, nil
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrate_Up(t *testing.T) {
	fake := &fakeMigrator{}
	out, err := runMigrate(t, fake, "up", "--database-url", "postgres://db/salamnest")
	require.NoError(t, err)

	assert.Equal(t, "postgres://db/salamnest", fake.url)
	assert.Equal(t, 1, fake.ups)
	assert.True(t, fake.closed)
	assert.Contains(t, out, "Migrations completed successfully")
}

func TestMigrate_UpFailure(t *testing.T) {
	fake := &fakeMigrator{upErr: errors.New("database locked")}
	_, err := runMigrate(t, fake, "up", "--database-url", "postgres://db/salamnest")
	require.Error(t, err)
	assert.True(t, fake.closed)
}

func TestMigrate_Down(t *testing.T) {
	fake := &fakeMigrator{}
	_, err := runMigrate(t, fake, "down", "--database-url", "postgres://db/salamnest")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.downs)
}

func TestMigrate_Status(t *testing.T) {
	fake := &fakeMigrator{version: 1, dirty: true, pending: []uint{2}}
	out, err := runMigrate(t, fake, "status", "--database-url", "postgres://db/salamnest")
	require.NoError(t, err)

	assert.Contains(t, out, "Version: 1")
	assert.Contains(t, out, "dirty")
	assert.Contains(t, out, "Pending: 1")
}

func TestMigrate_Force(t *testing.T) {
	fake := &fakeMigrator{}
	_, err := runMigrate(t, fake, "force", "2", "--database-url", "postgres://db/salamnest")
	require.NoError(t, err)
	require.NotNil(t, fake.forced)
	assert.Equal(t, 2, *fake.forced)

	fake = &fakeMigrator{}
	_, err = runMigrate(t, fake, "force", "two", "--database-url", "postgres://db/salamnest")
	errutil.AssertErrorCode(t, err, "INVALID_VERSION")
	assert.Nil(t, fake.forced)
}

func TestMigrate_RequiresDatabaseURL(t *testing.T) {
	fake := &fakeMigrator{}
	_, err := runMigrate(t, fake, "up")
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	assert.Zero(t, fake.ups)
}

func TestMigrate_DatabaseURLFromEnv(t *testing.T) {
	fake := &fakeMigrator{}
	t.Setenv("SALAMNEST_DATABASE__URL", "postgres://env/salamnest")
	_, err := runMigrate(t, fake, "up")
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/salamnest", fake.url)
}

func TestParseForceVersion(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantVersion int
		wantErr     bool
	}{
		{name: "valid integer", input: "3", wantVersion: 3},
		{name: "zero is valid", input: "0", wantVersion: 0},
		{name: "negative is valid", input: "-1", wantVersion: -1},
		{name: "surrounding whitespace is trimmed", input: "  42 ", wantVersion: 42},
		{name: "non-numeric", input: "abc", wantErr: true},
		{name: "float", input: "1.5", wantErr: true},
		{name: "trailing characters", input: "3abc", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, err := parseForceVersion(tt.input)
			if tt.wantErr {
				errutil.AssertErrorCode(t, err, "INVALID_VERSION")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, version)
		})
	}
}
