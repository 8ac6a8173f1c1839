// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package store

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsFS_EmbeddedFiles(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err, "should read embedded migrations directory")

	pattern := regexp.MustCompile(`^\d{6}_\w+\.(up|down)\.sql$`)
	ups, downs := map[string]bool{}, map[string]bool{}
	for _, entry := range entries {
		name := entry.Name()
		assert.True(t, pattern.MatchString(name), "file %s should match NNNNNN_name.(up|down).sql", name)
		if base, ok := strings.CutSuffix(name, ".up.sql"); ok {
			ups[base] = true
		}
		if base, ok := strings.CutSuffix(name, ".down.sql"); ok {
			downs[base] = true
		}
	}
	assert.Equal(t, ups, downs, "every up migration needs a down migration")
	assert.True(t, ups["000001_users"])
	assert.True(t, ups["000002_password_reset"])
}

func TestMigrationsFS_CaseInsensitiveEmail(t *testing.T) {
	body, err := migrationsFS.ReadFile("migrations/000001_users.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "ON users (LOWER(email))")
}
