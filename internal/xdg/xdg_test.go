// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package xdg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/salamnest", ConfigDir())
	assert.Equal(t, "/custom/config/salamnest/certs", CertsDir())
	assert.Equal(t, "/custom/config/salamnest/salamnest.yaml", ConfigFile())
}

func TestConfigDir_HomeFallback(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/amina")
	assert.Equal(t, "/home/amina/.config/salamnest", ConfigDir())
}
