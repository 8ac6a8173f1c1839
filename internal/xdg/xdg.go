// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

// Package xdg resolves SalamNest's XDG base directories.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "salamnest"

// ConfigDir is $XDG_CONFIG_HOME/salamnest, falling back to ~/.config/salamnest.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// CertsDir is where bus certificates live by default.
func CertsDir() string {
	return filepath.Join(ConfigDir(), "certs")
}

// ConfigFile is the config file read when --config is not given, if it exists.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "salamnest.yaml")
}
