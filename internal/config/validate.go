// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package config

import (
	"time"

	"github.com/samber/oops"

	"github.com/salamnest/salamnest/internal/logging"
)

func invalid(key string) oops.OopsErrorBuilder {
	return oops.Code("CONFIG_INVALID").With("key", key)
}

// Validate checks the settings shared by every process.
func (c *Config) Validate() error {
	switch c.Log.Format {
	case logging.FormatJSON, logging.FormatText:
	default:
		return invalid("log.format").Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level").Wrap(err)
	}
	return nil
}

// ValidateIdentity checks the settings the identity process needs.
func (c *Config) ValidateIdentity() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Database.URL == "" {
		return invalid("database.url").Errorf("database.url is required")
	}
	if c.Identity.ListenAddr == "" {
		return invalid("identity.listen_addr").Errorf("identity.listen_addr is required")
	}
	if c.Identity.PurgeInterval < 0 {
		return invalid("identity.purge_interval").Errorf("identity.purge_interval must not be negative")
	}
	return nil
}

// ValidateAuth checks the settings the auth process needs.
func (c *Config) ValidateAuth() error {
	if err := c.Validate(); err != nil {
		return err
	}
	a := c.Auth
	if a.AccessSecret == "" || a.RefreshSecret == "" {
		return invalid("auth.access_secret").Errorf("auth.access_secret and auth.refresh_secret are required")
	}
	if a.AccessSecret == a.RefreshSecret {
		return invalid("auth.refresh_secret").Errorf("auth.access_secret and auth.refresh_secret must differ")
	}
	if a.ListenAddr == "" {
		return invalid("auth.listen_addr").Errorf("auth.listen_addr is required")
	}
	if c.Identity.Target == "" {
		return invalid("identity.target").Errorf("identity.target is required")
	}

	positive := []struct {
		key string
		val time.Duration
	}{
		{"auth.access_ttl", a.AccessTTL},
		{"auth.refresh_ttl", a.RefreshTTL},
		{"auth.call_timeout", a.CallTimeout},
		{"auth.reset_call_timeout", a.ResetCallTimeout},
		{"reset.code_ttl", c.Reset.CodeTTL},
		{"reset.token_ttl", c.Reset.TokenTTL},
	}
	for _, p := range positive {
		if p.val <= 0 {
			return invalid(p.key).Errorf("%s must be positive", p.key)
		}
	}

	if c.Redis.Addr != "" {
		if c.Reset.MaxRequests <= 0 || c.Reset.MaxVerifyAttempts <= 0 || c.Reset.Window <= 0 {
			return invalid("reset.window").Errorf("reset throttle limits must be positive when redis.addr is set")
		}
	}
	return nil
}
