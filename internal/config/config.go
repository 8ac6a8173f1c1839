// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

// Package config loads SalamNest process configuration.
//
// Sources are layered, later ones winning: built-in defaults, an optional
// YAML file, SALAMNEST_* environment variables and finally command-line
// flags that were explicitly set. Environment keys use a double underscore
// between levels, so SALAMNEST_AUTH__ACCESS_TTL sets auth.access_ttl.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SALAMNEST_"

// Config is the full configuration of every SalamNest process.
type Config struct {
	Log      LogConfig      `koanf:"log"`
	Database DatabaseConfig `koanf:"database"`
	Identity IdentityConfig `koanf:"identity"`
	Auth     AuthConfig     `koanf:"auth"`
	Reset    ResetConfig    `koanf:"reset"`
	Redis    RedisConfig    `koanf:"redis"`
	Mail     MailConfig     `koanf:"mail"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Bus      BusConfig      `koanf:"bus"`
}

// LogConfig selects the log format and level.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// DatabaseConfig locates the identity database.
type DatabaseConfig struct {
	URL             string `koanf:"url"`
	ConnectAttempts uint64 `koanf:"connect_attempts"`
}

// IdentityConfig configures the identity store process.
type IdentityConfig struct {
	ListenAddr     string        `koanf:"listen_addr"`
	Target         string        `koanf:"target"`
	PurgeInterval  time.Duration `koanf:"purge_interval"`
	HashMemoryKiB  uint32        `koanf:"hash_memory_kib"`
	HashIterations uint32        `koanf:"hash_iterations"`
}

// AuthConfig configures the auth orchestrator process.
type AuthConfig struct {
	ListenAddr       string        `koanf:"listen_addr"`
	AccessSecret     string        `koanf:"access_secret"`
	RefreshSecret    string        `koanf:"refresh_secret"`
	AccessTTL        time.Duration `koanf:"access_ttl"`
	RefreshTTL       time.Duration `koanf:"refresh_ttl"`
	Issuer           string        `koanf:"issuer"`
	AutoLogin        bool          `koanf:"auto_login"`
	CallTimeout      time.Duration `koanf:"call_timeout"`
	ResetCallTimeout time.Duration `koanf:"reset_call_timeout"`
}

// ResetConfig configures the password reset flow and its throttles.
type ResetConfig struct {
	CodeTTL           time.Duration `koanf:"code_ttl"`
	TokenTTL          time.Duration `koanf:"token_ttl"`
	MaxRequests       int           `koanf:"max_requests"`
	MaxVerifyAttempts int           `koanf:"max_verify_attempts"`
	Window            time.Duration `koanf:"window"`
}

// RedisConfig locates the throttle store. An empty Addr disables throttling.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// MailConfig configures SMTP delivery of reset codes. With an empty Host
// deliveries are only logged.
type MailConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

// MetricsConfig configures the observability listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// BusConfig secures the bus between processes. An empty CertsDir means
// plaintext, which is only suitable on a private network.
type BusConfig struct {
	CertsDir string `koanf:"certs_dir"`
}

// Defaults returns the built-in configuration.
func Defaults() map[string]any {
	return map[string]any{
		"log.format":                "json",
		"log.level":                 "info",
		"database.connect_attempts": uint64(10),
		"identity.listen_addr":      "127.0.0.1:7301",
		"identity.target":           "127.0.0.1:7301",
		"identity.purge_interval":   "10m",
		"identity.hash_memory_kib":  uint32(64 * 1024),
		"identity.hash_iterations":  uint32(1),
		"auth.listen_addr":          "127.0.0.1:7302",
		"auth.access_ttl":           "15m",
		"auth.refresh_ttl":          "168h",
		"auth.issuer":               "salamnest",
		"auth.auto_login":           true,
		"auth.call_timeout":         "5s",
		"auth.reset_call_timeout":   "7s",
		"reset.code_ttl":            "15m",
		"reset.token_ttl":           "1h",
		"reset.max_requests":        5,
		"reset.max_verify_attempts": 10,
		"reset.window":              "15m",
		"mail.port":                 587,
		"mail.from":                 "no-reply@salamnest.local",
		"metrics.addr":              "",
	}
}

// Load layers defaults, the YAML file at path (if non-empty), the
// environment and the changed flags in fs (if non-nil).
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "defaults").Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "file").With("path", path).Wrap(err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if fs != nil {
		fromFlag := func(f *pflag.Flag) (string, any) {
			key := flagKey(f.Name)
			if key == "" {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		}
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, fromFlag), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return &cfg, nil
}

// flagKey maps a --section-some-key flag to section.some_key. Flags without
// a section, like --config, are not configuration keys.
func flagKey(name string) string {
	section, rest, ok := strings.Cut(name, "-")
	if !ok {
		return ""
	}
	return section + "." + strings.ReplaceAll(rest, "-", "_")
}

// envKey maps SALAMNEST_AUTH__ACCESS_TTL to auth.access_ttl.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}
