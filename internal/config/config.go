// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads and validates authd configuration.
package config

import (
	"time"

	"github.com/samber/oops"

	"github.com/holomush/authflow/internal/auth"
	"github.com/holomush/authflow/internal/logging"
	"github.com/holomush/authflow/internal/tokens"
)

// Store kinds.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Revocation cache kinds.
const (
	RevocationRedis  = "redis"
	RevocationMemory = "memory"
	RevocationNone   = "none"
)

// Config is the complete authd configuration.
type Config struct {
	HTTP       HTTPConfig       `koanf:"http" json:"http,omitempty"`
	Metrics    MetricsConfig    `koanf:"metrics" json:"metrics,omitempty"`
	Log        LogConfig        `koanf:"log" json:"log,omitempty"`
	Store      StoreConfig      `koanf:"store" json:"store,omitempty"`
	Revocation RevocationConfig `koanf:"revocation" json:"revocation,omitempty"`
	Hasher     HasherConfig     `koanf:"hasher" json:"hasher,omitempty"`
	Token      TokenConfig      `koanf:"token" json:"token,omitempty"`
}

// HTTPConfig configures the public API listener.
type HTTPConfig struct {
	Addr            string        `koanf:"addr" json:"addr,omitempty" jsonschema:"description=API listen address (host:port)"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout,omitempty"`
}

// MetricsConfig configures the observability listener. An empty address
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty"`
}

// LogConfig configures slog output.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// StoreConfig selects the account store.
type StoreConfig struct {
	Kind           string `koanf:"kind" json:"kind,omitempty" jsonschema:"enum=postgres,enum=memory"`
	DatabaseURL    string `koanf:"database_url" json:"database_url,omitempty"`
	AutoMigrate    bool   `koanf:"auto_migrate" json:"auto_migrate,omitempty"`
	ConnectRetries uint64 `koanf:"connect_retries" json:"connect_retries,omitempty" jsonschema:"description=retries after a failed first connect"`
}

// RevocationConfig selects the revocation cache.
type RevocationConfig struct {
	Kind          string        `koanf:"kind" json:"kind,omitempty" jsonschema:"enum=redis,enum=memory,enum=none"`
	RedisAddr     string        `koanf:"redis_addr" json:"redis_addr,omitempty"`
	RedisPassword string        `koanf:"redis_password" json:"redis_password,omitempty"`
	RedisDB       int           `koanf:"redis_db" json:"redis_db,omitempty" jsonschema:"minimum=0"`
	Prefix        string        `koanf:"prefix" json:"prefix,omitempty"`
	SweepInterval time.Duration `koanf:"sweep_interval" json:"sweep_interval,omitempty"`
}

// HasherConfig selects the password hasher.
type HasherConfig struct {
	Algorithm  string `koanf:"algorithm" json:"algorithm,omitempty" jsonschema:"enum=argon2id,enum=bcrypt"`
	BcryptCost int    `koanf:"bcrypt_cost" json:"bcrypt_cost,omitempty"`
}

// TokenConfig configures the JWT manager.
type TokenConfig struct {
	Secret string        `koanf:"secret" json:"secret,omitempty"`
	Issuer string        `koanf:"issuer" json:"issuer,omitempty"`
	Expiry time.Duration `koanf:"expiry" json:"expiry,omitempty"`
	Leeway time.Duration `koanf:"leeway" json:"leeway,omitempty"`
}

// Default returns the configuration used for any value not set by file,
// flag or environment.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            "127.0.0.1:8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
		Log:     LogConfig{Format: logging.FormatJSON, Level: "info"},
		Store: StoreConfig{
			Kind:           StoreMemory,
			AutoMigrate:    true,
			ConnectRetries: 5,
		},
		Revocation: RevocationConfig{
			Kind:          RevocationMemory,
			SweepInterval: time.Minute,
		},
		Hasher: HasherConfig{Algorithm: auth.AlgorithmArgon2id},
		Token: TokenConfig{
			Issuer: "authd",
			Expiry: tokens.DefaultExpiry,
		},
	}
}

func invalid(field string, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("field", field).Errorf(format, args...)
}

// Validate rejects settings authd cannot start with.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return invalid("http.addr", "http address is required")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		return invalid("http.shutdown_timeout", "shutdown timeout must be positive")
	}

	if c.Log.Format != logging.FormatJSON && c.Log.Format != logging.FormatText {
		return invalid("log.format", "log format must be %q or %q", logging.FormatJSON, logging.FormatText)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "unknown log level %q", c.Log.Level)
	}

	switch c.Store.Kind {
	case StoreMemory:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return invalid("store.database_url", "database url is required for the postgres store")
		}
	default:
		return invalid("store.kind", "unknown store kind %q", c.Store.Kind)
	}

	switch c.Revocation.Kind {
	case RevocationNone:
	case RevocationMemory:
		if c.Revocation.SweepInterval <= 0 {
			return invalid("revocation.sweep_interval", "sweep interval must be positive")
		}
	case RevocationRedis:
		if c.Revocation.RedisAddr == "" {
			return invalid("revocation.redis_addr", "redis address is required for the redis cache")
		}
		if c.Revocation.RedisDB < 0 {
			return invalid("revocation.redis_db", "redis db cannot be negative")
		}
	default:
		return invalid("revocation.kind", "unknown revocation kind %q", c.Revocation.Kind)
	}

	switch c.Hasher.Algorithm {
	case auth.AlgorithmArgon2id, auth.AlgorithmBcrypt:
	default:
		return invalid("hasher.algorithm", "unknown hash algorithm %q", c.Hasher.Algorithm)
	}

	if len(c.Token.Secret) < tokens.MinSecretLength {
		return invalid("token.secret", "token secret must be at least %d bytes", tokens.MinSecretLength)
	}
	if c.Token.Expiry <= 0 {
		return invalid("token.expiry", "token expiry must be positive")
	}
	if c.Token.Leeway < 0 {
		return invalid("token.leeway", "token leeway cannot be negative")
	}
	return nil
}
