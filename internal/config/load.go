// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// EnvOverrides maps environment variables to the config keys they replace.
// Secrets are usually supplied this way rather than in the file.
var EnvOverrides = map[string]string{
	"AUTHD_DATABASE_URL": "store.database_url",
	"AUTHD_TOKEN_SECRET": "token.secret",
	"AUTHD_REDIS_ADDR":   "revocation.redis_addr",
}

// flagKeys maps flag names registered by RegisterFlags to config keys.
var flagKeys = map[string]string{
	"http-addr":    "http.addr",
	"metrics-addr": "metrics.addr",
	"log-format":   "log.format",
	"log-level":    "log.level",
	"store":        "store.kind",
	"database-url": "store.database_url",
	"auto-migrate": "store.auto_migrate",
	"revocation":   "revocation.kind",
	"redis-addr":   "revocation.redis_addr",
	"hasher":       "hasher.algorithm",
	"bcrypt-cost":  "hasher.bcrypt_cost",
	"token-issuer": "token.issuer",
	"token-expiry": "token.expiry",
}

// RegisterFlags adds the overridable settings to fs, with defaults taken
// from Default.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("http-addr", d.HTTP.Addr, "API listen address")
	fs.String("metrics-addr", d.Metrics.Addr, "metrics and health listen address (empty disables)")
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("store", d.Store.Kind, "account store (postgres or memory)")
	fs.String("database-url", "", "PostgreSQL connection URL")
	fs.Bool("auto-migrate", d.Store.AutoMigrate, "apply pending migrations on start")
	fs.String("revocation", d.Revocation.Kind, "revocation cache (redis, memory or none)")
	fs.String("redis-addr", "", "Redis address for the redis revocation cache")
	fs.String("hasher", d.Hasher.Algorithm, "password hash algorithm (argon2id or bcrypt)")
	fs.Int("bcrypt-cost", 0, "bcrypt cost (0 selects the library default)")
	fs.String("token-issuer", d.Token.Issuer, "JWT issuer")
	fs.Duration("token-expiry", d.Token.Expiry, "JWT lifetime")
}

// Load is Read followed by Validate.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	cfg, err := Read(path, flags)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read builds a Config from defaults, the YAML file at path (optional),
// flags and environment, in increasing order of precedence. Flags left at
// their default do not override the file. The result is not validated, so
// commands needing only part of it can run with an incomplete config.
func Read(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
		if err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
		if err := ValidateSchema(data); err != nil {
			return nil, oops.Code("CONFIG_SCHEMA_INVALID").With("path", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_PARSE_FAILED").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_PARSE_FAILED").With("source", "flags").Wrap(err)
		}
	}

	for env, key := range EnvOverrides {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			if err := k.Set(key, v); err != nil {
				return nil, oops.Code("CONFIG_PARSE_FAILED").With("env", env).Wrap(err)
			}
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}
	return &cfg, nil
}
