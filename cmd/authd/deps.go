// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/holomush/authflow/internal/revocation"
	"github.com/holomush/authflow/internal/store"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// ConnectDB opens the PostgreSQL pool.
	// Default: store.Connect
	ConnectDB func(ctx context.Context, url string, opts store.ConnectOptions) (*pgxpool.Pool, error)

	// Migrate applies pending schema migrations.
	// Default: store.Migrator.Up
	Migrate func(databaseURL string) error

	// RedisClient opens the Redis client for the revocation cache.
	// Default: revocation.NewRedisClient
	RedisClient func(ctx context.Context, addr, password string, db int) (*redis.Client, error)

	// LogOutput receives log records.
	// Default: os.Stderr
	LogOutput io.Writer

	// Ready is called once every listener is bound.
	Ready func(apiAddr, metricsAddr string)
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	out := ServeDeps{}
	if d != nil {
		out = *d
	}
	if out.ConnectDB == nil {
		out.ConnectDB = store.Connect
	}
	if out.Migrate == nil {
		out.Migrate = migrateUp
	}
	if out.RedisClient == nil {
		out.RedisClient = revocation.NewRedisClient
	}
	if out.Ready == nil {
		out.Ready = func(string, string) {}
	}
	return &out
}

func migrateUp(databaseURL string) error {
	m, err := migratorFactory(databaseURL)
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}
	defer func() { _ = m.Close() }()
	return m.Up() //nolint:wrapcheck // already coded
}
