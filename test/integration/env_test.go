// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/holomush/authflow/internal/api"
	"github.com/holomush/authflow/internal/auth"
	"github.com/holomush/authflow/internal/auth/postgres"
	"github.com/holomush/authflow/internal/revocation"
	"github.com/holomush/authflow/internal/store"
	"github.com/holomush/authflow/internal/tokens"
	"github.com/holomush/authflow/pkg/authflow"
)

// testEnv holds the containers and the running API server.
type testEnv struct {
	ctx       context.Context
	cancel    context.CancelFunc
	pgC       *tcpostgres.PostgresContainer
	redisC    *tcredis.RedisContainer
	pool      *pgxpool.Pool
	redis     *redis.Client
	cache     *revocation.RedisCache
	server    *api.Server
	baseURL   string
	tokenTTL  time.Duration
	logOutput *bytes.Buffer
}

// setupTestEnv starts PostgreSQL and Redis, migrates the schema and
// serves the API on a random local port.
func setupTestEnv() (*testEnv, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	env := &testEnv{ctx: ctx, cancel: cancel, tokenTTL: 3 * time.Second, logOutput: new(bytes.Buffer)}

	pgC, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("authflow_test"),
		tcpostgres.WithUsername("authflow"),
		tcpostgres.WithPassword("authflow"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		env.cleanup()
		return nil, err
	}
	env.pgC = pgC

	connStr, err := pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		env.cleanup()
		return nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		env.cleanup()
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		env.cleanup()
		return nil, err
	}
	_ = migrator.Close()

	env.pool, err = store.Connect(ctx, connStr, store.DefaultConnectOptions())
	if err != nil {
		env.cleanup()
		return nil, err
	}

	redisC, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		env.cleanup()
		return nil, err
	}
	env.redisC = redisC

	uri, err := redisC.ConnectionString(ctx)
	if err != nil {
		env.cleanup()
		return nil, err
	}
	opts, err := redis.ParseURL(uri)
	if err != nil {
		env.cleanup()
		return nil, err
	}
	env.redis, err = revocation.NewRedisClient(ctx, opts.Addr, opts.Password, opts.DB)
	if err != nil {
		env.cleanup()
		return nil, err
	}
	env.cache = revocation.NewRedisCache(env.redis, "e2e:")

	hasher, err := auth.NewBcryptHasher(4)
	if err != nil {
		env.cleanup()
		return nil, err
	}
	manager, err := tokens.NewManager([]byte(strings.Repeat("e", 32)),
		tokens.WithIssuer("authd-e2e"),
		tokens.WithDefaultExpiry(env.tokenTTL),
	)
	if err != nil {
		env.cleanup()
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(env.logOutput, nil))
	svc, err := authflow.New(authflow.Config[*auth.Account]{
		Users:       postgres.NewAccountRepository(env.pool),
		Hasher:      hasher,
		Tokens:      manager,
		Revocations: env.cache,
		Adapter:     auth.AccountAdapter{},
		Logger:      logger,
	})
	if err != nil {
		env.cleanup()
		return nil, err
	}

	env.server = api.New(svc, api.WithLogger(logger))
	if _, err := env.server.Start("127.0.0.1:0"); err != nil {
		env.cleanup()
		return nil, err
	}
	env.baseURL = "http://" + env.server.Addr()

	return env, nil
}

// cleanup releases all test resources.
func (env *testEnv) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if env.server != nil {
		_ = env.server.Stop(ctx)
	}
	if env.redis != nil {
		_ = env.redis.Close()
	}
	if env.pool != nil {
		env.pool.Close()
	}
	if env.redisC != nil {
		_ = env.redisC.Terminate(ctx)
	}
	if env.pgC != nil {
		_ = env.pgC.Terminate(ctx)
	}
	env.cancel()
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

// post sends body as JSON with an optional bearer token and decodes the
// JSON response, if any.
func (env *testEnv) post(path, token string, body any) (int, map[string]any, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, nil, err
		}
	}
	req, err := http.NewRequestWithContext(env.ctx, http.MethodPost, env.baseURL+path, &buf)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	out := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return 0, nil, err
		}
	}
	return resp.StatusCode, out, nil
}

// errorCode extracts error.code from an error response body.
func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}
