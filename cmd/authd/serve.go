// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/authflow/internal/api"
	"github.com/holomush/authflow/internal/auth"
	"github.com/holomush/authflow/internal/auth/memory"
	"github.com/holomush/authflow/internal/auth/postgres"
	"github.com/holomush/authflow/internal/config"
	"github.com/holomush/authflow/internal/logging"
	"github.com/holomush/authflow/internal/observability"
	"github.com/holomush/authflow/internal/revocation"
	"github.com/holomush/authflow/internal/store"
	"github.com/holomush/authflow/internal/tokens"
	"github.com/holomush/authflow/pkg/authflow"
	"github.com/holomush/authflow/pkg/errutil"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the auth HTTP API",
		Long: `Start the HTTP API serving /v1/register, /v1/login, /v1/validate
and /v1/logout, plus the metrics and health endpoints.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString("config")
			if err != nil {
				return err //nolint:wrapcheck // flag is always registered
			}
			cfg, err := config.Load(path, cmd.Flags())
			if err != nil {
				return err //nolint:wrapcheck // already coded
			}
			return runServe(cmd.Context(), cfg, nil)
		},
	}
}

// backends holds what runServe opened and must release on exit.
type backends struct {
	users       authflow.UserStore[*auth.Account]
	revocations authflow.RevocationCache
	ready       observability.ReadinessChecker
	closers     []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// runServe starts the API with injectable dependencies and blocks until
// ctx is cancelled, a signal arrives or a server fails. If deps is nil,
// default implementations are used.
func runServe(ctx context.Context, cfg *config.Config, deps *ServeDeps) error {
	deps = deps.withDefaults()

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}
	out := deps.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logger := logging.Setup("authd", version, cfg.Log.Format, level, out)
	slog.SetDefault(logger)

	logger.Info("starting authd",
		"http_addr", cfg.HTTP.Addr,
		"store", cfg.Store.Kind,
		"revocation", cfg.Revocation.Kind,
	)

	// Background workers are awaited after ctx is cancelled.
	var wg sync.WaitGroup
	defer wg.Wait()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b, err := openBackends(ctx, cfg, deps, logger, &wg)
	if err != nil {
		return err
	}
	defer b.close()

	hasher, err := auth.NewHasher(cfg.Hasher.Algorithm, cfg.Hasher.BcryptCost)
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}

	manager, err := tokens.NewManager([]byte(cfg.Token.Secret),
		tokens.WithIssuer(cfg.Token.Issuer),
		tokens.WithDefaultExpiry(cfg.Token.Expiry),
		tokens.WithLeeway(cfg.Token.Leeway),
	)
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}

	svc, err := authflow.New(authflow.Config[*auth.Account]{
		Users:       b.users,
		Hasher:      hasher,
		Tokens:      manager,
		Revocations: b.revocations,
		Adapter:     auth.AccountAdapter{},
		Logger:      logger,
	})
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = config.Default().HTTP.ShutdownTimeout
	}
	stopWith := func(name string, stop func(context.Context) error) {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if stopErr := stop(shutdownCtx); stopErr != nil {
			logger.Warn("error stopping server", "server", name, "error", stopErr)
		}
	}

	// Start observability server if configured
	var obsServer *observability.Server
	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		obsServer = observability.NewServer(cfg.Metrics.Addr, b.ready)
		obsErrChan, startErr := obsServer.Start()
		if startErr != nil {
			return oops.With("operation", "start observability server").Wrap(startErr)
		}
		defer stopWith("observability", obsServer.Stop)
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		metrics = obsServer.Metrics()
	}

	apiServer := api.New(svc, api.WithMetrics(metrics), api.WithLogger(logger))
	apiErrChan, err := apiServer.Start(cfg.HTTP.Addr)
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}
	defer stopWith("api", apiServer.Stop)
	go monitorServerErrors(ctx, cancel, apiErrChan, "api")

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	metricsAddr := ""
	if obsServer != nil {
		metricsAddr = obsServer.Addr()
	}
	logger.Info("authd ready", "http_addr", apiServer.Addr(), "metrics_addr", metricsAddr)
	deps.Ready(apiServer.Addr(), metricsAddr)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	// Deferred stops run API first, then observability, then backends.
	cancel()
	logger.Info("shutting down...")
	return nil
}

// openBackends connects the user store and revocation cache named by cfg.
// Background goroutines are tracked in wg and stop when ctx is done.
func openBackends(ctx context.Context, cfg *config.Config, deps *ServeDeps, logger *slog.Logger, wg *sync.WaitGroup) (*backends, error) {
	b := &backends{}
	var checks []observability.ReadinessChecker

	switch cfg.Store.Kind {
	case config.StorePostgres:
		if cfg.Store.AutoMigrate {
			if err := deps.Migrate(cfg.Store.DatabaseURL); err != nil {
				return nil, oops.Code("MIGRATION_FAILED").With("operation", "auto migrate").Wrap(err)
			}
			logger.Info("database migrations applied")
		}
		opts := store.DefaultConnectOptions()
		opts.MaxRetries = cfg.Store.ConnectRetries
		pool, err := deps.ConnectDB(ctx, cfg.Store.DatabaseURL, opts)
		if err != nil {
			return nil, err //nolint:wrapcheck // already coded
		}
		b.closers = append(b.closers, pool.Close)
		b.users = postgres.NewAccountRepository(pool)
		checks = append(checks, pool.Ping)
		logger.Info("connected to database")
	default:
		b.users = memory.NewAccountStore()
	}

	switch cfg.Revocation.Kind {
	case config.RevocationRedis:
		client, err := deps.RedisClient(ctx, cfg.Revocation.RedisAddr, cfg.Revocation.RedisPassword, cfg.Revocation.RedisDB)
		if err != nil {
			b.close()
			return nil, err //nolint:wrapcheck // already coded
		}
		b.closers = append(b.closers, func() {
			if closeErr := client.Close(); closeErr != nil {
				errutil.LogError(logger, "error closing redis client", closeErr)
			}
		})
		cache := revocation.NewRedisCache(client, cfg.Revocation.Prefix)
		b.revocations = cache
		checks = append(checks, cache.Ping)
		logger.Info("connected to redis", "addr", cfg.Revocation.RedisAddr)
	case config.RevocationMemory:
		cache := revocation.NewMemoryCache(time.Now)
		b.revocations = cache
		interval := cfg.Revocation.SweepInterval
		if interval <= 0 {
			interval = config.Default().Revocation.SweepInterval
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache.Run(ctx, interval)
		}()
	default:
		logger.Warn("revocation disabled, logout will not revoke tokens")
	}

	b.ready = func(ctx context.Context) error {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
	return b, nil
}

// monitorServerErrors monitors a server's error channel and cancels the context on error.
// It exits when either an error is received, the channel is closed, or the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
