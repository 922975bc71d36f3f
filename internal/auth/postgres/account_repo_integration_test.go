// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/holomush/authflow/internal/auth"
	"github.com/holomush/authflow/internal/auth/postgres"
	"github.com/holomush/authflow/internal/store"
	"github.com/holomush/authflow/pkg/errutil"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(runWithDatabase(m))
}

func runWithDatabase(m *testing.M) int {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("authflow_test"),
		tcpostgres.WithUsername("authflow"),
		tcpostgres.WithPassword("authflow"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "start postgres: %v\n", err)
		return 1
	}
	defer func() { _ = container.Terminate(ctx) }()

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "connection string: %v\n", err)
		return 1
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrator: %v\n", err)
		return 1
	}
	if err := migrator.Up(); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		return 1
	}
	_ = migrator.Close()

	testPool, err = store.Connect(ctx, connStr, store.DefaultConnectOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		return 1
	}
	defer testPool.Close()

	return m.Run()
}

func TestAccountRepository_Integration(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewAccountRepository(testPool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	account := auth.NewAccount("Grace@Example.com", "$argon2id$h",
		map[string]any{"roles": []string{"admin"}, "team": "navy"}, now)

	_, err := repo.Create(ctx, account)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = testPool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, account.ID.String())
	})

	t.Run("find by email is case-insensitive", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, "GRACE@example.COM")
		require.NoError(t, err)
		assert.Equal(t, account.ID, found.ID)
		assert.Equal(t, []string{"admin"}, found.Roles())
		assert.Equal(t, "navy", found.Attributes["team"])
		assert.True(t, now.Equal(found.CreatedAt))
	})

	t.Run("duplicate email is rejected by the index", func(t *testing.T) {
		dup := auth.NewAccount("grace@example.com", "$argon2id$other", nil, now)
		_, err := repo.Create(ctx, dup)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "ACCOUNT_EMAIL_TAKEN")
	})

	t.Run("update changes password hash", func(t *testing.T) {
		account.PasswordHash = "$argon2id$rotated"
		account.UpdatedAt = now.Add(time.Minute)
		_, err := repo.Update(ctx, account)
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, account.ID.String())
		require.NoError(t, err)
		assert.Equal(t, "$argon2id$rotated", found.PasswordHash)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, auth.NewAccount("x@y", "h", nil, now).ID.String())
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}
