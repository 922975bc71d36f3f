// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/authflow/internal/store"
)

// migrator is the subset of *store.Migrator used by the migrate commands.
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Status() (store.Status, error)
	Close() error
}

// migratorFactory is replaced in tests.
var migratorFactory = func(databaseURL string) (migrator, error) {
	return store.NewMigrator(databaseURL)
}

// NewMigrateCmd creates the migrate subcommand and its children.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the account database schema",
		Long: `Apply or roll back the PostgreSQL schema used by the account store.
Running migrate without a subcommand applies all pending migrations.`,
		Args: cobra.NoArgs,
		RunE: runMigrateUp,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE:  runMigrateUp,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (all, or the given number of steps)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMigrateDown,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the schema version and pending migrations",
		Args:  cobra.NoArgs,
		RunE:  runMigrateStatus,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "force <version>",
		Short: "Set the schema version without running migrations, clearing the dirty flag",
		Args:  cobra.ExactArgs(1),
		RunE:  runMigrateForce,
	})

	return cmd
}

// withMigrator resolves the database URL from config, opens a migrator
// and runs fn with it.
func withMigrator(cmd *cobra.Command, fn func(m migrator) error) error {
	cfg, err := readConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Store.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").
			With("field", "store.database_url").
			Errorf("database URL is required (set --database-url or AUTHD_DATABASE_URL)")
	}

	m, err := migratorFactory(cfg.Store.DatabaseURL)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "open migrator").Wrap(err)
	}
	defer func() { _ = m.Close() }()

	return fn(m)
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	return withMigrator(cmd, func(m migrator) error {
		cmd.Println("Running migrations...")
		if err := m.Up(); err != nil {
			return err //nolint:wrapcheck // already coded
		}
		cmd.Println("Migrations completed successfully")
		return nil
	})
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	steps := 0
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return oops.Code("INVALID_ARGUMENT").
				With("steps", args[0]).
				Errorf("steps must be a positive integer")
		}
		steps = n
	}

	return withMigrator(cmd, func(m migrator) error {
		if steps == 0 {
			cmd.Println("Rolling back all migrations...")
			if err := m.Down(); err != nil {
				return err //nolint:wrapcheck // already coded
			}
		} else {
			cmd.Printf("Rolling back %d migration(s)...\n", steps)
			if err := m.Steps(-steps); err != nil {
				return err //nolint:wrapcheck // already coded
			}
		}
		cmd.Println("Rollback completed successfully")
		return nil
	})
}

func runMigrateStatus(cmd *cobra.Command, _ []string) error {
	return withMigrator(cmd, func(m migrator) error {
		st, err := m.Status()
		if err != nil {
			return err //nolint:wrapcheck // already coded
		}

		dirty := ""
		if st.Dirty {
			dirty = " (dirty)"
		}
		cmd.Printf("Current version: %d%s\n", st.Version, dirty)
		if len(st.Pending) == 0 {
			cmd.Println("Schema is up to date")
			return nil
		}
		cmd.Printf("Pending migrations: %d\n", len(st.Pending))
		for _, v := range st.Pending {
			name, nameErr := store.MigrationName(v)
			if nameErr != nil || name == "" {
				name = strconv.FormatUint(uint64(v), 10)
			}
			cmd.Printf("  %s\n", name)
		}
		return nil
	})
}

func runMigrateForce(cmd *cobra.Command, args []string) error {
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return oops.Code("INVALID_ARGUMENT").
			With("version", args[0]).
			Errorf("version must be an integer")
	}

	return withMigrator(cmd, func(m migrator) error {
		if err := m.Force(version); err != nil {
			return err //nolint:wrapcheck // already coded
		}
		cmd.Printf("Schema version forced to %d\n", version)
		return nil
	})
}
