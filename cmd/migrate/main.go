package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/homwrkk/IUI/internal/config"
	"github.com/homwrkk/IUI/internal/db"
	"github.com/homwrkk/IUI/internal/logger"
	"github.com/homwrkk/IUI/migrations"
	"github.com/uptrace/bun/migrate"
)

func fatal(msg string, err error) {
	logger.Log.Error(msg, "error", err)
	os.Exit(1)
}

func usage() {
	fmt.Println("Usage: migrate [init|up|down|status|create <name>]")
	fmt.Println("  init   - Create the migration bookkeeping tables")
	fmt.Println("  up     - Run all pending migrations")
	fmt.Println("  down   - Roll back the last migration group")
	fmt.Println("  status - Show migration status")
	fmt.Println("  create - Create new transactional SQL migration files")
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	bunDB, err := db.NewBunPostgresClient(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal("failed to connect to database", err)
	}
	defer bunDB.Close()

	migrator := migrate.NewMigrator(bunDB, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		fatal("failed to initialize migrator", err)
	}

	switch cmd {
	case "init":
		fmt.Println("Migration tables ready")

	case "up":
		if err := migrator.Lock(ctx); err != nil {
			fatal("failed to acquire migration lock", err)
		}
		defer migrator.Unlock(ctx) //nolint:errcheck

		group, err := migrator.Migrate(ctx)
		if err != nil {
			fatal("migration failed", err)
		}
		if group.IsZero() {
			fmt.Println("No new migrations to run (database is up to date)")
			return
		}
		logger.Log.Info("migrated", "group", group.String())

	case "down":
		if err := migrator.Lock(ctx); err != nil {
			fatal("failed to acquire migration lock", err)
		}
		defer migrator.Unlock(ctx) //nolint:errcheck

		group, err := migrator.Rollback(ctx)
		if err != nil {
			fatal("rollback failed", err)
		}
		if group.IsZero() {
			fmt.Println("No migrations to roll back")
			return
		}
		logger.Log.Info("rolled back", "group", group.String())

	case "status":
		ms, err := migrator.MigrationsWithStatus(ctx)
		if err != nil {
			fatal("failed to get migration status", err)
		}
		fmt.Println("Migrations:")
		for _, m := range ms {
			status := "pending"
			if m.IsApplied() {
				status = "applied"
			}
			fmt.Printf("  %s: %s\n", m.Name, status)
		}
		fmt.Printf("Last group: %s\n", ms.LastGroup())

	case "create":
		name := "migration"
		if len(os.Args) > 2 {
			name = strings.Join(os.Args[2:], "_")
		}
		files, err := migrator.CreateTxSQLMigrations(ctx, name)
		if err != nil {
			fatal("failed to create migration", err)
		}
		for _, f := range files {
			fmt.Printf("Created migration: %s\n", f.Path)
		}

	default:
		usage()
		os.Exit(1)
	}
}
