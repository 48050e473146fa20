// Command migrate applies, inspects and rolls back schema migrations.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"strconv"
	"strings"

	"socialnet/internal/config"
	"socialnet/internal/database"

	"gorm.io/gorm"
)

type command func(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string) error

var commands = map[string]command{
	"up":     up,
	"auto":   auto,
	"status": status,
	"down":   down,
	"redo":   redo,
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: migrate <up|auto|status|down <version>|redo <version>>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}
	cmd, ok := commands[strings.ToLower(strings.TrimSpace(flag.Arg(0)))]
	if !ok {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = database.Close() }()

	return cmd(context.Background(), db, cfg, flag.Args()[1:])
}

func up(ctx context.Context, db *gorm.DB, _ *config.Config, _ []string) error {
	if err := database.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("sql migrations failed: %w", err)
	}
	slog.Info("sql migrations applied")
	return nil
}

func auto(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	cfg.DBSchemaMode = database.SchemaModeAuto
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return fmt.Errorf("auto schema apply failed: %w", err)
	}
	slog.Info("automigrations applied")
	return nil
}

func status(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	st, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return fmt.Errorf("schema status failed: %w", err)
	}
	slog.Info("schema status",
		"mode", st.Mode,
		"env", st.Environment,
		"run_sql", st.WillRunSQL,
		"run_auto", st.WillRunAutoMigrate,
		"applied", len(st.AppliedVersions),
		"pending", len(st.PendingMigrations))
	for _, m := range st.PendingMigrations {
		slog.Info("pending migration", "migration", m.String())
	}
	return nil
}

func versionArg(args []string) (int, error) {
	if len(args) < 1 {
		return 0, usage()
	}
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", args[0], err)
	}
	return version, nil
}

func down(ctx context.Context, db *gorm.DB, _ *config.Config, args []string) error {
	version, err := versionArg(args)
	if err != nil {
		return err
	}
	if err := database.RollbackMigration(ctx, db, version); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	slog.Info("rolled back migration", "version", version)
	return nil
}

// redo rolls a migration back and reapplies everything pending.
func redo(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string) error {
	if err := down(ctx, db, cfg, args); err != nil {
		return err
	}
	return up(ctx, db, cfg, nil)
}
