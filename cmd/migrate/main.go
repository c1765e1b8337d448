// Command migrate applies, inspects and rolls back the roommatch schema.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"roommatch/internal/config"
	"roommatch/internal/database"
	"roommatch/internal/middleware"

	"gorm.io/gorm"
)

type command func(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string) error

var commands = map[string]command{
	"up":     migrateUp,
	"auto":   migrateAuto,
	"status": migrateStatus,
	"down":   migrateDown,
}

func main() {
	if err := run(); err != nil {
		middleware.Logger.Error("migrate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func usage() error {
	return fmt.Errorf("usage: migrate <up|auto|status|down> [version]")
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
	middleware.Logger = middleware.NewLogger(cfg.Env, os.Getenv("LOG_LEVEL"))

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return cmd(ctx, db, cfg, flag.Args()[1:])
}

func migrateUp(ctx context.Context, db *gorm.DB, _ *config.Config, _ []string) error {
	ran, err := database.RunMigrations(ctx, db)
	if err != nil {
		return fmt.Errorf("sql migrations failed: %w", err)
	}
	for _, m := range ran {
		fmt.Printf("applied: %s\n", m.ID())
	}
	middleware.Logger.Info("sql migrations applied", slog.Int("count", len(ran)))
	return nil
}

func migrateAuto(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	cfg.DBSchemaMode = database.SchemaModeAuto
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return fmt.Errorf("auto schema apply failed: %w", err)
	}
	middleware.Logger.Info("automigrations applied")
	return nil
}

func migrateStatus(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	status, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return fmt.Errorf("schema status failed: %w", err)
	}
	middleware.Logger.Info("schema status",
		slog.String("mode", status.Mode),
		slog.String("env", status.Environment),
		slog.Bool("run_sql", status.RunsSQL),
		slog.Bool("run_auto", status.RunsAuto),
		slog.Int("applied", len(status.Applied)),
		slog.Int("pending", len(status.Pending)),
	)
	for _, row := range status.Applied {
		fmt.Printf("applied: %06d_%s at %s\n", row.Version, row.Name, row.AppliedAt.Format(time.RFC3339))
	}
	for _, m := range status.Pending {
		fmt.Printf("pending: %s\n", m.ID())
	}
	for _, v := range status.Unknown {
		fmt.Printf("unknown: %06d (recorded in the database, missing from this build)\n", v)
	}
	for _, v := range status.Drifted {
		fmt.Printf("drifted: %06d (up script changed after it was applied)\n", v)
	}
	if !status.UpToDate() {
		return fmt.Errorf("schema is not up to date")
	}
	return nil
}

func migrateDown(ctx context.Context, db *gorm.DB, _ *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: migrate down <version>")
	}
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", args[0], err)
	}
	if err := database.RollbackMigration(ctx, db, version); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	middleware.Logger.Info("rolled back migration", slog.Int("version", version))
	return nil
}
