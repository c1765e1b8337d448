package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"roommatch/internal/config"
	"roommatch/internal/middleware"

	"gorm.io/gorm"
)

// DB_SCHEMA_MODE values.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// schemaPlan is what ApplySchema will do for a given config.
type schemaPlan struct {
	Mode string
	SQL  bool
	Auto bool
}

// SchemaStatus is the report printed by `migrate status`.
type SchemaStatus struct {
	Mode        string
	Environment string
	RunsSQL     bool
	RunsAuto    bool
	Applied     []SchemaMigration
	Pending     []Migration
	// Unknown versions are logged in the database but absent from this build.
	Unknown []int
	// Drifted versions were applied from a different up script.
	Drifted []int
}

// UpToDate reports whether the log matches the build and, when SQL
// migrations are in use, nothing is pending.
func (s *SchemaStatus) UpToDate() bool {
	if s.RunsSQL && len(s.Pending) > 0 {
		return false
	}
	return len(s.Unknown) == 0 && len(s.Drifted) == 0
}

// Shared databases never get AutoMigrate unless explicitly allowed.
func sharedEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

func planSchema(cfg *config.Config) (schemaPlan, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		mode = SchemaModeHybrid
	}
	plan := schemaPlan{Mode: mode}
	shared := sharedEnv(cfg.Env)

	switch mode {
	case SchemaModeSQL:
		plan.SQL = true
	case SchemaModeAuto:
		if shared && !cfg.DBAutoMigrateDestructive {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.Auto = true
	case SchemaModeHybrid:
		plan.SQL = true
		plan.Auto = !shared
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
	return plan, nil
}

// ApplySchema brings the roommatch tables up to date according to DB_SCHEMA_MODE.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}

	if plan.SQL {
		ran, err := RunMigrations(ctx, db)
		if err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
		if len(ran) > 0 {
			middleware.Logger.InfoContext(ctx, "sql migrations applied", slog.Int("count", len(ran)))
		}
	}

	if plan.Auto {
		if plan.Mode == SchemaModeAuto && sharedEnv(cfg.Env) {
			middleware.Logger.Warn("AutoMigrate enabled on a shared database; review schema diffs before deploying",
				slog.String("env", cfg.Env))
		}
		middleware.Logger.InfoContext(ctx, "running AutoMigrate", slog.String("mode", plan.Mode), slog.String("env", cfg.Env))
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// GetSchemaStatus compares the embedded migrations with schema_migrations.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}
	m, err := newEmbeddedMigrator(db)
	if err != nil {
		return nil, err
	}
	return m.status(ctx, plan, cfg.Env)
}

func (m *Migrator) status(ctx context.Context, plan schemaPlan, env string) (*SchemaStatus, error) {
	status := &SchemaStatus{
		Mode:        plan.Mode,
		Environment: env,
		RunsSQL:     plan.SQL,
		RunsAuto:    plan.Auto,
	}

	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	status.Applied = applied
	status.Unknown = unknownVersions(applied, m.set)
	status.Drifted = driftedVersions(applied, m.set)

	done := make(map[int]bool, len(applied))
	for _, row := range applied {
		done[row.Version] = true
	}
	for _, mig := range m.set {
		if !done[mig.Version] {
			status.Pending = append(status.Pending, mig)
		}
	}
	return status, nil
}
