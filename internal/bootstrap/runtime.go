// Package bootstrap wires the process-wide dependencies shared by the
// server and the maintenance commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"roommatch/internal/cache"
	"roommatch/internal/config"
	"roommatch/internal/database"
	"roommatch/internal/middleware"
	"roommatch/internal/models"
	"roommatch/internal/observability"
	"roommatch/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	ServiceName    string
	ServiceVersion string
	// SeedDemoData fills an empty development database with demo accounts.
	SeedDemoData bool
}

// Runtime holds the initialized shared dependencies.
type Runtime struct {
	DB              *gorm.DB
	Redis           *redis.Client
	ShutdownTracing func(context.Context) error
}

// InitRuntime configures logging and tracing, connects to the database and
// Redis, and optionally seeds demo data. Redis is optional: when it cannot be
// reached Runtime.Redis is nil.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	middleware.Logger = middleware.NewLogger(cfg.Env, os.Getenv("LOG_LEVEL"))
	slog.SetDefault(middleware.Logger)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    opts.ServiceName,
		ServiceVersion: opts.ServiceVersion,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	rt := &Runtime{DB: db, Redis: cache.GetClient(), ShutdownTracing: shutdownTracing}

	if opts.SeedDemoData {
		if err := seedIfEmpty(ctx, cfg, db); err != nil {
			return nil, fmt.Errorf("demo seed failed: %w", err)
		}
	}
	return rt, nil
}

// seedIfEmpty only ever runs against a development database without users.
func seedIfEmpty(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg.Env != "development" {
		return nil
	}
	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		return nil
	}

	_, err := seed.NewSeeder(db, middleware.Logger).Run(ctx, seed.Options{
		Users:                 12,
		ConnectionsPerUser:    3,
		MessagesPerConnection: 4,
		IncludePersonas:       true,
		BcryptCost:            cfg.BcryptCost,
	})
	return err
}
