// Package bootstrap brings up the process-wide runtime shared by the server
// and the CLI tools.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"socialnet/internal/cache"
	"socialnet/internal/config"
	"socialnet/internal/database"
	"socialnet/internal/models"
	"socialnet/internal/observability"
	"socialnet/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema runs migrations and/or AutoMigrate per DB_SCHEMA_MODE.
	ApplySchema bool
	// SeedDemo fills an empty development database with generated data.
	SeedDemo bool
}

// Runtime holds the initialized dependencies.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	// ShutdownTracing flushes spans; it is never nil.
	ShutdownTracing func(context.Context) error
}

// InitRuntime connects to DB and Redis, starts tracing and optionally seeds.
// Redis is optional: an unreachable server yields a nil client.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "socialnet-api",
		ServiceVersion: "1.0",
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
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if opts.ApplySchema {
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return nil, fmt.Errorf("schema apply failed: %w", err)
		}
	}

	cache.InitRedis(cfg.RedisURL)

	if opts.SeedDemo {
		if err := seedIfEmpty(cfg, db); err != nil {
			return nil, fmt.Errorf("demo seeding failed: %w", err)
		}
	}

	return &Runtime{DB: db, Redis: cache.GetClient(), ShutdownTracing: shutdownTracing}, nil
}

// seedIfEmpty only ever runs against a development database with no users.
func seedIfEmpty(cfg *config.Config, db *gorm.DB) error {
	if cfg.Env != "development" {
		slog.Warn("demo seeding skipped outside development", "env", cfg.Env)
		return nil
	}
	var users int64
	if err := db.Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		return nil
	}

	opts := seed.DefaultOptions()
	opts.ShouldClean = false
	s, err := seed.NewSeeder(db, opts)
	if err != nil {
		return err
	}
	_, err = s.Run()
	return err
}
