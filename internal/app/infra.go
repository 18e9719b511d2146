package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-engine/internal/config"
	"github.com/noah-isme/storefront-engine/internal/database"
	"github.com/noah-isme/storefront-engine/internal/obs"
)

// OpenPostgres connects a traced pgx pool and verifies it with a ping.
func OpenPostgres(ctx context.Context, cfg *config.Config, appName string, logger *zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{Logger: logger, SlowThreshold: cfg.Obs.SlowQuery}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = appName

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// OpenRedis connects a Redis client with tracing and metrics instrumentation.
func OpenRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// MigrateIfEnabled applies pending migrations when MIGRATE_ON_START is set.
func MigrateIfEnabled(cfg *config.Config, logger *zerolog.Logger) error {
	if !cfg.MigrateOnStart {
		return nil
	}
	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		return err
	}
	version, dirty, err := database.Version(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("migrations applied")
	return nil
}
