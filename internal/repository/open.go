package repository

import (
	"context"
	"fmt"

	"github.com/azizikri/coupon-giveaway/internal/config"
	"github.com/azizikri/coupon-giveaway/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Open connects the backend selected by cfg.StorageDriver. Postgres schemas
// are migrated before the store is returned.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	retention, err := domain.ParseRetention(cfg.ClaimRetention)
	if err != nil {
		return nil, err
	}

	switch cfg.StorageDriver {
	case config.StorageFile:
		return NewFileStore(cfg.CouponsFile, retention)
	case config.StorageRedis:
		return openRedis(ctx, cfg, retention)
	case config.StoragePostgres:
		return openPostgres(ctx, cfg, retention)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, retention domain.Retention) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	if err := RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return NewPostgres(pool, retention), nil
}

func openRedis(ctx context.Context, cfg *config.Config, retention domain.Retention) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDatabase(),
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}

	return NewRedis(rdb, WithRedisPrefix(cfg.RedisPrefix), WithRedisRetention(retention)), nil
}
