package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/georgemunganga/plantshop-backend/internal/config"
	"github.com/georgemunganga/plantshop-backend/internal/database"
	"github.com/georgemunganga/plantshop-backend/internal/modules/catalog"
)

// openStore connects the catalog backend selected by DATABASE_URL and wraps it
// with the Redis category cache when REDIS_ADDR is set. The returned func
// releases every connection it opened.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (catalog.Repository, func(), error) {
	backend, err := cfg.Backend()
	if err != nil {
		return nil, nil, err
	}

	var (
		repo    catalog.Repository
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch backend {
	case config.BackendPostgres:
		db, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { db.Close() })
		if err := database.Migrate(ctx, db); err != nil {
			closeAll()
			return nil, nil, err
		}
		repo = catalog.NewPostgresRepository(db)
		logger.Info("connected to postgres")

	case config.BackendMongo:
		client, err := database.ConnectMongo(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				logger.Warn("mongo disconnect failed", zap.Error(err))
			}
		})
		db := client.Database(cfg.MongoDatabase)
		if err := catalog.EnsureMongoIndexes(ctx, db); err != nil {
			closeAll()
			return nil, nil, err
		}
		repo = catalog.NewMongoRepository(db)
		logger.Info("connected to mongodb", zap.String("database", cfg.MongoDatabase))

	case config.BackendMemory:
		repo = catalog.NewMemoryRepository()
		logger.Warn("using in-memory catalog store; data is lost on exit")

	default:
		return nil, nil, fmt.Errorf("unsupported backend %q", backend)
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, category cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			client.Close()
		} else {
			closers = append(closers, func() { client.Close() })
			repo = catalog.NewCachedRepository(repo, client, cfg.CacheTTL, logger)
			logger.Info("category cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CacheTTL))
		}
	}

	return repo, closeAll, nil
}
