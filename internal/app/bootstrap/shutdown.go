// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"
	"errors"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown cleanly tears down DB connections and other resources.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	return closeDeps(ctx, deps, logger)
}

// closeDeps closes every backend in deps, reporting all failures.
func closeDeps(ctx context.Context, deps DBDeps, logger *zap.Logger) error {
	var errs []error
	if deps.Redis != nil {
		logger.Info("closing Redis client")
		if err := deps.Redis.Close(); err != nil {
			logger.Error("Redis close failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if deps.Postgres != nil {
		logger.Info("closing Postgres pool")
		if err := deps.Postgres.Close(); err != nil {
			logger.Error("Postgres close failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if deps.Bolt != nil {
		logger.Info("closing bbolt store")
		if err := deps.Bolt.Close(); err != nil {
			logger.Error("bbolt close failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
