// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	organizationstore "github.com/dalemusser/loomos/internal/app/store/organizations"
	"github.com/dalemusser/loomos/internal/app/system/indexes"
	"github.com/dalemusser/loomos/internal/app/system/timeouts"
	"github.com/dalemusser/loomos/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.etcd.io/bbolt"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the backend selected by store_driver and, when redis_addr
// is set, wraps the organization store with the lookup cache. Anything
// opened before a failure is closed again.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (deps DBDeps, err error) {
	defer func() {
		if err != nil {
			_ = closeDeps(context.Background(), deps, logger)
			deps = DBDeps{}
		}
	}()

	var store organizationstore.Store
	switch appCfg.StoreDriver {
	case DriverMongo:
		store, err = connectMongo(ctx, appCfg, &deps, logger)
	case DriverPostgres:
		store, err = connectPostgres(ctx, appCfg, &deps, logger)
	case DriverBolt:
		store, err = openBolt(appCfg, &deps, logger)
	case DriverMemory:
		store = organizationstore.NewMemoryStore()
	default:
		err = fmt.Errorf("unknown store_driver %q", appCfg.StoreDriver)
	}
	if err != nil {
		return deps, err
	}

	if appCfg.RedisAddr != "" {
		deps.Redis = redis.NewClient(&redis.Options{
			Addr:     appCfg.RedisAddr,
			Password: appCfg.RedisPassword,
			DB:       appCfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
		perr := deps.Redis.Ping(pingCtx).Err()
		cancel()
		if perr != nil {
			// The cache is optional at runtime; start anyway and let reads
			// fall through until Redis is reachable.
			logger.Warn("redis unreachable at startup; lookups will bypass the cache",
				zap.String("addr", appCfg.RedisAddr), zap.Error(perr))
		}
		store = organizationstore.NewCached(store, deps.Redis, appCfg.TenantCacheTTL, logger)
		logger.Info("organization lookup cache enabled",
			zap.String("addr", appCfg.RedisAddr),
			zap.Duration("ttl", appCfg.TenantCacheTTL))
	}

	deps.Orgs = store
	logger.Info("organization store ready", zap.String("driver", appCfg.StoreDriver))
	return deps, nil
}

func connectMongo(ctx context.Context, appCfg AppConfig, deps *DBDeps, logger *zap.Logger) (organizationstore.Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(appCfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	deps.MongoClient = client

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	deps.MongoDatabase = client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))
	return organizationstore.New(deps.MongoDatabase), nil
}

func connectPostgres(ctx context.Context, appCfg AppConfig, deps *DBDeps, logger *zap.Logger) (organizationstore.Store, error) {
	db, err := sql.Open("postgres", appCfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	deps.Postgres = db

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("connected to Postgres")
	return organizationstore.NewPostgres(db), nil
}

func openBolt(appCfg AppConfig, deps *DBDeps, logger *zap.Logger) (organizationstore.Store, error) {
	if dir := filepath.Dir(appCfg.BoltPath); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create bolt directory: %w", err)
		}
	}
	db, err := bbolt.Open(appCfg.BoltPath, 0o600, &bbolt.Options{Timeout: timeouts.Ping()})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", appCfg.BoltPath, err)
	}
	deps.Bolt = db
	logger.Info("opened bbolt store", zap.String("path", appCfg.BoltPath))
	return organizationstore.NewBolt(db)
}

// EnsureSchema creates the collection validators, indexes, or tables the
// store driver needs.
// bbolt buckets are created when the store opens; memory needs nothing.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	switch {
	case deps.MongoDatabase != nil:
		if err := validators.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
			logger.Error("ensure mongo validators failed", zap.Error(err))
			return err
		}
		if err := indexes.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
			logger.Error("ensure mongo indexes failed", zap.Error(err))
			return err
		}
	case deps.Postgres != nil:
		if err := organizationstore.NewPostgres(deps.Postgres).EnsureSchema(ctx); err != nil {
			logger.Error("ensure postgres schema failed", zap.Error(err))
			return err
		}
	}
	return nil
}
