package app

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/storage"
	"github.com/xenking/kart-storefront/internal/storage/file"
	"github.com/xenking/kart-storefront/internal/storage/memory"
	"github.com/xenking/kart-storefront/internal/storage/postgres"
	"github.com/xenking/kart-storefront/internal/storage/redis"
)

type storageBackend struct {
	store  storage.Store
	mirror *postgres.Mirror
}

func openStorage(ctx context.Context, cfg StorageConfig) (*storageBackend, error) {
	lg := zctx.From(ctx)
	switch cfg.Driver {
	case DriverMemory:
		return &storageBackend{store: memory.New()}, nil
	case DriverFile:
		s, err := file.Open(cfg.Path)
		if err != nil {
			return nil, errors.Wrap(err, "open file storage")
		}
		lg.Debug("Using file storage", zap.String("path", s.Path()))
		return &storageBackend{store: s}, nil
	case DriverRedis:
		s, err := redis.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
		if err != nil {
			return nil, errors.Wrap(err, "open redis storage")
		}
		return &storageBackend{store: s}, nil
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		b := &storageBackend{store: postgres.NewStore(pool, pool.Close)}
		if cfg.Mirror {
			b.mirror = postgres.NewMirror(pool)
		}
		return b, nil
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
