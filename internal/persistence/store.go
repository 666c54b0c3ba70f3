package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/repository"
)

// OpenIncidentStore builds the incident repository selected by INCIDENT_STORE.
// The returned close function releases the backing connection, if any.
func OpenIncidentStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.IncidentRepository, func(), error) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Postgres.RunMigrations {
			if err := RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				pg.Close()
				return nil, nil, err
			}
		}
		return repository.NewPostgresIncidentRepository(pg.PoolHandle()), pg.Close, nil
	case config.StoreRedis:
		rdb := NewRedis(ctx, cfg.Redis, logger)
		return repository.NewRedisIncidentRepository(rdb.Client, cfg.Redis.KeyPrefix), rdb.Close, nil
	case config.StoreMemory, "":
		logger.Info("using in-memory incident store; incidents are lost on restart")
		return repository.NewMemoryIncidentRepository(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported incident store %q", cfg.Store.Driver)
	}
}
