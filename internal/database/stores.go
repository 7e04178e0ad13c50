package database

import (
	"context"
	"fmt"

	"github.com/edututor/edututor-backend/internal/config"
	"github.com/edututor/edututor-backend/internal/repository"
	"github.com/rs/zerolog"
)

// Stores bundles the persistence layer selected by STORE_DRIVER.
type Stores struct {
	Metadata  *repository.MetadataStore
	Sessions  repository.SessionStore
	Blocklist repository.TokenBlocklist

	closers []func()
}

// Close releases every connection the stores opened, in reverse order.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// OpenStores connects the backends for cfg.StoreDriver. Sessions and revoked tokens
// live in Redis for every driver except memory, which keeps everything in process.
func OpenStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn().Msg("Using in-memory stores; data is lost on restart")
		return &Stores{
			Metadata:  repository.NewMetadataStore(repository.NewMemoryBackend()),
			Sessions:  repository.NewMemorySessionStore(),
			Blocklist: repository.NewMemoryTokenBlocklist(),
		}, nil
	}

	stores := &Stores{}

	rdb, err := NewRedisClient(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	stores.closers = append(stores.closers, func() { _ = rdb.Close() })
	stores.Sessions = repository.NewRedisSessionStore(rdb, cfg.SessionTTL)
	stores.Blocklist = repository.NewRedisTokenBlocklist(rdb)

	switch cfg.StoreDriver {
	case config.StoreDriverRedis:
		stores.Metadata = repository.NewMetadataStore(repository.NewRedisBackend(rdb))
	case config.StoreDriverPostgres:
		pool, err := NewPostgresPool(ctx, cfg, log)
		if err != nil {
			stores.Close()
			return nil, err
		}
		stores.closers = append(stores.closers, pool.Close)
		stores.Metadata = repository.NewMetadataStore(repository.NewPostgresBackend(pool))
	default:
		stores.Close()
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	log.Info().Str("driver", string(cfg.StoreDriver)).Msg("Metadata store ready")
	return stores, nil
}
