package factory

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/adapters/dedupe"
	"github.com/mikey/mail-topic-scanner/internal/adapters/store"
	"github.com/mikey/mail-topic-scanner/internal/config"
	"github.com/mikey/mail-topic-scanner/internal/core"
)

// ResultStore is a result store that owns background work and connections
type ResultStore interface {
	core.ResultStore
	Stop()
}

// StoreFactory creates result stores and seen indexes based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateResultStore creates the result store named by store.type
func (f *StoreFactory) CreateResultStore() (ResultStore, error) {
	sc := f.cfg.GetStore()

	var (
		rs  ResultStore
		err error
	)
	switch sc.Type {
	case "memory":
		rs = store.NewMemoryStore(sc.Retention, sc.CleanupFrequency, f.logger)
	case "sqlite":
		rs, err = store.NewSQLiteStore(sc.SQLitePath, sc.Retention, sc.CleanupFrequency, f.logger)
	case "mysql":
		rs, err = store.NewMySQLStore(sc.MySQLDSN, sc.Retention, sc.CleanupFrequency, f.logger)
	case "mongo":
		rs, err = store.NewMongoStore(sc.MongoURI, sc.MongoDatabase, sc.Retention, sc.CleanupFrequency, f.logger)
	default:
		return nil, core.WrapError(core.ErrInvalidConfig, "create result store",
			fmt.Errorf("unsupported store type: %s", sc.Type))
	}
	if err != nil {
		return nil, err
	}

	f.logger.Info("Created result store", zap.String("type", sc.Type))
	return rs, nil
}

// CreateSeenIndex creates the cross-run duplicate index named by
// dedupe.type. Type "none" returns a nil index, which disables the check.
func (f *StoreFactory) CreateSeenIndex() (core.SeenIndex, error) {
	dc := f.cfg.GetDedupe()

	switch dc.Type {
	case "none":
		return nil, nil
	case "memory":
		return dedupe.NewMemoryIndex(dc.TTL), nil
	case "redis":
		rc := f.cfg.GetRedis()
		idx, err := dedupe.NewRedisIndex(&redis.Options{
			Addr:     rc.Address,
			Password: rc.Password,
			DB:       rc.DB,
		}, rc.KeyPrefix, dc.TTL, f.logger)
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, core.WrapError(core.ErrInvalidConfig, "create seen index",
			fmt.Errorf("unsupported dedupe type: %s", dc.Type))
	}
}
