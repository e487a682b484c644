package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/adapters/store"
	"github.com/mikey/scamguard/internal/config"
	"github.com/mikey/scamguard/internal/core"
)

// StoreFactory creates analysis stores based on configuration
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

// IsStoreEnabled returns whether analyses are persisted
func (f *StoreFactory) IsStoreEnabled() bool {
	return f.cfg.GetBool("store.enabled")
}

// CreateAnalysisStore creates the configured store. It returns a nil store
// when persistence is disabled.
func (f *StoreFactory) CreateAnalysisStore(ctx context.Context) (core.AnalysisStore, error) {
	if !f.IsStoreEnabled() {
		f.logger.Info("Analysis store disabled")
		return nil, nil
	}

	sc, err := f.cfg.GetStore()
	if err != nil {
		return nil, fmt.Errorf("invalid store configuration: %w", err)
	}

	f.logger.Info("Creating analysis store",
		zap.String("type", sc.Type),
		zap.Duration("retention", sc.Retention))

	switch sc.Type {
	case "memory":
		return store.NewMemoryStore(f.logger, sc.Retention, sc.CleanupFrequency), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(sc.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return store.NewSQLiteStore(sc.SQLitePath, f.logger, sc.Retention, sc.CleanupFrequency)
	case "mysql":
		return store.NewMySQLStore(sc.MySQLDSN, f.logger, sc.Retention, sc.CleanupFrequency)
	case "postgres":
		return store.NewPostgresStore(ctx, sc.PostgresDSN, f.logger, sc.Retention, sc.CleanupFrequency)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", sc.Type)
	}
}
