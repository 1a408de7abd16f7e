// Package store selects and opens the configured Repository backend.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/payables/internal/config"
	"github.com/JonMunkholm/payables/internal/core"
	"github.com/JonMunkholm/payables/internal/logging"
	"github.com/JonMunkholm/payables/internal/store/memory"
	"github.com/JonMunkholm/payables/internal/store/postgres"
	"github.com/JonMunkholm/payables/internal/store/sqlite"
)

// Repository is a core.Repository with a lifecycle.
type Repository interface {
	core.Repository
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

var (
	_ Repository = (*memory.Store)(nil)
	_ Repository = (*postgres.Store)(nil)
	_ Repository = (*sqlite.Store)(nil)
)

// Open connects to the backend named by cfg.Driver and, when
// cfg.AutoMigrate is set, brings its schema up to date.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Repository, error) {
	var (
		repo Repository
		err  error
	)

	switch strings.ToLower(cfg.Driver) {
	case config.DriverPostgres:
		repo, err = postgres.Open(ctx, cfg)
	case config.DriverSQLite:
		repo, err = sqlite.Open(ctx, cfg.URL)
	case config.DriverMemory:
		repo = memory.New()
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := repo.Migrate(ctx); err != nil {
			repo.Close()
			return nil, fmt.Errorf("migrate %s: %w", cfg.Driver, err)
		}
	}

	logging.FromContext(ctx).Info("database opened", "driver", cfg.Driver, "auto_migrate", cfg.AutoMigrate)
	return repo, nil
}
