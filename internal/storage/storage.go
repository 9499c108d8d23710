// Package storage selects and opens the configured persistence backend.
package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/ficha/internal/account"
	"github.com/cory-johannsen/ficha/internal/config"
	"github.com/cory-johannsen/ficha/internal/game/character"
	"github.com/cory-johannsen/ficha/internal/game/combat"
	"github.com/cory-johannsen/ficha/internal/game/monster"
	"github.com/cory-johannsen/ficha/internal/storage/postgres"
	"github.com/cory-johannsen/ficha/internal/storage/sqlite"
)

// Backend exposes every store of one persistence backend.
type Backend struct {
	Driver   string
	Accounts account.Store
	Sheets   character.Store
	Monsters monster.Store
	Battles  combat.Store

	health func(ctx context.Context, timeout time.Duration) error
	close  func()
}

// Health checks that the backend is reachable within timeout.
func (b *Backend) Health(ctx context.Context, timeout time.Duration) error {
	return b.health(ctx, timeout)
}

// Close releases the backend's connections.
func (b *Backend) Close() {
	b.close()
}

// Open connects to the backend named by cfg.Storage.Driver.
//
// Precondition: cfg must have passed Validate.
// Postcondition: Returns a ready Backend or a non-nil error. The SQLite backend
// is migrated on open; PostgreSQL expects cmd/migrate to have run.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Backend, error) {
	start := time.Now()
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		logger.Info("database connected",
			zap.String("driver", cfg.Storage.Driver),
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(start)),
		)
		db := pool.DB()
		return &Backend{
			Driver:   cfg.Storage.Driver,
			Accounts: postgres.NewAccountRepository(db),
			Sheets:   postgres.NewCharacterRepository(db),
			Monsters: postgres.NewMonsterRepository(db),
			Battles:  postgres.NewBattleRepository(db),
			health:   pool.Health,
			close:    pool.Close,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("database connected",
			zap.String("driver", cfg.Storage.Driver),
			zap.String("path", cfg.Storage.SQLitePath),
			zap.Duration("elapsed", time.Since(start)),
		)
		return &Backend{
			Driver:   cfg.Storage.Driver,
			Accounts: sqlite.NewAccountRepository(db.SQL()),
			Sheets:   sqlite.NewCharacterRepository(db.SQL()),
			Monsters: sqlite.NewMonsterRepository(db.SQL()),
			Battles:  sqlite.NewBattleRepository(db.SQL()),
			health:   db.Health,
			close: func() {
				if err := db.Close(); err != nil {
					logger.Warn("closing sqlite db", zap.Error(err))
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
