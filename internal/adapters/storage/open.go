// Package storage selects the state store backend named by storage.driver.
package storage

import (
	"context"
	"fmt"

	badgerstore "github.com/navoditbharat/mapsketch/internal/adapters/badger"
	"github.com/navoditbharat/mapsketch/internal/adapters/postgres"
	"github.com/navoditbharat/mapsketch/internal/adapters/valkey"
	"github.com/navoditbharat/mapsketch/internal/core/ports"
	"github.com/navoditbharat/mapsketch/internal/pkg/config"
)

// Handle is an open state store together with its release function.
type Handle struct {
	Store  ports.StateStore
	Driver string
	close  func()
}

// Close releases the backend connection.
func (h *Handle) Close() {
	if h.close != nil {
		h.close()
	}
}

// Open connects to the backend selected in cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config) (*Handle, error) {
	switch cfg.Storage.Driver {
	case config.DriverBadger:
		s, err := badgerstore.Open(cfg.Storage.BadgerPath, cfg.Storage.BadgerInMemory)
		if err != nil {
			return nil, err
		}
		return &Handle{Store: s, Driver: config.DriverBadger, close: func() { _ = s.Close() }}, nil

	case config.DriverValkey:
		s, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			return nil, err
		}
		return &Handle{Store: s, Driver: config.DriverValkey, close: s.Close}, nil

	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		return &Handle{Store: postgres.NewStateRepo(db), Driver: config.DriverPostgres, close: db.Close}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
