// Package store opens the core.Store selected by configuration.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/catalog/internal/config"
	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/store/memory"
	"github.com/JonMunkholm/catalog/internal/store/postgres"
	"github.com/JonMunkholm/catalog/internal/store/sqlite"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Backend is a core.Store with lifecycle operations.
type Backend interface {
	core.Store
	InitSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Backend = (*postgres.Store)(nil)
	_ Backend = (*sqlite.Store)(nil)
	_ Backend = (*memory.Store)(nil)
)

// Open connects the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Backend, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverPostgres, "postgresql", "pgx":
		s, err := postgres.Open(ctx, postgres.PoolConfig{
			URL:             cfg.URL,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverSQLite, "sqlite3":
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
