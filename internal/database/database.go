// Package database manages SQL connections and transaction plumbing for
// the control-plane stores.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// Supported driver names.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config holds connection pool settings.
type Config struct {
	Driver             string
	ConnectionString   string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// Connect opens a pooled connection and verifies it is reachable before
// handing it out. Only the postgres and mysql drivers are accepted; an
// unknown driver is a deployment mistake and fails fast.
func Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	switch cfg.Driver {
	case DriverPostgres, DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
