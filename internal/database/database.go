// Package database centralises sqlx connection helpers for the log store.
// Two drivers are supported: go-sql-driver/mysql (production, also MariaDB)
// and modernc.org/sqlite (development and tests, no cgo).
//
// Public entry points:
//
//	Open(ctx, cfg)       – normalise the DSN, size the pool, and Ping.
//	Migrate(cfg)         – apply embedded schema migrations.
//
// Open pings before returning so callers can fail fast during bootstrap.
// Callers should Close() the returned *sqlx.DB when no longer needed.
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/yanizio/maillog/internal/config"
)

// Driver names as registered with database/sql.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Open returns a pooled *sqlx.DB for cfg.  MySQL pools use cfg.MaxOpen and
// cfg.MaxIdle with a 30-minute connection lifetime.  SQLite pools are
// pinned to one connection because the file allows a single writer.
func Open(ctx context.Context, cfg config.Database) (*sqlx.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", cfg.Driver, err)
	}

	switch cfg.Driver {
	case DriverSQLite:
		db.SetMaxOpenConns(1)
	default:
		db.SetMaxOpenConns(cfg.MaxOpen)
		db.SetMaxIdleConns(cfg.MaxIdle)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database: ping %s: %w", cfg.Driver, err)
	}
	return db, nil
}

// DSN returns the driver-ready connection string.  For MySQL the password
// from cfg (already resolved from Vault) is merged in, and parseTime plus a
// UTC location are forced so DATETIME columns scan into time.Time.
func DSN(cfg config.Database) (string, error) {
	switch cfg.Driver {
	case DriverMySQL:
		mc, err := mysqlConfig(cfg)
		if err != nil {
			return "", err
		}
		return mc.FormatDSN(), nil
	case DriverSQLite:
		return sqlitePath(cfg.DSN) + "?_time_format=sqlite&_pragma=busy_timeout(5000)", nil
	default:
		return "", fmt.Errorf("database: unsupported driver %q", cfg.Driver)
	}
}

func mysqlConfig(cfg config.Database) (*mysql.Config, error) {
	mc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("database: parse mysql dsn: %w", err)
	}
	if cfg.Password != "" {
		mc.Passwd = cfg.Password
	}
	mc.ParseTime = true
	mc.Loc = time.UTC
	return mc, nil
}

// sqlitePath strips any query string the operator left on a SQLite DSN.
// Open and Migrate add their own parameters.
func sqlitePath(dsn string) string {
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	return path
}
