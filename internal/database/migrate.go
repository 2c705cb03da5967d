package database

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"github.com/yanizio/maillog/internal/config"
)

//go:embed migrations
var migrations embed.FS

// Migrate applies every pending up-migration for cfg.Driver.  It opens its
// own connection, so it never closes a pool the caller holds.  A schema
// that is already current is not an error.
func Migrate(cfg config.Database) error {
	m, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		zap.S().Infow("database schema current", "driver", cfg.Driver)
		return nil
	}
	if err != nil {
		return fmt.Errorf("database: apply migrations: %w", err)
	}

	v, _, _ := m.Version()
	zap.S().Infow("database migrations applied", "driver", cfg.Driver, "version", v)
	return nil
}

// Rollback reverts every migration.  Used by `maillogctl migrate down`.
func Rollback(cfg config.Database) error {
	m, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("database: revert migrations: %w", err)
	}
	return nil
}

func newMigrator(cfg config.Database) (*migrate.Migrate, error) {
	sub, err := fs.Sub(migrations, "migrations/"+cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("database: migrations for %q: %w", cfg.Driver, err)
	}
	src, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("database: migration source: %w", err)
	}

	url, err := migrationURL(cfg)
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return nil, fmt.Errorf("database: create migrate instance: %w", err)
	}
	return m, nil
}

// migrationURL builds the golang-migrate database URL.  MySQL needs
// multiStatements for files with more than one statement.
func migrationURL(cfg config.Database) (string, error) {
	switch cfg.Driver {
	case DriverMySQL:
		mc, err := mysqlConfig(cfg)
		if err != nil {
			return "", err
		}
		mc.MultiStatements = true
		return "mysql://" + mc.FormatDSN(), nil
	case DriverSQLite:
		return "sqlite://" + sqlitePath(cfg.DSN), nil
	default:
		return "", fmt.Errorf("database: unsupported driver %q", cfg.Driver)
	}
}
