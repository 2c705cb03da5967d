package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/maillog/internal/config"
)

func TestDSNMySQLForcesTimeHandling(t *testing.T) {
	dsn, err := DSN(config.Database{
		Driver:   DriverMySQL,
		DSN:      "maillog:@tcp(db:3306)/maillog",
		Password: "s3cret",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dsn, "maillog:s3cret@tcp(db:3306)/maillog"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
}

func TestDSNRejectsUnknownDriver(t *testing.T) {
	_, err := DSN(config.Database{Driver: "postgres", DSN: "x"})
	assert.Error(t, err)

	_, err = DSN(config.Database{Driver: DriverMySQL, DSN: "not a dsn"})
	assert.Error(t, err)
}

func TestSQLitePath(t *testing.T) {
	assert.Equal(t, "/tmp/a.db", sqlitePath("file:/tmp/a.db?cache=shared"))
	assert.Equal(t, "a.db", sqlitePath("a.db"))
}

func TestMigrateAndOpenSQLite(t *testing.T) {
	cfg := config.Database{
		Driver: DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "maillog.db"),
	}

	require.NoError(t, Migrate(cfg))
	require.NoError(t, Migrate(cfg), "second run must be a no-op")

	db, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM email_log`))
	assert.Zero(t, n)

	require.NoError(t, Rollback(cfg))
	err = db.Get(&n, `SELECT COUNT(*) FROM email_log`)
	assert.Error(t, err)
}
