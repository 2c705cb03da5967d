package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/maillog/internal/app"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func sqliteRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "conf"), 0o755))
	yaml := `
database:
  driver: sqlite
  dsn: ` + filepath.Join(root, "maillog.db") + `
mail:
  host: localhost
  from: wp@example.com
site:
  name: Example
  url: https://example.com
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(yaml), 0o644))
	return root
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, app.Version+"\n", out)
}

func TestMigrateSweepStats(t *testing.T) {
	root := sqliteRoot(t)

	out, err := run(t, "--root", root, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date")

	out, err = run(t, "--root", root, "sweep", "--days", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 0 log row(s) older than 7 day(s)")

	out, err = run(t, "--root", root, "stats")
	require.NoError(t, err)
	var st map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.EqualValues(t, 0, st["total"])

	out, err = run(t, "--root", root, "migrate", "down")
	require.NoError(t, err)
	assert.Contains(t, out, "schema reverted")
}

func TestMigrateRejectsUnknownDirection(t *testing.T) {
	_, err := run(t, "--root", sqliteRoot(t), "migrate", "sideways")
	assert.Error(t, err)
}

func TestSendTestRequiresTo(t *testing.T) {
	_, err := run(t, "--root", sqliteRoot(t), "send-test")
	assert.Error(t, err)
}
