package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesDailyFile(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	root := t.TempDir()
	log, err := New(root, "debug", false)
	require.NoError(t, err)
	log.Debugw("probe", "k", "v")
	_ = log.Sync()

	files, err := filepath.Glob(filepath.Join(root, "logs", "*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	raw, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"probe"`)
	assert.Contains(t, string(raw), `"level":"debug"`)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(t.TempDir(), "chatty", false)
	assert.Error(t, err)
}
