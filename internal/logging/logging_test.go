package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesDailyJSONFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	logger, err := New(dir, "warn", now)
	require.NoError(t, err)

	logger.Info("dropped below level")
	logger.Warn("tokenizer failed", zap.Int("bytes", 12))
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "sage_20260301.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"tokenizer failed"`)
	assert.Contains(t, string(data), `"bytes":12`)
	assert.NotContains(t, string(data), "dropped below level")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(t.TempDir(), "chatty", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "sage_20261231.log", FileName(time.Date(2026, 12, 31, 23, 0, 0, 0, time.UTC)))
}
