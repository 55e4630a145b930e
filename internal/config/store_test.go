package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStoreConfigDefaultsWithoutFile(t *testing.T) {
	chdirForTest(t, t.TempDir())

	holder, err := NewStoreConfigHolder(zap.NewNop())
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, 0.01, cfg.TotalTolerance)
	assert.Equal(t, 30, cfg.StatsWindowDays)
	assert.Equal(t, 5, cfg.TopProductsLimit)
	assert.Equal(t, int64(5*1024*1024), cfg.ProofMaxBytes)
	assert.Contains(t, cfg.ProofMimeTypes, "application/pdf")
}

func TestStoreConfigReadsFile(t *testing.T) {
	dir := t.TempDir()
	chdirForTest(t, dir)

	content := []byte("store:\n  totalTolerance: 0.05\n  statsWindowDays: 7\n  topProductsLimit: 3\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "store.yml"), content, 0o600))

	holder, err := NewStoreConfigHolder(zap.NewNop())
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, 0.05, cfg.TotalTolerance)
	assert.Equal(t, 7, cfg.StatsWindowDays)
	assert.Equal(t, 3, cfg.TopProductsLimit)
	assert.Equal(t, 60, cfg.StatsCacheTTLSeconds)
}

func TestStoreConfigRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	chdirForTest(t, dir)

	content := []byte("store:\n  statsWindowDays: 0\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "store.yml"), content, 0o600))

	_, err := NewStoreConfigHolder(zap.NewNop())
	assert.Error(t, err)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("RATE_LIMIT_ENABLED", "yes")
	t.Setenv("UPLOAD_PUBLIC_BASE", "https://cdn.example.com/files/")
	t.Setenv("REDIS_ADDR", "")

	cfg := Load()
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "https://cdn.example.com/files", cfg.Upload.PublicBase)
	assert.False(t, cfg.Redis.Enabled())
}

// chdirForTest changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
