package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	envFile = filepath.Join(t.TempDir(), "missing.env")
	t.Setenv("PRAYERKEEPER_DATA_DIR", "/env/pk")
	t.Setenv("PRAYERKEEPER_SYNC_TIMEOUT", "45s")
	t.Setenv("PRAYERKEEPER_AUTO_SYNC_THRESHOLD", "80")
	t.Setenv("PRAYERKEEPER_S3_ENDPOINT", "http://127.0.0.1:9000")
	t.Setenv("PRAYERKEEPER_API_KEY", "env-key")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, "/env/pk", cfg.DataDir)
	assert.Equal(t, 45*time.Second, cfg.SyncTimeout)
	assert.Equal(t, 80, cfg.AutoSyncThreshold)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.Backup.S3Endpoint)
	assert.Equal(t, "env-key", cfg.Identity.APIKey)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParseEnv_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PRAYERKEEPER_LOG_LEVEL=debug\nPRAYERKEEPER_BACKUP_BUCKET=from-file\n"), 0o600))
	envFile = path
	t.Cleanup(func() {
		envFile = ".env"
		_ = os.Unsetenv("PRAYERKEEPER_LOG_LEVEL")
		_ = os.Unsetenv("PRAYERKEEPER_BACKUP_BUCKET")
	})
	t.Setenv("PRAYERKEEPER_BACKUP_BUCKET", "from-process")

	cfg := &Config{}
	parseEnv(cfg)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "from-process", cfg.Backup.Bucket, "process environment wins over .env")
}

func TestParseEnv_Malformed(t *testing.T) {
	envFile = filepath.Join(t.TempDir(), "missing.env")
	t.Setenv("PRAYERKEEPER_HTTP_TIMEOUT", "soon")
	require.Panics(t, func() { parseEnv(&Config{}) })
}
