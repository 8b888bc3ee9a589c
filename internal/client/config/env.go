package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name read by parseEnv.
const EnvPrefix = "PRAYERKEEPER_"

// envFile is loaded when present. Variables already set in the process
// environment are not overridden.
var envFile = ".env"

// parseEnv overlays Config with PRAYERKEEPER_* environment variables.
// Malformed numbers and durations panic, like the other loaders.
func parseEnv(cfg *Config) {
	_ = godotenv.Load(envFile)

	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				panic(err)
			}
			*dst = n
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}

	str("DATA_DIR", &cfg.DataDir)
	str("DATABASE_FILE", &cfg.DatabaseFile)
	str("LOG_FILE", &cfg.LogFile)
	str("LOG_LEVEL", &cfg.LogLevel)
	dur("SYNC_TIMEOUT", &cfg.SyncTimeout)
	dur("HTTP_TIMEOUT", &cfg.HTTPTimeout)
	num("AUTO_SYNC_THRESHOLD", &cfg.AutoSyncThreshold)
	num("MANUAL_VISIBLE_THRESHOLD", &cfg.ManualVisibleThreshold)

	str("BACKUP_BACKEND", &cfg.Backup.Backend)
	str("BACKUP_BASE_URL", &cfg.Backup.BaseURL)
	str("BACKUP_BUCKET", &cfg.Backup.Bucket)
	str("S3_REGION", &cfg.Backup.S3Region)
	str("S3_ENDPOINT", &cfg.Backup.S3Endpoint)
	str("S3_ACCESS_KEY", &cfg.Backup.S3AccessKey)
	str("S3_SECRET_KEY", &cfg.Backup.S3SecretKey)

	str("AUTH_URL", &cfg.Identity.AuthURL)
	str("TOKEN_URL", &cfg.Identity.TokenURL)
	str("API_KEY", &cfg.Identity.APIKey)
	str("CONTINUE_URL", &cfg.Identity.ContinueURL)

	str("PRAYER_TIMES_URL", &cfg.PrayerTimes.BaseURL)
	num("PRAYER_TIMES_METHOD", &cfg.PrayerTimes.Method)
}
