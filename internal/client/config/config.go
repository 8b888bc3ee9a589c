package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/prayerkeeper/internal/client/cloud"
	"github.com/dmitrijs2005/prayerkeeper/internal/client/prayertimes"
)

// Backup configures the cloud object store used for backups.
type Backup struct {
	Backend     string
	BaseURL     string
	Bucket      string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

// Identity configures email-link sign-in.
type Identity struct {
	AuthURL     string
	TokenURL    string
	APIKey      string
	ContinueURL string
}

// PrayerTimes configures the prayer times calendar API.
type PrayerTimes struct {
	BaseURL string
	Method  int
}

// Config holds runtime settings for the prayerkeeper CLI.
//
// DataDir may start with "~"; DatabaseFile and LogFile are relative to it
// unless absolute.
type Config struct {
	DataDir      string
	DatabaseFile string
	LogFile      string
	LogLevel     string

	SyncTimeout time.Duration
	HTTPTimeout time.Duration

	AutoSyncThreshold      int
	ManualVisibleThreshold int

	Backup      Backup
	Identity    Identity
	PrayerTimes PrayerTimes
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = "~/.prayerkeeper"
	c.DatabaseFile = "prayerkeeper.db"
	c.LogFile = "prayerkeeper.log"
	c.LogLevel = "info"
	c.SyncTimeout = 30 * time.Second
	c.HTTPTimeout = 15 * time.Second
	c.AutoSyncThreshold = 50
	c.ManualVisibleThreshold = 30
	c.Backup = Backup{
		Backend:  cloud.BackendHTTP,
		BaseURL:  "https://firebasestorage.googleapis.com",
		S3Region: "us-east-1",
	}
	c.Identity = Identity{
		AuthURL:     "https://identitytoolkit.googleapis.com",
		TokenURL:    "https://securetoken.googleapis.com",
		ContinueURL: "https://prayerkeeper.app/finishSignIn",
	}
	c.PrayerTimes = PrayerTimes{
		BaseURL: "https://api.aladhan.com",
		Method:  prayertimes.DefaultMethod,
	}
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from the environment, JSON (if present) and command-line flags (if
// present). Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data dir is empty")
	}
	if c.AutoSyncThreshold <= 0 || c.ManualVisibleThreshold <= 0 {
		return errors.New("sync thresholds must be positive")
	}
	if c.ManualVisibleThreshold > c.AutoSyncThreshold {
		return fmt.Errorf("manual threshold %d exceeds automatic threshold %d", c.ManualVisibleThreshold, c.AutoSyncThreshold)
	}
	switch c.Backup.Backend {
	case cloud.BackendHTTP, cloud.BackendS3:
	default:
		return fmt.Errorf("unknown backup backend %q", c.Backup.Backend)
	}
	if c.SyncTimeout <= 0 || c.HTTPTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	return nil
}

func (c *Config) resolve(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// DatabasePath returns the database location inside dir, the expanded
// data directory.
func (c *Config) DatabasePath(dir string) string {
	return c.resolve(dir, c.DatabaseFile)
}

// LogPath returns the log file location inside dir.
func (c *Config) LogPath(dir string) string {
	return c.resolve(dir, c.LogFile)
}

// BackupOptions converts the backup section for cloud.New.
func (c *Config) BackupOptions() cloud.Options {
	return cloud.Options{
		Backend:     c.Backup.Backend,
		BaseURL:     c.Backup.BaseURL,
		Bucket:      c.Backup.Bucket,
		S3Region:    c.Backup.S3Region,
		S3Endpoint:  c.Backup.S3Endpoint,
		S3AccessKey: c.Backup.S3AccessKey,
		S3SecretKey: c.Backup.S3SecretKey,
	}
}
