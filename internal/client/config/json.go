package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/prayerkeeper/internal/flagx"
	"github.com/dmitrijs2005/prayerkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// and zero-checked fields leave Config untouched when absent.
type JsonConfig struct {
	DataDir                string         `json:"data_dir"`
	DatabaseFile           string         `json:"database_file"`
	LogFile                string         `json:"log_file"`
	LogLevel               string         `json:"log_level"`
	SyncTimeout            timex.Duration `json:"sync_timeout"`
	HTTPTimeout            timex.Duration `json:"http_timeout"`
	AutoSyncThreshold      *int           `json:"auto_sync_threshold"`
	ManualVisibleThreshold *int           `json:"manual_visible_threshold"`

	Backup struct {
		Backend     string `json:"backend"`
		BaseURL     string `json:"base_url"`
		Bucket      string `json:"bucket"`
		S3Region    string `json:"s3_region"`
		S3Endpoint  string `json:"s3_endpoint"`
		S3AccessKey string `json:"s3_access_key"`
		S3SecretKey string `json:"s3_secret_key"`
	} `json:"backup"`

	Identity struct {
		AuthURL     string `json:"auth_url"`
		TokenURL    string `json:"token_url"`
		APIKey      string `json:"api_key"`
		ContinueURL string `json:"continue_url"`
	} `json:"identity"`

	PrayerTimes struct {
		BaseURL string `json:"base_url"`
		Method  *int   `json:"method"`
	} `json:"prayer_times"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without the flag nothing is loaded. Read and unmarshal
// errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFile(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.DatabaseFile, jc.DatabaseFile)
	setString(&cfg.LogFile, jc.LogFile)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.SyncTimeout.Duration > 0 {
		cfg.SyncTimeout = time.Duration(jc.SyncTimeout.Duration)
	}
	if jc.HTTPTimeout.Duration > 0 {
		cfg.HTTPTimeout = time.Duration(jc.HTTPTimeout.Duration)
	}
	if jc.AutoSyncThreshold != nil {
		cfg.AutoSyncThreshold = *jc.AutoSyncThreshold
	}
	if jc.ManualVisibleThreshold != nil {
		cfg.ManualVisibleThreshold = *jc.ManualVisibleThreshold
	}

	setString(&cfg.Backup.Backend, jc.Backup.Backend)
	setString(&cfg.Backup.BaseURL, jc.Backup.BaseURL)
	setString(&cfg.Backup.Bucket, jc.Backup.Bucket)
	setString(&cfg.Backup.S3Region, jc.Backup.S3Region)
	setString(&cfg.Backup.S3Endpoint, jc.Backup.S3Endpoint)
	setString(&cfg.Backup.S3AccessKey, jc.Backup.S3AccessKey)
	setString(&cfg.Backup.S3SecretKey, jc.Backup.S3SecretKey)

	setString(&cfg.Identity.AuthURL, jc.Identity.AuthURL)
	setString(&cfg.Identity.TokenURL, jc.Identity.TokenURL)
	setString(&cfg.Identity.APIKey, jc.Identity.APIKey)
	setString(&cfg.Identity.ContinueURL, jc.Identity.ContinueURL)

	setString(&cfg.PrayerTimes.BaseURL, jc.PrayerTimes.BaseURL)
	if jc.PrayerTimes.Method != nil {
		cfg.PrayerTimes.Method = *jc.PrayerTimes.Method
	}
}
