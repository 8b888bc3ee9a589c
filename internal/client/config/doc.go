// Package config loads runtime configuration for the prayerkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: PRAYERKEEPER_* variables, optionally from a .env file.
//  3. Optional JSON file selected via flags: -c, -config or --config.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-d, --data-dir string    data directory
//	-l, --log-level string   log level
//	-b, --backend string     backup backend (http or s3)
//	-t, --timeout int        sync timeout (seconds)
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "30s"
// or integer nanoseconds:
//
//	{
//	  "data_dir": "~/.prayerkeeper",
//	  "log_level": "debug",
//	  "sync_timeout": "30s",
//	  "auto_sync_threshold": 50,
//	  "manual_visible_threshold": 30,
//	  "backup": {"backend": "s3", "bucket": "prayers", "s3_endpoint": "http://127.0.0.1:9000"},
//	  "identity": {"api_key": "..."},
//	  "prayer_times": {"method": 13}
//	}
package config
