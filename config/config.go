// Package config provides run configuration for webpify.
//
// Configuration is resolved once, before the batch starts, from defaults,
// an optional TOML file, environment variables, and CLI flags (highest
// precedence). The core packages receive the resolved Config value and
// never consult viper or the environment themselves.
package config

// Config is the resolved webpify configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Convert  ConvertConfig  `mapstructure:"convert"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig holds content-store settings
type DatabaseConfig struct {
	// Path is the sqlite database file backing the content store
	Path string `mapstructure:"path"`
}

// ConvertConfig holds the batch conversion parameters.
// Immutable once constructed; every component receives it by value or
// as a read-only pointer.
type ConvertConfig struct {
	// Quality is the lossy WebP encode quality (0-100)
	Quality int `mapstructure:"quality"`

	// DryRun performs all decisions and logging but no writes, commits,
	// or compaction
	DryRun bool `mapstructure:"dry_run"`

	// CommitEvery bounds transaction size: commit accumulated work every
	// N objects
	CommitEvery int `mapstructure:"commit_every"`

	// PackAfter compacts the store once after a completed run.
	// Defaults to !DryRun; see Load.
	PackAfter bool `mapstructure:"pack_after"`

	// SiteID scopes the run to one site's content
	SiteID string `mapstructure:"site_id"`
}

// LogConfig holds logging settings
type LogConfig struct {
	// Dir receives the timestamped run log file; empty disables the
	// file sink
	Dir string `mapstructure:"dir"`

	// Every controls how often the progress line is persisted to the
	// log (every Nth object, plus first and last)
	Every int `mapstructure:"every"`
}
