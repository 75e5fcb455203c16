package config

import "github.com/spf13/viper"

// Default values for the conversion run. Quality and the commit interval
// mirror what a full-site migration wants: visually lossless output and
// transactions small enough to keep conflict windows and memory bounded.
const (
	DefaultQuality     = 85
	DefaultCommitEvery = 100
	DefaultSiteID      = "Plone"
	DefaultLogEvery    = 50
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Content store defaults
	v.SetDefault("database.path", "webpify.db")

	// Conversion defaults
	v.SetDefault("convert.quality", DefaultQuality)
	v.SetDefault("convert.dry_run", false)
	v.SetDefault("convert.commit_every", DefaultCommitEvery)
	v.SetDefault("convert.site_id", DefaultSiteID)
	// convert.pack_after intentionally has no static default:
	// it derives from dry_run at load time unless set explicitly

	// Logging defaults
	v.SetDefault("log.dir", ".")
	v.SetDefault("log.every", DefaultLogEvery)
}

// BindEnvVars explicitly binds configuration to environment variables
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("database.path", "WEBPIFY_DATABASE_PATH")
	v.BindEnv("convert.quality", "WEBPIFY_QUALITY")
	v.BindEnv("convert.dry_run", "WEBPIFY_DRY_RUN")
	v.BindEnv("convert.commit_every", "WEBPIFY_COMMIT_EVERY")
	v.BindEnv("convert.site_id", "WEBPIFY_SITE_ID")
}
