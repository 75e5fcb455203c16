package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Load reads the webpify configuration using Viper.
// Search order: ./webpify.toml, $HOME/.config/webpify/webpify.toml.
// A missing config file is not an error; defaults and environment apply.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("webpify")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home + "/.config/webpify")
	}

	SetDefaults(v)
	BindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return LoadWithViper(v)
}

// LoadWithViper loads configuration from a provided Viper instance.
// Used by tests to build isolated configs without touching user files.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// pack_after defaults to the inverse of dry_run: a dry run must not
	// compact, a real run wants the space back
	if !v.IsSet("convert.pack_after") {
		cfg.Convert.PackAfter = !cfg.Convert.DryRun
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
