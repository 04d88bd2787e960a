package config

import (
	stderrors "errors"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/atelleria/sessionwatch/errors"
	"github.com/atelleria/sessionwatch/models"
)

// Load reads configuration from file, environment and defaults, in that
// order of increasing precedence for env over file. An empty cfgFile means
// the standard search path; a missing config file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".sessionwatch")
	}

	v.SetEnvPrefix("SESSIONWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, errors.Wrap(errors.TypeConfig, "read config file", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "decode config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()

	v.SetDefault("app.name", defaults.App.Name)
	v.SetDefault("app.log_level", defaults.App.LogLevel)
	v.SetDefault("app.log_file", defaults.App.LogFile)

	v.SetDefault("data.log_root", defaults.Data.LogRoot)
	v.SetDefault("data.cache_enabled", defaults.Data.CacheEnabled)
	v.SetDefault("data.cache_dir", defaults.Data.CacheDir)
	v.SetDefault("data.debounce_delay", defaults.Data.DebounceDelay)

	v.SetDefault("tracking.enabled", defaults.Tracking.Enabled)
	v.SetDefault("tracking.billing_day", defaults.Tracking.BillingDay)
	v.SetDefault("tracking.window_length", models.WindowLength)
}
