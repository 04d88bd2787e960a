package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/atelleria/sessionwatch/models"
	"github.com/atelleria/sessionwatch/orchestrator"
)

// Config represents the complete application configuration
type Config struct {
	// Application
	App AppConfig `yaml:"app" json:"app" mapstructure:"app"`

	// Data Sources
	Data DataConfig `yaml:"data" json:"data" mapstructure:"data"`

	// Session tracking
	Tracking models.TrackingConfig `yaml:"tracking" json:"tracking" mapstructure:"tracking"`
}

// AppConfig contains general application settings
type AppConfig struct {
	Name     string `yaml:"name" json:"name" mapstructure:"name"`
	LogLevel string `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	LogFile  string `yaml:"log_file" json:"log_file" mapstructure:"log_file"`
}

// DataConfig contains log source and processing settings
type DataConfig struct {
	LogRoot       string        `yaml:"log_root" json:"log_root" mapstructure:"log_root"`
	CacheEnabled  bool          `yaml:"cache_enabled" json:"cache_enabled" mapstructure:"cache_enabled"`
	CacheDir      string        `yaml:"cache_dir" json:"cache_dir" mapstructure:"cache_dir"`
	DebounceDelay time.Duration `yaml:"debounce_delay" json:"debounce_delay" mapstructure:"debounce_delay"`
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return &Config{
		App: AppConfig{
			Name:     "sessionwatch",
			LogLevel: "info",
			LogFile:  "",
		},
		Data: DataConfig{
			LogRoot:       filepath.Join(homeDir, ".claude", "projects"),
			CacheEnabled:  true,
			CacheDir:      filepath.Join(homeDir, ".cache", "sessionwatch"),
			DebounceDelay: orchestrator.DefaultDebounceDelay,
		},
		Tracking: models.DefaultTrackingConfig(),
	}
}
