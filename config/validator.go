package config

import (
	stderrors "errors"
	"fmt"

	"github.com/atelleria/sessionwatch/errors"
)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// Validate rejects bad configuration at the boundary, before any value can
// reach the windowing engine or the scheduler.
func (c *Config) Validate() error {
	if !validLogLevels[c.App.LogLevel] {
		return errors.Wrap(errors.TypeConfig, "validate",
			fmt.Errorf("invalid log level %q", c.App.LogLevel))
	}

	if c.Data.LogRoot == "" {
		return errors.Wrap(errors.TypeConfig, "validate",
			stderrors.New("log root must not be empty"))
	}

	if c.Data.DebounceDelay <= 0 {
		return errors.Wrap(errors.TypeConfig, "validate",
			stderrors.New("debounce delay must be positive"))
	}

	if c.Data.CacheEnabled && c.Data.CacheDir == "" {
		return errors.Wrap(errors.TypeConfig, "validate",
			stderrors.New("cache dir must be set when the cache is enabled"))
	}

	if err := c.Tracking.Validate(); err != nil {
		return errors.Wrap(errors.TypeConfig, "validate", err)
	}

	return nil
}
