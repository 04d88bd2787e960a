package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/atelleria/sessionwatch/config"
	"github.com/atelleria/sessionwatch/internal"
)

var (
	cfgFile    string
	logLevel   string
	logFile    string
	logRoot    string
	billingDay int
	disabled   bool
	noCache    bool
	debounce   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "sessionwatch",
	Short: "Live usage session tracker",
	Long: `sessionwatch reconstructs fixed-length usage sessions from append-only
event logs and keeps a live view of the current session's remaining time and
consumption, republished on every log change.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfiguration(cmd)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		app, err := internal.NewApplication(cfg)
		if err != nil {
			return fmt.Errorf("failed to create application: %w", err)
		}

		return app.Run()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sessionwatch.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file (default stderr)")

	rootCmd.Flags().StringVarP(&logRoot, "root", "r", "", "log root directory to watch")
	rootCmd.Flags().IntVarP(&billingDay, "billing-day", "b", 0, "billing day of month (1-28)")
	rootCmd.Flags().BoolVar(&disabled, "disabled", false, "start with tracking disabled")
	rootCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the parsed-file cache")
	rootCmd.Flags().DurationVar(&debounce, "debounce", 0, "debounce delay for change-triggered recomputes")
}

// loadConfiguration loads the config file/env layer and applies command line
// flags on top.
func loadConfiguration(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	applyFlagOverrides(cmd.Flags(), cfg)

	// Flags bypass the loader, so re-validate the final configuration.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyFlagOverrides layers explicitly set flags over the loaded config.
func applyFlagOverrides(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("log-level") {
		cfg.App.LogLevel = logLevel
	}
	if flags.Changed("log-file") {
		cfg.App.LogFile = logFile
	}
	if flags.Changed("root") {
		cfg.Data.LogRoot = logRoot
	}
	if flags.Changed("billing-day") {
		cfg.Tracking.BillingDay = billingDay
	}
	if disabled {
		cfg.Tracking.Enabled = false
	}
	if noCache {
		cfg.Data.CacheEnabled = false
	}
	if flags.Changed("debounce") {
		cfg.Data.DebounceDelay = debounce
	}
}
