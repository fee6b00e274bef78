package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/trendline/internal/config"
	"github.com/rewired-gh/trendline/internal/logger"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "trendline",
	Short: "Conversation trend chart renderer",
	Long: `trendline turns a conversation-volume fixture and an optional regional sales
fixture into the payloads a chart page consumes: a timeline at daily, weekly or
monthly granularity, a dual-axis overlay against sales share, event markers and
detail cards.

Example usage:
  trendline render                       # Write payload files to output.dir
  trendline inspect --granularity monthly
  trendline serve                        # Preview API with live reload`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: defaults and TRENDLINE_* env only)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// initConfig loads and validates configuration, then sets up logging.
func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	if cfgFile != "" {
		logger.Debug("Configuration loaded from %s", cfgFile)
	}
	return nil
}
