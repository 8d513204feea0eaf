// Package commands implements the figura command line.
package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tsawler/figura/cmd/figura/ui"
	"github.com/tsawler/figura/config"
	"github.com/tsawler/figura/internal/logging"
)

var (
	cfgFile  string
	logLevel string
	noColor  bool
	quiet    bool

	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "figura",
	Short: "Extract figures from PDF documents",
	Long: `figura finds the figures in a PDF (embedded images and vector drawings
such as charts), renders each as an image, and optionally classifies them
with a vision model.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			c.Observability.LogLevel = logLevel
		}
		cfg = c
		logger = logging.New(logging.Config{
			Level:  cfg.Observability.LogLevel,
			Format: cfg.Observability.LogFormat,
		})
		ui.Init(noColor, quiet)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "hide spinners and progress bars")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
