package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/kozaktomas/face-threshold/internal/config"
	"github.com/spf13/cobra"
)

var (
	logLevel    string
	logFile     string
	closeLogger = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "face-threshold",
	Short: "Calibrate the face-match distance threshold",
	Long: `Face Threshold finds the distance cutoff that best separates matching
from non-matching face pairs. Labeled pairs come from a dataset file, the
face embeddings stored in PostgreSQL, or PhotoPrism's face markers.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = closeLogger()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from LOG_LEVEL or info)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file (default from LOG_FILE)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// setupLogging installs the process-wide slog logger from flags and environment.
func setupLogging(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if logLevel == "" {
		logLevel = cfg.Log.Level
	}
	if logFile == "" {
		logFile = cfg.Log.File
	}

	level, err := config.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger, closer := config.SetupLogger(logFile, level)
	slog.SetDefault(logger)
	closeLogger = closer
	return nil
}
