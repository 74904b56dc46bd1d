package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/face-threshold/internal/config"
	"github.com/kozaktomas/face-threshold/internal/constants"
	"github.com/kozaktomas/face-threshold/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the calibration web server.

Endpoints:
  GET  /api/v1/health        liveness check
  GET  /api/v1/config        measures, metrics and default ranges
  POST /api/v1/threshold     calibrate on posted pairs
  GET  /api/v1/calibrations  stored runs (requires DATABASE_URL)
  GET  /metrics              Prometheus metrics

When DATABASE_URL is set, calibration runs can be stored with "save": true.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", constants.DefaultWebPort, "Port to listen on")
	serveCmd.Flags().String("host", constants.DefaultWebHost, "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" && !cmd.Flags().Changed("port") {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" && !cmd.Flags().Changed("host") {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Database.URL != "" {
		logger.Info("connecting to PostgreSQL database")
		if err := initPostgres(ctx, cfg); err != nil {
			return err
		}
		defer closePostgres()
	} else {
		logger.Warn("DATABASE_URL not set, calibration runs will not be stored")
	}

	port, host := resolveServeHostPort(cmd)
	server, err := web.NewServer(cfg, host, port, logger)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("error during shutdown", "error", err)
		}
	}()

	fmt.Printf("Starting Face Threshold API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
