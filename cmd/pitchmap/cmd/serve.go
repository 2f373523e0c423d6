package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/pitchmap/internal/calibration"
	"github.com/MeKo-Tech/pitchmap/internal/config"
	"github.com/MeKo-Tech/pitchmap/internal/server"
	"github.com/MeKo-Tech/pitchmap/internal/session"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the calibration API",
	Long: `Start an HTTP server that provides REST and WebSocket endpoints for pitch calibration.

The server provides the following endpoints:
  POST /calibrate         - Calibrate a session from point correspondences
  POST /transform         - Convert a video point to pitch coordinates
  POST /batch-transform   - Convert many video points at once
  POST /inverse-transform - Convert a pitch point back to video coordinates
  POST /distance          - Measure the pitch distance between two video points
  GET  /ws                - WebSocket endpoint for all of the above
  GET  /health            - Health check endpoint
  GET  /metrics           - Prometheus metrics

Examples:
  pitchmap serve
  pitchmap serve --port 8080
  pitchmap serve --host 0.0.0.0 --port 3000 --rate-limit-enabled`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Configuration from file, env vars and defaults; changed flags take precedence.
		cfg := GetConfig()

		serverConfig := serverConfigFromFlags(cmd, cfg)
		if serverConfig.Port < 1 || serverConfig.Port > 65535 {
			return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", serverConfig.Port)
		}

		opts, err := estimatorOptions(cmd, cfg)
		if err != nil {
			return fmt.Errorf("invalid estimator options: %w", err)
		}

		svc, err := calibration.NewService(session.NewRegistry(cfg.Session.DefaultID), opts)
		if err != nil {
			return fmt.Errorf("failed to initialize calibration service: %w", err)
		}

		apiServer, err := server.NewServer(serverConfig, svc)
		if err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		addr := fmt.Sprintf("%s:%d", serverConfig.Host, serverConfig.Port)
		httpServer := &http.Server{
			Addr:              addr,
			Handler:           apiServer.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       serverConfig.Timeout,
		}

		go func() {
			slog.Info("Starting pitchmap server", "host", serverConfig.Host, "port", serverConfig.Port,
				"rate_limit", serverConfig.RateLimit.Enabled)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Server error", "error", err)
				cancel()
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
		case <-ctx.Done():
			slog.Info("Context cancelled, initiating shutdown")
		}

		slog.Info("Starting graceful shutdown", "timeout", serverConfig.ShutdownTimeout.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
			return err
		}

		slog.Info("Graceful shutdown completed", "sessions", svc.Registry().Len())
		return nil
	},
}

// serverConfigFromFlags converts the server section of cfg and applies changed serve flags.
func serverConfigFromFlags(cmd *cobra.Command, cfg *config.Config) server.Config {
	sc := cfg.ToServerConfig()
	flags := cmd.Flags()

	if flags.Changed("host") {
		sc.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		sc.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("cors-origin") {
		sc.CORSOrigin, _ = flags.GetString("cors-origin")
	}
	if flags.Changed("max-body-kb") {
		kb, _ := flags.GetInt("max-body-kb")
		sc.MaxBodyBytes = int64(kb) * 1024
	}
	if flags.Changed("timeout") {
		sec, _ := flags.GetInt("timeout")
		sc.Timeout = time.Duration(sec) * time.Second
	}
	if flags.Changed("shutdown-timeout") {
		sec, _ := flags.GetInt("shutdown-timeout")
		sc.ShutdownTimeout = time.Duration(sec) * time.Second
	}

	// Rate limiting
	if flags.Changed("rate-limit-enabled") {
		sc.RateLimit.Enabled, _ = flags.GetBool("rate-limit-enabled")
	}
	if flags.Changed("requests-per-minute") {
		sc.RateLimit.RequestsPerMinute, _ = flags.GetInt("requests-per-minute")
	}
	if flags.Changed("requests-per-hour") {
		sc.RateLimit.RequestsPerHour, _ = flags.GetInt("requests-per-hour")
	}
	if flags.Changed("max-requests-per-day") {
		sc.RateLimit.MaxRequestsPerDay, _ = flags.GetInt("max-requests-per-day")
	}
	if flags.Changed("max-data-per-day") {
		sc.RateLimit.MaxDataPerDay, _ = flags.GetInt64("max-data-per-day")
	}

	return sc
}

func init() {
	rootCmd.AddCommand(serveCmd)
	def := config.DefaultConfig()
	serveCmd.Flags().StringP("host", "H", def.Server.Host, "server host")
	serveCmd.Flags().IntP("port", "p", def.Server.Port, "server port")
	serveCmd.Flags().String("cors-origin", def.Server.CORSOrigin, "CORS allowed origins")
	serveCmd.Flags().Int("max-body-kb", def.Server.MaxBodyKB, "maximum request body size in KB")
	serveCmd.Flags().Int("timeout", def.Server.TimeoutSec, "request read timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", def.Server.ShutdownTimeout, "shutdown timeout in seconds")
	addEstimatorFlags(serveCmd)
	// Rate limiting flags
	serveCmd.Flags().Bool("rate-limit-enabled", def.Server.RateLimit.Enabled, "enable rate limiting")
	serveCmd.Flags().Int("requests-per-minute", def.Server.RateLimit.RequestsPerMinute,
		"maximum requests per minute per client")
	serveCmd.Flags().Int("requests-per-hour", def.Server.RateLimit.RequestsPerHour,
		"maximum requests per hour per client")
	serveCmd.Flags().Int("max-requests-per-day", def.Server.RateLimit.MaxRequestsPerDay,
		"maximum requests per day per client")
	serveCmd.Flags().Int64("max-data-per-day", def.Server.RateLimit.MaxDataPerDay,
		"maximum request body bytes per day per client")
}
