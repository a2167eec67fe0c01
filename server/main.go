package server

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatrelay/pkg/config"
	"chatrelay/pkg/logger"
)

// Main is the relay entrypoint: parse flags, load configuration, start the
// server, and run the graceful shutdown sequence on SIGINT/SIGTERM.
func Main() {
	configPath := flag.String("config", "", "Config file path (optional)")
	host := flag.String("host", "", "Bind host (overrides config)")
	port := flag.Int("port", 0, "Bind port (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "", "Log format: text or json")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Init(logger.InfoLevel, "text")
		logger.Get().ErrorWithErr("failed to load configuration", err)
		os.Exit(1)
	}

	// Command-line flags win over file and environment
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Logging.Format = *logFormat
	}

	if err := logger.InitWithFile(logger.LogLevel(cfg.Logging.Level), cfg.Logging.Format, cfg.Logging.File); err != nil {
		logger.Init(logger.LogLevel(cfg.Logging.Level), cfg.Logging.Format)
		logger.Get().WarnWith("log file unavailable, logging to stdout only", "path", cfg.Logging.File, "error", err)
	}
	log := logger.Get()

	log.InfoWith("relay starting", "address", cfg.Address(), "origins", cfg.AllowedOrigins, "storage", cfg.Database.Enabled)

	srv, err := NewServer(cfg)
	if err != nil {
		log.ErrorWithErr("failed to create server", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errorChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		log.InfoWith("received signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Shutdown.TimeoutSeconds)*time.Second)
		defer cancel()

		// Shutdown faults are logged, never fatal: the process still exits clean
		if err := srv.Shutdown(ctx); err != nil {
			log.ErrorWithErr("error during shutdown", err)
		}
		log.Info("relay stopped")

	case err := <-errorChan:
		log.ErrorWithErr("server failed", err)
		os.Exit(1)
	}
}
