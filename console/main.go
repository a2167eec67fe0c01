package console

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

// Main is the console entrypoint
func Main() {
	configPath := flag.String("config", "", "Config file path (optional)")
	templatesDir := flag.String("templates", DefaultTemplatesDir, "Directory containing console templates")
	flag.Parse()

	cfg, err := config.LoadConsoleConfig(*configPath)
	if err != nil {
		logger.Init(logger.InfoLevel, "text")
		logger.Get().ErrorWithErr("failed to load configuration", err)
		os.Exit(1)
	}

	if err := logger.InitWithFile(logger.LogLevel(cfg.Logging.Level), cfg.Logging.Format, cfg.Logging.File); err != nil {
		logger.Init(logger.LogLevel(cfg.Logging.Level), cfg.Logging.Format)
		logger.Get().WarnWith("log file unavailable, logging to stdout only", "path", cfg.Logging.File, "error", err)
	}
	log := logger.Get()

	cs, err := NewConsole(cfg, *templatesDir)
	if err != nil {
		log.ErrorWithErr("failed to create console", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errorChan := make(chan error, 1)
	go func() {
		if err := cs.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		log.InfoWith("received signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := cs.Shutdown(ctx); err != nil {
			log.ErrorWithErr("error during shutdown", err)
		}
		log.Info("console stopped")

	case err := <-errorChan:
		log.ErrorWithErr("console failed", err)
		os.Exit(1)
	}
}
