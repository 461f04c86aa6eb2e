// Package main wires together the recipe web server binary.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mleone/recipebook/internal/app"
	"github.com/mleone/recipebook/internal/config"
	"github.com/mleone/recipebook/internal/logging"
	"github.com/mleone/recipebook/internal/web"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}

	server := web.NewServer(application.Store(), application.Saver(), web.Config{
		UploadsDir:     cfg.Uploads.Dir,
		AssetsDir:      cfg.Server.AssetsDir,
		MaxUploadBytes: cfg.Uploads.MaxBytes,
	}, logger.Named("web"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	// Operator convenience channel: typing "stop" on stdin triggers the same
	// guarded shutdown the signal handler does. stop is idempotent, so a
	// signal and a stdin command racing each other is harmless.
	go watchStdin(os.Stdin, stop, logger)

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	application.Close(shutdownCtx)
	logger.Info("shutdown complete")
}

func watchStdin(r *os.File, stop func(), logger *zap.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if strings.EqualFold(strings.TrimSpace(scanner.Text()), "stop") {
			logger.Info("stop command received")
			stop()
			return
		}
	}
}
