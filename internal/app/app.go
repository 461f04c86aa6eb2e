// Package app initializes and holds long-lived application services, acting
// as an explicit dependency container constructed once at startup.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mleone/recipebook/internal/config"
	"github.com/mleone/recipebook/internal/recipe"
	mongostore "github.com/mleone/recipebook/internal/store/mongo"
	"github.com/mleone/recipebook/internal/upload"
)

// App holds the shared, long-lived services: logger, recipe store, and the
// upload saver. It is constructed once and passed to the web layer; nothing
// here lives in package-level state.
type App struct {
	logger *zap.Logger
	store  recipe.Store
	saver  *upload.Saver
}

// Logger returns the shared zap logger instance.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Store returns the recipe store.
func (a *App) Store() recipe.Store {
	return a.store
}

// Saver returns the upload saver.
func (a *App) Saver() *upload.Saver {
	return a.saver
}

// New connects to the document database and prepares the upload directory.
// The database attempt is bounded by the configured connect timeout; any
// failure here is fatal and the caller should exit.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	logger.Info("connecting to MongoDB", zap.String("database", cfg.Mongo.Database))

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout())
	defer cancel()

	store, err := mongostore.Connect(connectCtx, mongostore.Config{
		URI:        cfg.Mongo.URI,
		Database:   cfg.Mongo.Database,
		Collection: cfg.Mongo.Collection,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize store: %w", err)
	}

	saver, err := upload.New(upload.Config{Dir: cfg.Uploads.Dir})
	if err != nil {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout())
		defer closeCancel()
		if closeErr := store.Close(closeCtx); closeErr != nil {
			logger.Warn("close store after failed init", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("initialize uploads: %w", err)
	}

	logger.Info("application services initialized")
	return &App{logger: logger, store: store, saver: saver}, nil
}

// Close gracefully shuts down the services held by the App.
func (a *App) Close(ctx context.Context) {
	a.logger.Info("shutting down application services")
	if err := a.store.Close(ctx); err != nil {
		a.logger.Warn("error closing store", zap.Error(err))
	}
	if err := a.logger.Sync(); err != nil {
		// Best effort; logging itself may be the thing failing.
		a.logger.Warn("error syncing logger on shutdown", zap.Error(err))
	}
}
