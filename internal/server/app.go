// Package server wires the sync server together: database and migrations,
// services, the HTTP API and housekeeping, with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/focussync/internal/logging"
	"github.com/dmitrijs2005/focussync/internal/server/api"
	"github.com/dmitrijs2005/focussync/internal/server/config"
	"github.com/dmitrijs2005/focussync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/focussync/internal/server/services"
	"github.com/dmitrijs2005/focussync/internal/timex"
	"golang.org/x/sync/errgroup"
)

const tokenPruneInterval = time.Hour

type App struct {
	config        *config.Config
	logger        logging.Logger
	db            *sql.DB
	userService   *services.UserService
	recordService *services.RecordService
	backupService *services.BackupService
	pruneInterval time.Duration
}

// NewApp connects to the database, applies migrations and builds the
// services.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return newApp(c, logger, db, rm), nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) *App {
	return &App{
		config:        c,
		logger:        logger.With("module", "app"),
		db:            db,
		userService:   services.NewUserService(db, rm, c, timex.SystemClock{}),
		recordService: services.NewRecordService(db, rm),
		backupService: services.NewBackupService(c),
		pruneInterval: tokenPruneInterval,
	}
}

// Run serves the API until ctx is cancelled or the server fails, then
// closes the database.
func (app *App) Run(ctx context.Context) error {
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...")

	srv := api.NewHTTPServer(app.config.EndpointAddr, app.logger, app.userService, app.recordService, app.backupService, app.config.ShutdownTimeout)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})
	g.Go(func() error {
		app.pruneTokens(ctx)
		return nil
	})

	err := g.Wait()
	app.logger.Info(context.WithoutCancel(ctx), "App stopped")
	return err
}

// pruneTokens drops expired refresh tokens every pruneInterval until ctx ends.
func (app *App) pruneTokens(ctx context.Context) {
	ticker := time.NewTicker(app.pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.userService.PruneExpiredTokens(ctx)
			if err != nil {
				app.logger.Warn(ctx, "refresh token cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Debug(ctx, "expired refresh tokens removed", "count", n)
			}
		}
	}
}
