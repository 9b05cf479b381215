package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/focussync/internal/client/cli"
	"github.com/dmitrijs2005/focussync/internal/client/client"
	"github.com/dmitrijs2005/focussync/internal/client/config"
	"github.com/dmitrijs2005/focussync/internal/client/models"
	"github.com/dmitrijs2005/focussync/internal/client/reconcile"
	"github.com/dmitrijs2005/focussync/internal/client/replica"
	"github.com/dmitrijs2005/focussync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/focussync/internal/client/repositories/records"
	"github.com/dmitrijs2005/focussync/internal/client/services"
	"github.com/dmitrijs2005/focussync/internal/client/store"
	"github.com/dmitrijs2005/focussync/internal/logging"
	"github.com/dmitrijs2005/focussync/internal/timex"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.NewTextLogger(os.Stderr, cfg.Level())

	if err := run(ctx, cfg, logger); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	db, err := client.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	clock := timex.SystemClock{}
	seed := models.DefaultSeed(time.Now())
	seedSnap, err := seed.Snapshot(clock.Now())
	if err != nil {
		return err
	}

	st := store.New(records.NewPersister(db), clock, logger)
	if err := st.Open(ctx, seedSnap); err != nil {
		return err
	}

	api := client.NewHTTPClient(cfg.ServerEndpointAddr, nil, cfg.SyncTimeout)
	auth := services.NewAuthService(api, db)
	api.SetTokenSource(auth)

	status := reconcile.NewStatusSignal(cfg.StatusDisplayInterval)
	status.Subscribe(func(s reconcile.Status) {
		logger.Debug(ctx, "sync status", "status", s)
	})

	marks := reconcile.NewMetadataMark(metadata.NewSQLiteRepository(db))
	rec := reconcile.NewReconciler(st, api, auth, marks, status, clock, cfg.SyncTimeout, logger)
	guard := reconcile.NewGuard(st, rec, reconcile.FingerprintOf(seed), logger)

	sched := reconcile.NewScheduler(ctx, rec, guard, cfg.DebounceInterval, logger)
	defer sched.Stop()
	sched.Watch(st)

	rep := replica.New(st, sched, status, clock, logger)
	backups := services.NewBackupService(api, rep, &http.Client{Timeout: cfg.SyncTimeout})

	cli.NewApp(cfg, auth, backups, rep, logger).Run(ctx)
	return nil
}
