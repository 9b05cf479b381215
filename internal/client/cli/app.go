package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/focussync/internal/client/config"
	"github.com/dmitrijs2005/focussync/internal/client/models"
	"github.com/dmitrijs2005/focussync/internal/client/reconcile"
	"github.com/dmitrijs2005/focussync/internal/client/replica"
	"github.com/dmitrijs2005/focussync/internal/client/services"
	"github.com/dmitrijs2005/focussync/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Replica is the local data API the commands operate on.
type Replica interface {
	AddTask(ctx context.Context, in replica.NewTask) (replica.TaskItem, error)
	MoveTask(ctx context.Context, id string, to models.Category) (replica.TaskItem, error)
	ReorderTask(ctx context.Context, id string, to models.Category, index int) (replica.TaskItem, error)
	CompleteTask(ctx context.Context, id string) (replica.TaskItem, error)
	DeleteTask(ctx context.Context, id string) error
	Tasks() []replica.TaskItem
	TasksByCategory(c models.Category) []replica.TaskItem

	AddHabit(ctx context.Context, title, color, frequency string) (replica.HabitItem, error)
	ToggleHabit(ctx context.Context, id, day string) (replica.HabitItem, error)
	DeleteHabit(ctx context.Context, id string) error
	Habits() []replica.HabitItem

	Status() reconcile.Status
	Focus(ctx context.Context) error
	SignedIn(ctx context.Context) error
	Export() models.Snapshot
	Restore(ctx context.Context, snap models.Snapshot) error
	ClearAll(ctx context.Context) error
}

// Backups moves snapshots to and from the server-side object store.
type Backups interface {
	Upload(ctx context.Context) (int, error)
	RestoreLatest(ctx context.Context) (int, error)
}

type App struct {
	config      *config.Config
	authService services.AuthService
	backups     Backups
	replica     Replica
	log         logging.Logger
	reader      *bufio.Reader
	out         io.Writer

	mu       sync.Mutex
	userName string
	mode     Mode
}

func NewApp(c *config.Config, as services.AuthService, bs Backups, r Replica, log logging.Logger) *App {
	return &App{
		config:      c,
		authService: as,
		backups:     bs,
		replica:     r,
		log:         log.With("module", "cli"),
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}
}

// setMode records the connectivity mode and reports whether it changed.
func (a *App) setMode(mode Mode) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode == mode {
		return false
	}
	a.mode = mode
	return true
}

func (a *App) setUser(name string) {
	a.mu.Lock()
	a.userName = name
	a.mu.Unlock()
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	_, ok := a.authService.CurrentUser(ctx)
	return ok
}

// Run restores a persisted session, starts the connectivity watcher and
// blocks in the REPL until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to focussync (type 'help' for commands)")

	if email, ok := a.authService.Email(ctx); ok && a.isLoggedIn(ctx) {
		a.setUser(email)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

// StartOnlineStatusWatcher pings the server every interval. Coming back
// online counts as the user returning to the app and runs a sync.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.authService.Ping(pctx)
	cancel()

	if err != nil {
		if a.setMode(ModeOffline) {
			a.log.Info(ctx, "switched mode", "mode", ModeOffline, "error", err)
		}
		return
	}
	if !a.setMode(ModeOnline) {
		return
	}
	a.log.Info(ctx, "switched mode", "mode", ModeOnline)
	if a.isLoggedIn(ctx) {
		if err := a.replica.Focus(ctx); err != nil {
			a.log.Warn(ctx, "sync after reconnect failed", "error", err)
		}
	}
}
