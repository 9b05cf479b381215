// Package replica is the service object the presentation layer talks to. It
// owns the record store, the sync status and the trigger scheduler, and
// exposes the task and habit mutation API on top of them.
package replica

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/focussync/internal/client/models"
	"github.com/dmitrijs2005/focussync/internal/client/reconcile"
	"github.com/dmitrijs2005/focussync/internal/client/store"
	"github.com/dmitrijs2005/focussync/internal/common"
	"github.com/dmitrijs2005/focussync/internal/logging"
	"github.com/dmitrijs2005/focussync/internal/timex"
)

var (
	ErrEmptyTitle      = errors.New("title must not be empty")
	ErrInvalidCategory = errors.New("unknown category")
	ErrInvalidDate     = errors.New("date must be YYYY-MM-DD")
	ErrInvalidSnapshot = errors.New("snapshot holds unreadable records")
)

type Replica struct {
	store  *store.Store
	sched  *reconcile.Scheduler
	status *reconcile.StatusSignal
	clock  timex.Clock
	loc    *time.Location
	log    logging.Logger
}

func New(st *store.Store, sched *reconcile.Scheduler, status *reconcile.StatusSignal, clock timex.Clock, log logging.Logger) *Replica {
	return &Replica{
		store:  st,
		sched:  sched,
		status: status,
		clock:  clock,
		loc:    time.Local,
		log:    log.With("module", "replica"),
	}
}

// Status returns the current sync indicator.
func (r *Replica) Status() reconcile.Status {
	return r.status.Current()
}

// OnStatus subscribes to sync indicator transitions.
func (r *Replica) OnStatus(fn func(reconcile.Status)) func() {
	return r.status.Subscribe(fn)
}

// Focus is called when the user comes back to the application.
func (r *Replica) Focus(ctx context.Context) error {
	return r.sched.Focus(ctx)
}

// SignedIn is called once after a successful login.
func (r *Replica) SignedIn(ctx context.Context) error {
	return r.sched.SignIn(ctx)
}

// Export returns both collections including tombstones.
func (r *Replica) Export() models.Snapshot {
	return r.store.Snapshot()
}

// Restore overwrites local data with snap. The restored records are stamped
// as fresh local edits and will be pushed by the next cycle. A snapshot with
// a record whose payload does not decode is rejected as a whole.
func (r *Replica) Restore(ctx context.Context, snap models.Snapshot) error {
	for collection, recs := range map[string][]models.Record{
		common.CollectionTasks:  snap.Tasks,
		common.CollectionHabits: snap.Habits,
	} {
		for _, rec := range recs {
			if err := models.CheckPayload(collection, rec); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
			}
		}
	}
	return r.store.Restore(ctx, snap)
}

// ClearAll empties both collections locally. Nothing is tombstoned, so the
// remote copies stay untouched.
func (r *Replica) ClearAll(ctx context.Context) error {
	return r.store.Replace(ctx, models.Snapshot{Tasks: []models.Record{}, Habits: []models.Record{}}, store.OriginLocal)
}

func (r *Replica) today() time.Time {
	return r.clock.Now().In(r.loc)
}

// updatePayload decodes the payload of id as T, lets fn change it and
// stores the result.
func updatePayload[T any](ctx context.Context, st *store.Store, collection, id string, fn func(*T) error) (models.Record, error) {
	return st.Update(ctx, collection, id, func(rec *models.Record) error {
		return editPayload(rec, fn)
	})
}

func editPayload[T any](rec *models.Record, fn func(*T) error) error {
	v, err := models.Decode[T](*rec)
	if err != nil {
		return fmt.Errorf("record %s payload: %w", rec.ID, err)
	}
	if err := fn(&v); err != nil {
		return err
	}
	rec.Data, err = models.Encode(v)
	return err
}

func cleanTitle(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyTitle
	}
	return s, nil
}

func checkDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(models.DateLayout, s); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return nil
}
