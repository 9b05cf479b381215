package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/focussync/internal/client/models"
	"github.com/dmitrijs2005/focussync/internal/client/rowmap"
	"github.com/dmitrijs2005/focussync/internal/client/store"
	"github.com/dmitrijs2005/focussync/internal/common"
	"github.com/dmitrijs2005/focussync/internal/logging"
	"github.com/dmitrijs2005/focussync/internal/timex"
	"golang.org/x/sync/errgroup"
)

var (
	ErrPush   = errors.New("push failed")
	ErrPull   = errors.New("pull failed")
	ErrCommit = errors.New("commit failed")
	ErrMark   = errors.New("high-water mark unavailable")
)

// Remote is the part of the server API a cycle needs.
type Remote interface {
	UpsertRows(ctx context.Context, collection string, rows []rowmap.Row) error
	FetchRows(ctx context.Context, collection string, since *time.Time) ([]rowmap.Row, error)
}

// Identity reports the signed-in user, if any.
type Identity interface {
	CurrentUser(ctx context.Context) (string, bool)
}

type Reconciler struct {
	mu       sync.Mutex
	store    *store.Store
	remote   Remote
	identity Identity
	marks    MarkStore
	status   *StatusSignal
	clock    timex.Clock
	timeout  time.Duration
	log      logging.Logger
}

func NewReconciler(st *store.Store, remote Remote, identity Identity, marks MarkStore,
	status *StatusSignal, clock timex.Clock, timeout time.Duration, log logging.Logger) *Reconciler {
	return &Reconciler{
		store:    st,
		remote:   remote,
		identity: identity,
		marks:    marks,
		status:   status,
		clock:    clock,
		timeout:  timeout,
		log:      log.With("module", "reconciler"),
	}
}

// Run performs one cycle. Without a signed-in user it does nothing. When
// override is non-nil the cycle works on that snapshot instead of the
// store's, always pushes (even an empty set) and always writes back.
//
// Cycles are serialized. Any failure leaves the mark untouched, sets the
// error status and is returned.
func (r *Reconciler) Run(ctx context.Context, override *models.Snapshot) error {
	userID, ok := r.identity.CurrentUser(ctx)
	if !ok {
		r.log.Debug(ctx, "no identity, skipping sync")
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	gen := r.status.begin()
	err := r.cycle(ctx, userID, override)
	if err != nil {
		r.log.Error(ctx, "sync failed", "error", err)
		r.status.finish(gen, StatusError)
		return err
	}
	r.status.finish(gen, StatusSaved)
	return nil
}

type collectionState struct {
	name   string
	local  []models.Record
	pulled []models.Record
}

func (r *Reconciler) cycle(ctx context.Context, userID string, override *models.Snapshot) error {
	start := r.clock.Now()

	mark, err := r.marks.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMark, err)
	}

	snap := override
	var gen uint64
	if snap == nil {
		s, g := r.store.VersionedSnapshot()
		snap, gen = &s, g
	} else {
		gen = r.store.Generation()
	}
	cols := []*collectionState{
		{name: common.CollectionTasks, local: models.CloneAll(snap.Tasks)},
		{name: common.CollectionHabits, local: models.CloneAll(snap.Habits)},
	}

	if err := r.push(ctx, userID, cols, mark, override != nil); err != nil {
		return fmt.Errorf("%w: %w", ErrPush, err)
	}
	if err := r.pull(ctx, cols, mark); err != nil {
		return fmt.Errorf("%w: %w", ErrPull, err)
	}

	merged := models.Snapshot{}
	changes := 0
	for _, c := range cols {
		out, n := Merge(c.local, c.pulled)
		changes += n
		if c.name == common.CollectionTasks {
			merged.Tasks = out
		} else {
			merged.Habits = out
		}
	}

	if changes > 0 || override != nil {
		applied, err := r.store.Commit(ctx, merged, gen, override != nil)
		if errors.Is(err, store.ErrSuperseded) {
			// The next cycle redoes the pull from the unchanged mark.
			r.log.Info(ctx, "collections replaced during sync, merge discarded")
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCommit, err)
		}
		r.log.Debug(ctx, "committed merge", "merged", changes, "applied", applied)
	}

	if mark == nil || start.After(*mark) {
		if err := r.marks.Store(ctx, start); err != nil {
			return fmt.Errorf("%w: %w", ErrCommit, err)
		}
	}

	r.log.Info(ctx, "sync finished", "mark", timex.FormatInstant(start), "changes", changes)
	return nil
}

func (r *Reconciler) push(ctx context.Context, userID string, cols []*collectionState, mark *time.Time, always bool) error {
	type batch struct {
		collection string
		rows       []rowmap.Row
	}

	// Every collection is encoded before any upload starts.
	batches := make([]batch, 0, len(cols))
	for _, c := range cols {
		delta := Delta(c.local, mark)
		if len(delta) == 0 && !always {
			continue
		}
		rows, err := rowmap.EncodeAll(delta, userID)
		if err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
		batches = append(batches, batch{collection: c.name, rows: rows})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, b := range batches {
		b := b
		g.Go(func() error {
			if err := r.remote.UpsertRows(gctx, b.collection, b.rows); err != nil {
				return fmt.Errorf("%s: %w", b.collection, err)
			}
			r.log.Debug(gctx, "pushed", "collection", b.collection, "count", len(b.rows))
			return nil
		})
	}
	return g.Wait()
}

func (r *Reconciler) pull(ctx context.Context, cols []*collectionState, mark *time.Time) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range cols {
		c := c
		g.Go(func() error {
			rows, err := r.remote.FetchRows(gctx, c.name, mark)
			if err != nil {
				return fmt.Errorf("%s: %w", c.name, err)
			}
			c.pulled = r.decode(gctx, c.name, rows)
			r.log.Debug(gctx, "pulled", "collection", c.name, "count", len(c.pulled))
			return nil
		})
	}
	return g.Wait()
}

// decode maps pulled rows to records, skipping malformed ones. A row is
// malformed when its envelope or its payload does not fit the collection.
func (r *Reconciler) decode(ctx context.Context, collection string, rows []rowmap.Row) []models.Record {
	out := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := rowmap.Decode(row)
		if err == nil {
			if perr := models.CheckPayload(collection, rec); perr != nil {
				err = fmt.Errorf("%w: %w", rowmap.ErrMalformedRecord, perr)
			}
		}
		if err != nil {
			r.log.Warn(ctx, "skipping remote row", "collection", collection, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out
}
