// Package store holds the replica's two record collections in memory,
// persists every change through a Persister and stamps local mutations.
//
// All writes go through the Store: readers always receive copies, so a
// caller cannot change a record without it being stamped and persisted.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/focussync/internal/client/models"
	"github.com/dmitrijs2005/focussync/internal/common"
	"github.com/dmitrijs2005/focussync/internal/logging"
	"github.com/dmitrijs2005/focussync/internal/timex"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrPersist  = errors.New("local write failed")
	// ErrSuperseded is returned by Commit when the collections were
	// replaced after the snapshot it was computed from.
	ErrSuperseded = errors.New("collections replaced since snapshot")
)

// Collections lists the collections a store manages, in a stable order.
var Collections = []string{common.CollectionTasks, common.CollectionHabits}

// Origin tells subscribers who caused a change.
type Origin int

const (
	// OriginLocal is a user mutation through the mutation API.
	OriginLocal Origin = iota
	// OriginSync is a write performed by reconciliation or the sign-in guard.
	OriginSync
)

// Change describes one committed write.
type Change struct {
	Collections []string
	Origin      Origin
}

// Persister is the durable backing of the store.
type Persister interface {
	Load(ctx context.Context, collection string) ([]models.Record, bool, error)
	Save(ctx context.Context, collections map[string][]models.Record) error
}

type Store struct {
	mu      sync.RWMutex
	cols    map[string][]models.Record
	gen     uint64 // bumped by every whole-collection replace
	persist Persister
	clock   timex.Clock
	log     logging.Logger

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

func New(p Persister, clock timex.Clock, log logging.Logger) *Store {
	s := &Store{
		cols:    make(map[string][]models.Record, len(Collections)),
		persist: p,
		clock:   clock,
		log:     log.With("module", "store"),
		subs:    make(map[int]func(Change)),
	}
	for _, c := range Collections {
		s.cols[c] = []models.Record{}
	}
	return s
}

// Open loads persisted collections. A collection that was never saved is
// initialized from seed. Loaded records are repaired so that updatedAt is
// set and never precedes createdAt.
func (s *Store) Open(ctx context.Context, seed models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	dirty := map[string][]models.Record{}

	for _, c := range Collections {
		recs, initialized, err := s.persist.Load(ctx, c)
		if err != nil {
			return err
		}
		if !initialized {
			recs = models.CloneAll(seedFor(seed, c))
			dirty[c] = recs
			s.log.Info(ctx, "seeding collection", "collection", c, "count", len(recs))
		} else if n := migrate(recs, now); n > 0 {
			dirty[c] = recs
			s.log.Info(ctx, "repaired timestamps", "collection", c, "count", n)
		}
		s.cols[c] = recs
	}

	if len(dirty) > 0 {
		if err := s.persist.Save(ctx, dirty); err != nil {
			return fmt.Errorf("%w: %w", ErrPersist, err)
		}
	}
	return nil
}

func seedFor(seed models.Snapshot, collection string) []models.Record {
	if collection == common.CollectionHabits {
		return seed.Habits
	}
	return seed.Tasks
}

// migrate fills missing timestamps in place and returns how many records it touched.
func migrate(recs []models.Record, now time.Time) int {
	n := 0
	for i := range recs {
		r := &recs[i]
		touched := false
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = r.CreatedAt
			if r.UpdatedAt.IsZero() {
				r.UpdatedAt = now
			}
			touched = true
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = r.UpdatedAt
			touched = true
		}
		if r.UpdatedAt.Before(r.CreatedAt) {
			r.UpdatedAt = r.CreatedAt
			touched = true
		}
		if touched {
			n++
		}
	}
	return n
}

// Subscribe registers fn to be called after every committed change. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(ch Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ch)
	}
}

// commitLocked persists next and swaps it in. s.mu must be held.
func (s *Store) commitLocked(ctx context.Context, next map[string][]models.Record) error {
	if err := s.persist.Save(ctx, next); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	for c, recs := range next {
		s.cols[c] = recs
	}
	return nil
}

func changed(next map[string][]models.Record) []string {
	out := make([]string, 0, len(next))
	for _, c := range Collections {
		if _, ok := next[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

func checkCollection(c string) error {
	if !common.IsKnownCollection(c) {
		return fmt.Errorf("%w: %q", common.ErrUnknownCollection, c)
	}
	return nil
}

func indexOf(recs []models.Record, id string) int {
	return slices.IndexFunc(recs, func(r models.Record) bool { return r.ID == id })
}
