package reconcile

import (
	"context"

	"github.com/dmitrijs2005/focussync/internal/client/models"
	"github.com/dmitrijs2005/focussync/internal/client/store"
	"github.com/dmitrijs2005/focussync/internal/logging"
)

// Fingerprint identifies untouched factory demo data by its ids.
type Fingerprint struct {
	TaskIDs  []string
	HabitIDs []string
}

func FingerprintOf(seed models.Seed) Fingerprint {
	fp := Fingerprint{}
	for _, t := range seed.Tasks {
		fp.TaskIDs = append(fp.TaskIDs, t.ID)
	}
	for _, h := range seed.Habits {
		fp.HabitIDs = append(fp.HabitIDs, h.ID)
	}
	return fp
}

// Matches reports whether snap holds exactly the seed records and none of
// them was completed, deleted or edited since it was created.
func (f Fingerprint) Matches(snap models.Snapshot) bool {
	if !sameIDs(snap.Tasks, f.TaskIDs) || !sameIDs(snap.Habits, f.HabitIDs) {
		return false
	}
	for _, r := range snap.Tasks {
		t, err := models.Decode[models.Task](r)
		if err != nil || t.Completed || !untouched(r) {
			return false
		}
	}
	for _, r := range snap.Habits {
		h, err := models.Decode[models.Habit](r)
		if err != nil || len(h.CompletedDates) > 0 || !untouched(r) {
			return false
		}
	}
	return true
}

func untouched(r models.Record) bool {
	return !r.Deleted && r.UpdatedAt.Equal(r.CreatedAt)
}

func sameIDs(recs []models.Record, ids []string) bool {
	if len(recs) != len(ids) {
		return false
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	for _, r := range recs {
		if _, ok := want[r.ID]; !ok {
			return false
		}
		delete(want, r.ID)
	}
	return true
}

// Runner runs one reconciliation cycle.
type Runner interface {
	Run(ctx context.Context, override *models.Snapshot) error
}

// Guard is the sign-in path: it discards untouched demo data so that it is
// not uploaded into the user's account, then reconciles.
type Guard struct {
	store  *store.Store
	runner Runner
	fp     Fingerprint
	log    logging.Logger
}

func NewGuard(st *store.Store, runner Runner, fp Fingerprint, log logging.Logger) *Guard {
	return &Guard{store: st, runner: runner, fp: fp, log: log.With("module", "guard")}
}

// Run clears the store if it still holds pristine demo data and reconciles
// with the cleared snapshot passed explicitly; otherwise it runs a normal
// cycle.
func (g *Guard) Run(ctx context.Context) error {
	empty := models.Snapshot{Tasks: []models.Record{}, Habits: []models.Record{}}

	cleared, err := g.store.ReplaceIf(ctx, g.fp.Matches, empty, store.OriginSync)
	if err != nil {
		g.log.Error(ctx, "failed to discard demo data", "error", err)
		return err
	}
	if !cleared {
		return g.runner.Run(ctx, nil)
	}

	g.log.Info(ctx, "discarded untouched demo data before first sync")
	return g.runner.Run(ctx, &empty)
}
