package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/focussync/internal/client/models"
	"github.com/dmitrijs2005/focussync/internal/common"
	"github.com/dmitrijs2005/focussync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memPersister struct {
	mu          sync.Mutex
	data        map[string][]models.Record
	initialized map[string]bool
	saves       int
	failSave    error
	failLoad    error
}

func newMemPersister() *memPersister {
	return &memPersister{data: map[string][]models.Record{}, initialized: map[string]bool{}}
}

func (m *memPersister) Load(_ context.Context, c string) ([]models.Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLoad != nil {
		return nil, false, m.failLoad
	}
	return models.CloneAll(m.data[c]), m.initialized[c], nil
}

func (m *memPersister) Save(_ context.Context, cols map[string][]models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}
	m.saves++
	for c, recs := range cols {
		m.data[c] = models.CloneAll(recs)
		m.initialized[c] = true
	}
	return nil
}

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func payload(title string) json.RawMessage {
	return json.RawMessage(`{"title":"` + title + `"}`)
}

func newStore(t *testing.T) (*Store, *memPersister, *testClock) {
	t.Helper()
	p := newMemPersister()
	clk := &testClock{now: t0}
	s := New(p, clk, logging.NewNopLogger())
	require.NoError(t, s.Open(context.Background(), models.Snapshot{}))
	return s, p, clk
}

func TestOpen_SeedsOnlyOnFirstStart(t *testing.T) {
	p := newMemPersister()
	clk := &testClock{now: t0}
	seed := models.Snapshot{
		Tasks:  []models.Record{{ID: "1", CreatedAt: t0, UpdatedAt: t0, Data: payload("a")}},
		Habits: []models.Record{{ID: "h1", CreatedAt: t0, UpdatedAt: t0, Data: payload("b")}},
	}

	s := New(p, clk, logging.NewNopLogger())
	require.NoError(t, s.Open(context.Background(), seed))
	assert.Len(t, s.Raw(common.CollectionTasks), 1)
	assert.True(t, p.initialized[common.CollectionHabits])

	// user empties the list; a restart must not bring the seed back
	require.NoError(t, s.Replace(context.Background(), models.Snapshot{}, OriginLocal))

	s2 := New(p, clk, logging.NewNopLogger())
	require.NoError(t, s2.Open(context.Background(), seed))
	assert.Empty(t, s2.Raw(common.CollectionTasks))
	assert.Empty(t, s2.Raw(common.CollectionHabits))
}

func TestOpen_RepairsTimestamps(t *testing.T) {
	p := newMemPersister()
	p.initialized[common.CollectionTasks] = true
	p.initialized[common.CollectionHabits] = true
	p.data[common.CollectionTasks] = []models.Record{
		{ID: "no-updated", CreatedAt: t0.Add(-time.Hour)},
		{ID: "backwards", CreatedAt: t0, UpdatedAt: t0.Add(-time.Minute)},
		{ID: "nothing"},
		{ID: "fine", CreatedAt: t0.Add(-time.Hour), UpdatedAt: t0},
	}

	s := New(p, &testClock{now: t0}, logging.NewNopLogger())
	require.NoError(t, s.Open(context.Background(), models.Snapshot{}))

	got := s.Raw(common.CollectionTasks)
	assert.Equal(t, t0.Add(-time.Hour), got[0].UpdatedAt)
	assert.Equal(t, t0, got[1].UpdatedAt)
	assert.Equal(t, t0, got[2].UpdatedAt)
	assert.Equal(t, t0, got[2].CreatedAt)
	for _, r := range got {
		assert.False(t, r.UpdatedAt.Before(r.CreatedAt), r.ID)
	}
	assert.Equal(t, 1, p.saves, "repairs are persisted once")
}

func TestOpen_LoadError(t *testing.T) {
	p := newMemPersister()
	p.failLoad = errors.New("disk")
	s := New(p, &testClock{now: t0}, logging.NewNopLogger())
	require.Error(t, s.Open(context.Background(), models.Snapshot{}))
}

func TestUpsert_StampsAndKeepsCreatedAt(t *testing.T) {
	s, _, clk := newStore(t)
	ctx := context.Background()

	r, err := s.Upsert(ctx, common.CollectionTasks, models.Record{Data: payload("x")})
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, t0, r.CreatedAt)
	assert.Equal(t, t0, r.UpdatedAt)

	clk.Advance(time.Minute)
	r2, err := s.Upsert(ctx, common.CollectionTasks, models.Record{ID: r.ID, CreatedAt: t0.Add(time.Hour), UpdatedAt: t0.Add(-time.Hour), Data: payload("y")})
	require.NoError(t, err)
	assert.Equal(t, t0, r2.CreatedAt, "createdAt is immutable")
	assert.Equal(t, t0.Add(time.Minute), r2.UpdatedAt, "caller supplied updatedAt is ignored")
	assert.Len(t, s.Raw(common.CollectionTasks), 1)
}

func TestUpdatedAtNeverDecreases(t *testing.T) {
	s, _, clk := newStore(t)
	ctx := context.Background()

	r, err := s.Upsert(ctx, common.CollectionTasks, models.Record{ID: "a", Data: payload("x")})
	require.NoError(t, err)

	clk.Advance(-time.Hour)
	r2, err := s.Update(ctx, common.CollectionTasks, "a", func(rec *models.Record) error {
		rec.Data = payload("y")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, r2.UpdatedAt.Before(r.UpdatedAt))
}

func TestUpdate_NotFoundAndFnError(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()

	_, err := s.Update(ctx, common.CollectionTasks, "missing", nil)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Upsert(ctx, common.CollectionTasks, models.Record{ID: "a"})
	require.NoError(t, err)
	boom := errors.New("boom")
	_, err = s.Update(ctx, common.CollectionTasks, "a", func(*models.Record) error { return boom })
	require.ErrorIs(t, err, boom)
}

func TestUnknownCollection(t *testing.T) {
	s, _, _ := newStore(t)
	_, err := s.Upsert(context.Background(), "notes", models.Record{})
	require.ErrorIs(t, err, common.ErrUnknownCollection)
}

func TestSoftDelete_TombstoneVisibility(t *testing.T) {
	s, _, clk := newStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := s.Upsert(ctx, common.CollectionTasks, models.Record{ID: id})
		require.NoError(t, err)
	}
	clk.Advance(time.Second)
	require.NoError(t, s.SoftDelete(ctx, common.CollectionTasks, "b"))

	active := s.Active(common.CollectionTasks)
	raw := s.Raw(common.CollectionTasks)
	assert.Len(t, active, 2)
	assert.Len(t, raw, 3)
	for _, r := range active {
		assert.False(t, r.Deleted)
	}
	b, ok := s.Get(common.CollectionTasks, "b")
	require.True(t, ok)
	assert.True(t, b.Deleted)
	assert.Equal(t, t0.Add(time.Second), b.UpdatedAt)

	clk.Advance(time.Second)
	require.NoError(t, s.SoftDelete(ctx, common.CollectionTasks, "b"))
	b, _ = s.Get(common.CollectionTasks, "b")
	assert.Equal(t, t0.Add(2*time.Second), b.UpdatedAt, "repeated delete re-stamps")

	require.ErrorIs(t, s.SoftDelete(ctx, common.CollectionTasks, "zzz"), ErrNotFound)
}

func TestReadsReturnCopies(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()
	_, err := s.Upsert(ctx, common.CollectionTasks, models.Record{ID: "a", Data: payload("x")})
	require.NoError(t, err)

	got := s.Raw(common.CollectionTasks)
	got[0].Deleted = true
	got[0].Data[2] = 'Z'

	again, _ := s.Get(common.CollectionTasks, "a")
	assert.False(t, again.Deleted)
	assert.Equal(t, `{"title":"x"}`, string(again.Data))
}

func TestPersistFailureLeavesStateUntouched(t *testing.T) {
	s, p, _ := newStore(t)
	ctx := context.Background()
	_, err := s.Upsert(ctx, common.CollectionTasks, models.Record{ID: "a"})
	require.NoError(t, err)

	p.failSave = errors.New("disk full")
	_, err = s.Upsert(ctx, common.CollectionTasks, models.Record{ID: "b"})
	require.ErrorIs(t, err, ErrPersist)
	assert.Len(t, s.Raw(common.CollectionTasks), 1)

	_, err = s.Commit(ctx, models.Snapshot{Tasks: []models.Record{{ID: "c", UpdatedAt: t0}}}, s.Generation(), false)
	require.ErrorIs(t, err, ErrPersist)
	_, ok := s.Get(common.CollectionTasks, "c")
	assert.False(t, ok)
}

func TestReposition(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		_, err := s.Upsert(ctx, common.CollectionTasks, models.Record{ID: id})
		require.NoError(t, err)
	}

	_, err := s.Reposition(ctx, common.CollectionTasks, "c", nil, func(others []models.Record) int {
		assert.Len(t, others, 2)
		return 0
	})
	require.NoError(t, err)

	ids := []string{}
	for _, r := range s.Raw(common.CollectionTasks) {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)

	_, err = s.Reposition(ctx, common.CollectionTasks, "c", nil, func([]models.Record) int { return 99 })
	require.NoError(t, err)
	assert.Equal(t, "c", s.Raw(common.CollectionTasks)[2].ID)
}

func TestCommit_LastWriteWins(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()
	_, err := s.Upsert(ctx, common.CollectionTasks, models.Record{ID: "a", Data: payload("local")})
	require.NoError(t, err)

	older := models.Record{ID: "a", CreatedAt: t0, UpdatedAt: t0.Add(-time.Minute), Data: payload("old")}
	n, err := s.Commit(ctx, models.Snapshot{Tasks: []models.Record{older}}, s.Generation(), false)
	require.NoError(t, err)
	assert.Zero(t, n)
	got, _ := s.Get(common.CollectionTasks, "a")
	assert.JSONEq(t, `{"title":"local"}`, string(got.Data))

	newer := models.Record{ID: "a", CreatedAt: t0, UpdatedAt: t0.Add(time.Minute), Data: payload("remote")}
	n, err = s.Commit(ctx, models.Snapshot{Tasks: []models.Record{newer}}, s.Generation(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, _ = s.Get(common.CollectionTasks, "a")
	assert.JSONEq(t, `{"title":"remote"}`, string(got.Data))
	assert.Equal(t, t0.Add(time.Minute), got.UpdatedAt, "commit does not re-stamp")
}

func TestCommit_ForceWritesWithoutChanges(t *testing.T) {
	s, p, _ := newStore(t)
	before := p.saves

	n, err := s.Commit(context.Background(), models.Snapshot{}, s.Generation(), false)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, before, p.saves)

	_, err = s.Commit(context.Background(), models.Snapshot{}, s.Generation(), true)
	require.NoError(t, err)
	assert.Equal(t, before+1, p.saves)
}

func TestSubscribe_ReportsOrigin(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()

	var got []Origin
	unsubscribe := s.Subscribe(func(c Change) { got = append(got, c.Origin) })

	_, err := s.Upsert(ctx, common.CollectionHabits, models.Record{ID: "h"})
	require.NoError(t, err)
	_, err = s.Commit(ctx, models.Snapshot{Habits: []models.Record{{ID: "h2", UpdatedAt: t0}}}, s.Generation(), false)
	require.NoError(t, err)

	unsubscribe()
	_, err = s.Upsert(ctx, common.CollectionHabits, models.Record{ID: "h3"})
	require.NoError(t, err)

	assert.Equal(t, []Origin{OriginLocal, OriginSync}, got)
}

func TestRestore_RestampsRecords(t *testing.T) {
	s, _, clk := newStore(t)
	ctx := context.Background()
	clk.Advance(time.Hour)

	backup := models.Snapshot{Tasks: []models.Record{{ID: "a", CreatedAt: t0.Add(-24 * time.Hour), UpdatedAt: t0.Add(-24 * time.Hour)}}}
	require.NoError(t, s.Restore(ctx, backup))

	got, ok := s.Get(common.CollectionTasks, "a")
	require.True(t, ok)
	assert.Equal(t, t0.Add(-24*time.Hour), got.CreatedAt)
	assert.Equal(t, t0.Add(time.Hour), got.UpdatedAt)
}

func TestReplaceIf(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()
	_, err := s.Upsert(ctx, common.CollectionTasks, models.Record{ID: "a"})
	require.NoError(t, err)

	ok, err := s.ReplaceIf(ctx, func(models.Snapshot) bool { return false }, models.Snapshot{}, OriginSync)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, s.Raw(common.CollectionTasks), 1)

	ok, err = s.ReplaceIf(ctx, func(cur models.Snapshot) bool { return len(cur.Tasks) == 1 }, models.Snapshot{}, OriginSync)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, s.Raw(common.CollectionTasks))
}

func TestCommit_SupersededByReplace(t *testing.T) {
	s, p, _ := newStore(t)
	ctx := context.Background()
	_, err := s.Upsert(ctx, common.CollectionTasks, models.Record{ID: "a", Data: payload("a")})
	require.NoError(t, err)

	snap, gen := s.VersionedSnapshot()
	require.Len(t, snap.Tasks, 1)

	require.NoError(t, s.Replace(ctx, models.Snapshot{Tasks: []models.Record{}, Habits: []models.Record{}}, OriginLocal))
	assert.NotEqual(t, gen, s.Generation())
	saves := p.saves

	incoming := models.Record{ID: "b", CreatedAt: t0, UpdatedAt: t0.Add(time.Hour)}
	n, err := s.Commit(ctx, models.Snapshot{Tasks: append(snap.Tasks, incoming)}, gen, true)
	require.ErrorIs(t, err, ErrSuperseded)
	assert.Zero(t, n)
	assert.Empty(t, s.Raw(common.CollectionTasks), "cleared records stay cleared")
	assert.Equal(t, saves, p.saves)

	n, err = s.Commit(ctx, models.Snapshot{Tasks: []models.Record{incoming}}, s.Generation(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGeneration_MovesOnWholeReplacesOnly(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()
	gen := s.Generation()

	_, err := s.Upsert(ctx, common.CollectionTasks, models.Record{ID: "a"})
	require.NoError(t, err)
	require.NoError(t, s.SoftDelete(ctx, common.CollectionTasks, "a"))
	_, err = s.Commit(ctx, models.Snapshot{Tasks: []models.Record{{ID: "r", UpdatedAt: t0}}}, gen, false)
	require.NoError(t, err)
	assert.Equal(t, gen, s.Generation())

	ok, err := s.ReplaceIf(ctx, func(models.Snapshot) bool { return false }, models.Snapshot{}, OriginSync)
	require.NoError(t, err)
	require.False(t, ok)
	assert.Equal(t, gen, s.Generation())

	ok, err = s.ReplaceIf(ctx, func(models.Snapshot) bool { return true }, models.Snapshot{}, OriginSync)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, gen+1, s.Generation())

	require.NoError(t, s.Restore(ctx, models.Snapshot{}))
	assert.Equal(t, gen+2, s.Generation())
}

func TestUpsertAt(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		_, err := s.Upsert(ctx, common.CollectionTasks, models.Record{ID: id})
		require.NoError(t, err)
	}

	_, err := s.UpsertAt(ctx, common.CollectionTasks, models.Record{ID: "c"}, 0)
	require.NoError(t, err)
	_, err = s.UpsertAt(ctx, common.CollectionTasks, models.Record{ID: "d"}, 99)
	require.NoError(t, err)
	_, err = s.UpsertAt(ctx, common.CollectionTasks, models.Record{ID: "a", Data: payload("moved?")}, 0)
	require.NoError(t, err)

	ids := []string{}
	for _, r := range s.Raw(common.CollectionTasks) {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"c", "a", "b", "d"}, ids, "existing records keep their place")
}
