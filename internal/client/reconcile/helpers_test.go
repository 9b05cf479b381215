package reconcile

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/focussync/internal/client/models"
	"github.com/dmitrijs2005/focussync/internal/client/rowmap"
	"github.com/dmitrijs2005/focussync/internal/client/store"
	"github.com/dmitrijs2005/focussync/internal/logging"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

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
	mu   sync.Mutex
	data map[string][]models.Record
	fail error
}

func (m *memPersister) Load(_ context.Context, c string) ([]models.Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs, ok := m.data[c]
	return models.CloneAll(recs), ok, nil
}

func (m *memPersister) Save(_ context.Context, cols map[string][]models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	for c, recs := range cols {
		m.data[c] = models.CloneAll(recs)
	}
	return nil
}

type memMark struct {
	mu   sync.Mutex
	mark *time.Time
	fail error
}

func (m *memMark) Load(context.Context) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mark == nil {
		return nil, nil
	}
	t := *m.mark
	return &t, nil
}

func (m *memMark) Store(_ context.Context, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.mark = &t
	return nil
}

func (m *memMark) get() *time.Time {
	t, _ := m.Load(context.Background())
	return t
}

type fakeIdentity struct{ userID string }

func (f fakeIdentity) CurrentUser(context.Context) (string, bool) {
	return f.userID, f.userID != ""
}

type upsertCall struct {
	collection string
	rows       []rowmap.Row
}

// fakeRemote behaves like the server: rows are kept per collection with
// last-write-wins on updated_at.
type fakeRemote struct {
	mu       sync.Mutex
	rows     map[string]map[string]rowmap.Row
	extra    map[string][]rowmap.Row
	upserts  []upsertCall
	fetches  []*time.Time
	pushErr  error
	pullErr  error
	onFetch  func()
	inflight int
	maxIn    int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{rows: map[string]map[string]rowmap.Row{}, extra: map[string][]rowmap.Row{}}
}

func (f *fakeRemote) enter() {
	f.mu.Lock()
	f.inflight++
	if f.inflight > f.maxIn {
		f.maxIn = f.inflight
	}
	f.mu.Unlock()
}

func (f *fakeRemote) leave() {
	f.mu.Lock()
	f.inflight--
	f.mu.Unlock()
}

func (f *fakeRemote) UpsertRows(_ context.Context, collection string, rows []rowmap.Row) error {
	f.enter()
	defer f.leave()
	time.Sleep(time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, upsertCall{collection: collection, rows: rows})
	if f.pushErr != nil {
		return f.pushErr
	}
	if f.rows[collection] == nil {
		f.rows[collection] = map[string]rowmap.Row{}
	}
	for _, row := range rows {
		in, err := rowmap.Decode(row)
		if err != nil {
			continue
		}
		if cur, ok := f.rows[collection][in.ID]; ok {
			old, _ := rowmap.Decode(cur)
			if old.UpdatedAt.After(in.UpdatedAt) {
				continue
			}
		}
		f.rows[collection][in.ID] = row
	}
	return nil
}

func (f *fakeRemote) FetchRows(_ context.Context, collection string, since *time.Time) ([]rowmap.Row, error) {
	f.enter()
	defer f.leave()

	f.mu.Lock()
	hook := f.onFetch
	f.fetches = append(f.fetches, since)
	if f.pullErr != nil {
		f.mu.Unlock()
		return nil, f.pullErr
	}
	out := append([]rowmap.Row{}, f.extra[collection]...)
	for _, row := range f.rows[collection] {
		r, _ := rowmap.Decode(row)
		if since == nil || r.UpdatedAt.After(*since) {
			out = append(out, row)
		}
	}
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

// put stores a record on the remote side as if another device pushed it.
func (f *fakeRemote) put(t *testing.T, collection string, r models.Record) {
	t.Helper()
	row, err := rowmap.Encode(r, "u1")
	require.NoError(t, err)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rows[collection] == nil {
		f.rows[collection] = map[string]rowmap.Row{}
	}
	f.rows[collection][r.ID] = row
}

func (f *fakeRemote) upsertCalls() []upsertCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]upsertCall(nil), f.upserts...)
}

func title(t string) json.RawMessage {
	b, _ := json.Marshal(models.Task{Title: t, Category: models.CategoryInbox})
	return b
}

func taskTitle(t *testing.T, r models.Record) string {
	t.Helper()
	task, err := models.Decode[models.Task](r)
	require.NoError(t, err)
	return task.Title
}

type harness struct {
	store   *store.Store
	remote  *fakeRemote
	marks   *memMark
	status  *StatusSignal
	clock   *testClock
	rec     *Reconciler
	persist *memPersister
}

func newHarness(t *testing.T, userID string) *harness {
	t.Helper()
	clk := &testClock{now: t0}
	p := &memPersister{data: map[string][]models.Record{"tasks": {}, "habits": {}}}
	st := store.New(p, clk, logging.NewNopLogger())
	require.NoError(t, st.Open(context.Background(), models.Snapshot{}))

	h := &harness{
		store:   st,
		remote:  newFakeRemote(),
		marks:   &memMark{},
		status:  NewStatusSignal(20 * time.Millisecond),
		clock:   clk,
		persist: p,
	}
	h.rec = NewReconciler(st, h.remote, fakeIdentity{userID: userID}, h.marks, h.status, clk, time.Second, logging.NewNopLogger())
	return h
}
