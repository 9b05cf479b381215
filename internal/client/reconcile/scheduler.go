package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/focussync/internal/client/store"
	"github.com/dmitrijs2005/focussync/internal/logging"
)

// Scheduler decides when cycles run. Local mutations (re)start a quiet
// period timer and a cycle fires once it elapses; focus runs a cycle at
// once; sign-in goes through the Guard. There is no periodic timer.
type Scheduler struct {
	runner Runner
	guard  *Guard
	quiet  time.Duration
	log    logging.Logger

	mu      sync.Mutex
	ctx     context.Context
	timer   *time.Timer
	gen     uint64
	stopped bool
	wg      sync.WaitGroup
}

// NewScheduler returns a scheduler whose debounced cycles run under ctx.
func NewScheduler(ctx context.Context, runner Runner, guard *Guard, quiet time.Duration, log logging.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		guard:  guard,
		quiet:  quiet,
		ctx:    ctx,
		log:    log.With("module", "scheduler"),
	}
}

// Watch feeds local store mutations into Notify. Writes made by
// reconciliation itself are ignored.
func (s *Scheduler) Watch(st *store.Store) func() {
	return st.Subscribe(func(c store.Change) {
		if c.Origin == store.OriginLocal {
			s.Notify()
		}
	})
}

// Notify restarts the quiet period.
func (s *Scheduler) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(s.quiet, func() { s.fire(gen) })
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if s.stopped || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.wg.Add(1)
	ctx := s.ctx
	s.mu.Unlock()
	defer s.wg.Done()

	if err := s.runner.Run(ctx, nil); err != nil {
		s.log.Warn(ctx, "debounced sync failed", "error", err)
	}
}

// Focus runs a cycle immediately, independent of the quiet period.
func (s *Scheduler) Focus(ctx context.Context) error {
	return s.runner.Run(ctx, nil)
}

// SignIn runs the sign-in guard, bypassing the quiet period.
func (s *Scheduler) SignIn(ctx context.Context) error {
	if s.guard == nil {
		return s.runner.Run(ctx, nil)
	}
	return s.guard.Run(ctx)
}

// Pending reports whether a debounced cycle is waiting.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Stop cancels a pending debounced cycle and waits for a running one.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}
