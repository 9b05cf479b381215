package reconcile

import (
	"sync"
	"time"
)

// Status is the sync indicator exposed to the presentation layer.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusSaved   Status = "saved"
	StatusError   Status = "error"
)

// StatusSignal holds the current Status and notifies subscribers on every
// transition. Terminal states fall back to idle after the display interval
// unless a newer cycle has started in the meantime.
type StatusSignal struct {
	mu      sync.Mutex
	status  Status
	gen     uint64
	display time.Duration
	reset   *time.Timer

	subs    map[int]func(Status)
	nextSub int
}

func NewStatusSignal(display time.Duration) *StatusSignal {
	return &StatusSignal{status: StatusIdle, display: display, subs: map[int]func(Status){}}
}

// Current returns the status at the time of the call.
func (s *StatusSignal) Current() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Subscribe registers fn for every transition; the returned func removes it.
func (s *StatusSignal) Subscribe(fn func(Status)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// begin moves to syncing and returns the generation that owns the status.
func (s *StatusSignal) begin() uint64 {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.reset != nil {
		s.reset.Stop()
		s.reset = nil
	}
	fns := s.setLocked(StatusSyncing)
	s.mu.Unlock()

	emit(fns, StatusSyncing)
	return gen
}

// finish sets a terminal status for gen and schedules the return to idle.
func (s *StatusSignal) finish(gen uint64, st Status) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	fns := s.setLocked(st)
	s.reset = time.AfterFunc(s.display, func() { s.toIdle(gen) })
	s.mu.Unlock()

	emit(fns, st)
}

func (s *StatusSignal) toIdle(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.status == StatusSyncing {
		s.mu.Unlock()
		return
	}
	s.reset = nil
	fns := s.setLocked(StatusIdle)
	s.mu.Unlock()

	emit(fns, StatusIdle)
}

func (s *StatusSignal) setLocked(st Status) []func(Status) {
	s.status = st
	fns := make([]func(Status), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return fns
}

func emit(fns []func(Status), st Status) {
	for _, fn := range fns {
		fn(st)
	}
}
