package service

import (
	"errors"
	"sync"
)

// ErrRunInFlight is returned when a workflow is already being run.
var ErrRunInFlight = errors.New("workflow is already running")

// RunGuard tracks which workflows have a run request outstanding. A workflow
// can have at most one run in flight; different workflows run independently.
type RunGuard struct {
	mu       sync.Mutex
	inFlight map[int64]struct{}
}

// NewRunGuard creates an empty guard.
func NewRunGuard() *RunGuard {
	return &RunGuard{inFlight: make(map[int64]struct{})}
}

// Acquire marks id as running. The returned release func must be called once
// the run settles; calling it more than once is harmless.
func (g *RunGuard) Acquire(id int64) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inFlight[id]; busy {
		return nil, ErrRunInFlight
	}
	g.inFlight[id] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inFlight, id)
			g.mu.Unlock()
		})
	}, nil
}

// Running reports whether id has a run in flight.
func (g *RunGuard) Running(id int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inFlight[id]
	return busy
}

// Snapshot returns the ids currently running.
func (g *RunGuard) Snapshot() map[int64]bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[int64]bool, len(g.inFlight))
	for id := range g.inFlight {
		out[id] = true
	}
	return out
}
