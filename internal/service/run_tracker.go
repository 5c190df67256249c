package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/apperrors"
)

// RunTracker orders the runs of each session. Starting a run cancels the
// session's previous in-flight run, and only the newest generation may publish.
//
// Generations come from one counter shared by all sessions and are never
// reused, so a session's entry can be dropped once its newest run finishes
// without a cancelled straggler ever matching a later run.
type RunTracker struct {
	mu       sync.Mutex
	next     uint64
	sessions map[string]*sessionRuns
}

type sessionRuns struct {
	generation uint64
	cancel     context.CancelFunc
}

// NewRunTracker creates an empty RunTracker.
func NewRunTracker() *RunTracker {
	return &RunTracker{sessions: make(map[string]*sessionRuns)}
}

// Begin starts a new generation for sessionID. The returned context is
// cancelled when a newer run begins or when release is called; release must
// be called once the run is finished.
func (t *RunTracker) Begin(ctx context.Context, sessionID string) (runCtx context.Context, generation uint64, release func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[sessionID]
	if !ok {
		s = &sessionRuns{}
		t.sessions[sessionID] = s
	}
	if s.cancel != nil {
		s.cancel()
	}

	t.next++
	s.generation = t.next
	generation = s.generation
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	release = func() {
		t.mu.Lock()
		if cur, ok := t.sessions[sessionID]; ok && cur == s && s.generation == generation {
			delete(t.sessions, sessionID)
		}
		t.mu.Unlock()
		cancel()
	}
	return runCtx, generation, release
}

// IsCurrent reports whether generation is the newest run of sessionID.
func (t *RunTracker) IsCurrent(sessionID string, generation uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[sessionID]
	return ok && s.generation == generation
}

// Generation returns the generation of the session's in-flight run, 0 if none.
func (t *RunTracker) Generation(sessionID string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sessions[sessionID]; ok {
		return s.generation
	}
	return 0
}

// Publish calls store only while generation is still the newest run of the
// session, so a superseded run can never overwrite a newer result.
func (t *RunTracker) Publish(sessionID string, generation uint64, store func() error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[sessionID]
	if !ok || s.generation != generation {
		return fmt.Errorf("%w: session %s generation %d", apperrors.ErrStaleRun, sessionID, generation)
	}
	return store()
}

// ActiveSessions returns the number of sessions with a run in flight.
func (t *RunTracker) ActiveSessions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}
