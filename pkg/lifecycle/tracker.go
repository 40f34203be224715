package lifecycle

import (
	"fmt"
	"sync"

	"github.com/bft-labs/lifecoord/internal/domain"
	"github.com/bft-labs/lifecoord/pkg/log"
)

// ErrInvalidTransition is returned for transitions that would move backwards.
var ErrInvalidTransition = domain.ErrInvalidTransition

// Tracker guards the init state of one manager instance.
type Tracker struct {
	mu      sync.RWMutex
	state   InitState
	logger  log.Logger
	emitter EventEmitter
}

// NewTracker creates a tracker in StateUninitialized.
func NewTracker(logger log.Logger, emitter EventEmitter) *Tracker {
	return &Tracker{
		state:   StateUninitialized,
		logger:  log.OrNoop(logger),
		emitter: emitter,
	}
}

// State returns the current state.
func (t *Tracker) State() InitState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Is reports whether the current state equals s.
func (t *Tracker) Is(s InitState) bool {
	return t.State() == s
}

// TransitionTo moves to newState, or returns ErrInvalidTransition.
func (t *Tracker) TransitionTo(newState InitState, reason string) error {
	t.mu.Lock()
	oldState := t.state
	if !CanTransition(oldState, newState) {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, oldState, newState)
	}
	t.state = newState
	t.mu.Unlock()

	t.notify(oldState, newState, reason)
	return nil
}

// Swap atomically applies candidates[current] when it is a valid edge.
// It returns the state observed before the swap and whether a transition
// happened.
func (t *Tracker) Swap(candidates map[InitState]InitState, reason string) (InitState, bool) {
	t.mu.Lock()
	oldState := t.state
	newState, ok := candidates[oldState]
	if !ok || !CanTransition(oldState, newState) {
		t.mu.Unlock()
		return oldState, false
	}
	t.state = newState
	t.mu.Unlock()

	t.notify(oldState, newState, reason)
	return oldState, true
}

// notify runs outside of the lock.
func (t *Tracker) notify(oldState, newState InitState, reason string) {
	if t.emitter != nil {
		t.emitter.OnStateChange(oldState, newState, reason)
	}
	t.logger.Info("state transition",
		log.String("from", oldState.String()),
		log.String("to", newState.String()),
		log.String("reason", reason),
	)
}
