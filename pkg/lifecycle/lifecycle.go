package lifecycle

// InitState represents the initialization state of a manager instance.
// States only move forward; an instance is never resurrected.
type InitState int

const (
	StateUninitialized InitState = iota
	StateInitializing
	StateInitialized
	StateShutdown
)

// String returns a human-readable representation of the state.
func (s InitState) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateInitializing:
		return "Initializing"
	case StateInitialized:
		return "Initialized"
	case StateShutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

// EventEmitter is called when an init state changes.
type EventEmitter interface {
	OnStateChange(previous, current InitState, reason string)
}

// EmitterFunc adapts a function to EventEmitter.
type EmitterFunc func(previous, current InitState, reason string)

// OnStateChange calls f.
func (f EmitterFunc) OnStateChange(previous, current InitState, reason string) {
	f(previous, current, reason)
}

// validTransitions lists the forward edges of the state machine.
var validTransitions = map[InitState][]InitState{
	StateUninitialized: {StateInitializing, StateShutdown},
	StateInitializing:  {StateInitialized},
	StateInitialized:   {StateShutdown},
}

// CanTransition reports whether from -> to is a valid edge.
func CanTransition(from, to InitState) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
