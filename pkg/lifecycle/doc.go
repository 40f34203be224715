// Package lifecycle provides the init-state machine of a manager instance.
//
// # State Machine
//
// Valid state transitions:
//   - Uninitialized -> Initializing, Shutdown
//   - Initializing -> Initialized
//   - Initialized -> Shutdown
//
// Initialized is reached even when initialization fails, so that teardown
// always has a well-defined starting point. Shutdown is terminal.
//
// # Usage
//
//	tracker := lifecycle.NewTracker(logger, emitter)
//	if err := tracker.TransitionTo(lifecycle.StateInitializing, "Init() called"); err != nil {
//	    return err
//	}
package lifecycle
