package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions of the coordinator.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyConfigured is returned when Configure is called twice without
	// a completed shutdown in between.
	ErrAlreadyConfigured = errors.New("lifecoord: already configured, shutdown must be called before reconfiguring")

	// ErrNotConfigured is returned when Initialize finds neither an accepted
	// configuration nor a default configuration provider.
	ErrNotConfigured = errors.New("lifecoord: not configured")

	// ErrNotInitialized is returned by binding and query operations issued
	// before initialization has completed.
	ErrNotInitialized = errors.New("lifecoord: not initialized")

	// ErrNoMatchingResource is returned when a selector matches no available resource.
	ErrNoMatchingResource = errors.New("lifecoord: no resource matches the selector")

	// ErrAlreadyBoundElsewhere is returned when a use case is already bound to
	// a different binding record.
	ErrAlreadyBoundElsewhere = errors.New("lifecoord: use case already bound to a different lifecycle source")

	// ErrWrongThread is returned when a control-thread operation is invoked
	// from outside the control loop.
	ErrWrongThread = errors.New("lifecoord: must be called on the control loop")

	// ErrInvalidConfig is returned when a configuration lacks a required provider.
	ErrInvalidConfig = errors.New("lifecoord: invalid configuration")

	// ErrInvalidTransition is returned when an init-state transition would move backwards.
	ErrInvalidTransition = errors.New("lifecoord: invalid state transition")

	// ErrRejected is returned by an executor that has been shut down.
	ErrRejected = errors.New("lifecoord: executor rejected task")

	// ErrUseCaseLimit is returned when a resource cannot host more use cases.
	ErrUseCaseLimit = errors.New("lifecoord: resource use case limit exceeded")

	// ErrUnknownResource is returned when a resource ID is not in the repository.
	ErrUnknownResource = errors.New("lifecoord: unknown resource")

	// ErrLoopStopped is returned when work is posted to a stopped control loop.
	ErrLoopStopped = errors.New("lifecoord: control loop stopped")
)

// InitializationError reports why a manager instance failed to initialize.
type InitializationError struct {
	Cause error
}

// NewInitializationError wraps cause. A nil cause yields nil.
func NewInitializationError(cause error) error {
	if cause == nil {
		return nil
	}
	var ie *InitializationError
	if errors.As(cause, &ie) {
		return cause
	}
	return &InitializationError{Cause: cause}
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("lifecoord: initialization failed: %v", e.Cause)
}

// Unwrap returns the underlying cause.
func (e *InitializationError) Unwrap() error {
	return e.Cause
}
