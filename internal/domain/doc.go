// Package domain holds the error taxonomy shared by every lifecoord package.
//
// It has no dependencies on other lifecoord packages so that low-level
// building blocks (executor, control loop, resource repository) and the
// coordinator can report the same sentinel values.
//
// # Errors
//
//   - [ErrAlreadyConfigured], [ErrNotConfigured]: configuration cycle
//   - [ErrNotInitialized], [InitializationError]: initialization
//   - [ErrNoMatchingResource], [ErrAlreadyBoundElsewhere], [ErrUseCaseLimit]: binding validation
//   - [ErrWrongThread], [ErrLoopStopped]: control loop discipline
package domain
