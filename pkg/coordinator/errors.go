package coordinator

import "github.com/bft-labs/lifecoord/internal/domain"

// Errors returned by the coordinator. Check them with errors.Is.
var (
	ErrAlreadyConfigured     = domain.ErrAlreadyConfigured
	ErrNotConfigured         = domain.ErrNotConfigured
	ErrNotInitialized        = domain.ErrNotInitialized
	ErrNoMatchingResource    = domain.ErrNoMatchingResource
	ErrAlreadyBoundElsewhere = domain.ErrAlreadyBoundElsewhere
	ErrWrongThread           = domain.ErrWrongThread
	ErrInvalidConfig         = domain.ErrInvalidConfig
	ErrUseCaseLimit          = domain.ErrUseCaseLimit
	ErrUnknownResource       = domain.ErrUnknownResource
)

// InitializationError wraps the cause of a failed initialization.
// Use errors.As to retrieve it from an init future.
type InitializationError = domain.InitializationError
