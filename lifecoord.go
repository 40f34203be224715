// Package lifecoord provides a process-wide coordinator for a managed
// singleton resource with asynchronous initialization and shutdown.
//
// Example usage:
//
//	if err := lifecoord.Configure(cfg); err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := lifecoord.Initialize().Wait(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer lifecoord.Shutdown()
//
// Libraries and tests should create their own coordinator with
// coordinator.New instead of sharing the default one.
package lifecoord

import (
	"context"
	"sync"

	"github.com/bft-labs/lifecoord/pkg/coordinator"
	"github.com/bft-labs/lifecoord/pkg/future"
	"github.com/bft-labs/lifecoord/pkg/manager"
)

// Config describes how to build the manager instance.
type Config = manager.Config

var (
	defaultOnce  sync.Once
	defaultCoord *coordinator.Coordinator
	defaultOpts  []coordinator.Option
	optsMu       sync.Mutex
)

// SetDefaultOptions sets the options used to build the default
// coordinator. It has no effect once Default has been called.
func SetDefaultOptions(opts ...coordinator.Option) {
	optsMu.Lock()
	defer optsMu.Unlock()
	defaultOpts = opts
}

// Default returns the process-wide coordinator, creating it on first use.
func Default() *coordinator.Coordinator {
	defaultOnce.Do(func() {
		optsMu.Lock()
		opts := defaultOpts
		optsMu.Unlock()
		defaultCoord = coordinator.New(opts...)
	})
	return defaultCoord
}

// Configure accepts cfg on the default coordinator.
func Configure(cfg Config) error {
	return Default().Configure(cfg)
}

// Initialize initializes the default coordinator's instance.
func Initialize() *future.Future[future.Void] {
	return Default().Initialize()
}

// Shutdown shuts down the default coordinator's instance.
func Shutdown() *future.Future[future.Void] {
	return Default().Shutdown()
}

// IsInitialized reports whether the default coordinator is initialized.
func IsInitialized() bool {
	return Default().IsInitialized()
}

// Do runs fn on the default coordinator's control loop.
func Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return Default().Do(ctx, fn)
}
