package manager

import (
	"context"

	"github.com/bft-labs/lifecoord/pkg/future"
	"github.com/bft-labs/lifecoord/pkg/log"
	"github.com/bft-labs/lifecoord/pkg/resource"
)

// Plugin extends a manager instance with optional behavior.
// Plugins are initialized in registration order once the resource
// repository is ready and shut down in reverse order during teardown.
type Plugin interface {
	// Name returns the plugin identifier used in logs.
	Name() string

	// Initialize starts the plugin. The context is cancelled when the
	// manager begins shutting down. Returning an error fails initialization.
	Initialize(ctx context.Context, pc PluginContext) error

	// Shutdown stops the plugin and waits for its goroutines.
	Shutdown(ctx context.Context) error
}

// PluginContext gives plugins access to the manager internals they may use.
type PluginContext struct {
	// Name is the manager configuration name.
	Name string

	// Resources is the manager's resource repository.
	Resources *resource.Repository

	// Refresh re-queries the resource factory and drops binding records
	// built on resources that disappeared. Prefer it over Resources.Refresh.
	Refresh func(ctx context.Context) error

	// Executor runs background work for the manager instance.
	Executor future.Executor

	Logger log.Logger
}

// BasePlugin provides no-op implementations for embedding.
type BasePlugin struct{}

func (BasePlugin) Name() string                                    { return "base" }
func (BasePlugin) Initialize(context.Context, PluginContext) error { return nil }
func (BasePlugin) Shutdown(context.Context) error                  { return nil }

var _ Plugin = BasePlugin{}
