package manager

import (
	"fmt"

	"github.com/bft-labs/lifecoord/internal/domain"
	"github.com/bft-labs/lifecoord/pkg/future"
	"github.com/bft-labs/lifecoord/pkg/log"
	"github.com/bft-labs/lifecoord/pkg/resource"
	"github.com/bft-labs/lifecoord/pkg/usecase"
)

// ErrInvalidConfig is returned when a configuration is missing a provider.
var ErrInvalidConfig = domain.ErrInvalidConfig

// Config describes how to build a manager instance.
// A Config is treated as immutable once handed to a coordinator.
type Config struct {
	// Name identifies the configuration in logs.
	Name string

	// ResourceFactory builds the resource factory during initialization.
	// Required.
	ResourceFactory resource.FactoryProvider

	// Defaults builds the default-options factory during initialization.
	// Required.
	Defaults usecase.DefaultsProvider

	// Executor runs initialization and claim changes. When nil the manager
	// owns a worker pool that is resized to the number of resources and
	// released on shutdown. An external executor is never shut down.
	Executor future.Executor

	// Workers is the initial size of the owned pool.
	// Default: 1
	Workers int

	// Plugins are initialized in order after the resources are ready.
	Plugins []Plugin

	// Logger overrides the coordinator logger for this instance.
	Logger log.Logger
}

// Validate checks that the required providers are present.
func (c Config) Validate() error {
	if c.ResourceFactory == nil {
		return fmt.Errorf("%w: resource factory provider is required", ErrInvalidConfig)
	}
	if c.Defaults == nil {
		return fmt.Errorf("%w: defaults provider is required", ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Option adjusts a Config.
type Option func(*Config)

// WithPlugin appends a plugin. Plugins are initialized in registration
// order and shut down in reverse order.
func WithPlugin(p Plugin) Option {
	return func(c *Config) {
		c.Plugins = append(c.Plugins, p)
	}
}

// With returns a copy of c with opts applied.
func (c Config) With(opts ...Option) Config {
	c.Plugins = append([]Plugin(nil), c.Plugins...)
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
