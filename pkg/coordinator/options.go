package coordinator

import (
	"github.com/bft-labs/lifecoord/pkg/control"
	"github.com/bft-labs/lifecoord/pkg/lifecycle"
	"github.com/bft-labs/lifecoord/pkg/log"
	"github.com/bft-labs/lifecoord/pkg/manager"
)

// ConfigProvider supplies a configuration when Initialize runs without a
// prior Configure.
type ConfigProvider func() (manager.Config, error)

// Option configures optional behavior of a Coordinator.
type Option func(*options)

type options struct {
	logger         log.Logger
	loop           *control.Loop
	emitter        lifecycle.EventEmitter
	configProvider ConfigProvider
}

func defaultOptions() options {
	return options{logger: log.NewNoopLogger()}
}

// WithLogger sets the logger used by the coordinator and the managers it
// creates. If not provided, a no-op logger is used.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithControlLoop makes the coordinator use an existing control loop.
// The caller keeps ownership and must start and stop it. If not provided,
// the coordinator starts its own loop and stops it in Close.
func WithControlLoop(loop *control.Loop) Option {
	return func(o *options) {
		o.loop = loop
	}
}

// WithEventEmitter registers a listener for manager init state changes.
// Notifications happen synchronously on the goroutine changing the state.
func WithEventEmitter(emitter lifecycle.EventEmitter) Option {
	return func(o *options) {
		o.emitter = emitter
	}
}

// WithDefaultConfigProvider sets the fallback used by Initialize and
// Instance when no configuration was accepted.
func WithDefaultConfigProvider(provider ConfigProvider) Option {
	return func(o *options) {
		o.configProvider = provider
	}
}
