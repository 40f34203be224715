package coordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/bft-labs/lifecoord/internal/domain"
	"github.com/bft-labs/lifecoord/pkg/control"
	"github.com/bft-labs/lifecoord/pkg/future"
	"github.com/bft-labs/lifecoord/pkg/lifecycle"
	"github.com/bft-labs/lifecoord/pkg/log"
	"github.com/bft-labs/lifecoord/pkg/manager"
)

// Coordinator owns at most one manager instance at a time and serializes
// its configuration, initialization and shutdown.
//
// Configure, Initialize, Shutdown, Instance and IsInitialized are safe for
// concurrent use. Binding and query operations must run on the control
// loop; see Do.
type Coordinator struct {
	mu  sync.Mutex
	cfg *manager.Config

	gen            *generation
	shutdownFuture *future.Future[future.Void]

	loop     *control.Loop
	ownsLoop bool
	opts     options
	logger   log.Logger
}

// generation is one manager instance and the futures tied to it.
type generation struct {
	m *manager.Manager
	// settled completes once Init has finished, before any automatic
	// shutdown. Shutdown waits on it.
	settled *future.Future[future.Void]
	init    *future.Future[future.Void]
	// shutdown is set under the coordinator lock when the generation is
	// detached.
	shutdown *future.Future[future.Void]
}

// New creates a coordinator with no configuration and no instance.
func New(opts ...Option) *Coordinator {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := log.OrNoop(o.logger)

	c := &Coordinator{
		shutdownFuture: future.Resolved(future.Void{}),
		loop:           o.loop,
		opts:           o,
		logger:         logger.With(log.Component("coordinator")),
	}
	if c.loop == nil {
		c.loop = control.NewLoop(logger)
		c.loop.Start()
		c.ownsLoop = true
	}
	return c
}

// Configure accepts cfg for the next initialization. It fails with
// ErrAlreadyConfigured until Shutdown has been called.
func (c *Coordinator) Configure(cfg manager.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.configureLocked(cfg)
}

func (c *Coordinator) configureLocked(cfg manager.Config) error {
	if c.cfg != nil {
		return ErrAlreadyConfigured
	}
	c.cfg = &cfg
	c.logger.Info("configuration accepted", log.String("config", cfg.Name))
	return nil
}

// Initialize creates and initializes the manager instance. Concurrent and
// repeated calls share one future until the instance is shut down. The
// future fails with an *InitializationError; in that case the partially
// built instance has been shut down by the time the future completes.
func (c *Coordinator) Initialize() *future.Future[future.Void] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initializeLocked()
}

func (c *Coordinator) initializeLocked() *future.Future[future.Void] {
	if c.gen != nil {
		return c.gen.init
	}

	if c.cfg == nil {
		if c.opts.configProvider == nil {
			return future.Failed[future.Void](ErrNotConfigured)
		}
		cfg, err := c.opts.configProvider()
		if err != nil {
			return future.Failed[future.Void](domain.NewInitializationError(
				fmt.Errorf("default config provider: %w", err)))
		}
		if err := c.configureLocked(cfg); err != nil {
			return future.Failed[future.Void](err)
		}
	}

	m := manager.New(*c.cfg, manager.Deps{
		Loop:    c.loop,
		Emitter: c.opts.emitter,
		Logger:  c.opts.logger,
	})
	settled, settle := future.New[future.Void]()
	f, complete := future.New[future.Void]()
	prevShutdown := c.shutdownFuture

	g := &generation{m: m, settled: settled, init: f}
	c.gen = g
	c.logger.Info("initializing instance",
		log.String("config", c.cfg.Name),
		log.String("instance", m.ID()))

	go func() {
		// Shutdown futures always succeed; only their completion matters.
		<-prevShutdown.Done()
		_, err := m.Init().Wait(context.Background())
		settle(future.Void{}, nil)
		if err == nil {
			complete(future.Void{}, nil)
			return
		}

		c.logger.Warn("initialize failed, shutting down instance",
			log.String("instance", m.ID()),
			log.Err(err))
		c.mu.Lock()
		if c.gen == g {
			c.shutdownLocked()
		}
		// Detached either here or by a concurrent Shutdown.
		teardown := g.shutdown
		c.mu.Unlock()
		<-teardown.Done()
		complete(future.Void{}, domain.NewInitializationError(err))
	}()
	return f
}

// Shutdown clears the accepted configuration and tears down the current
// instance after its initialization settles. Without an instance it
// returns the previous shutdown future, which may already be complete.
func (c *Coordinator) Shutdown() *future.Future[future.Void] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = nil
	return c.shutdownLocked()
}

func (c *Coordinator) shutdownLocked() *future.Future[future.Void] {
	g := c.gen
	if g == nil {
		return c.shutdownFuture
	}
	m := g.m
	c.gen = nil

	f, complete := future.New[future.Void]()
	c.shutdownFuture = f
	g.shutdown = f
	c.logger.Info("shutting down instance", log.String("instance", m.ID()))

	go func() {
		<-g.settled.Done()
		_, err := m.Shutdown().Wait(context.Background())
		if err != nil {
			c.logger.Warn("instance shutdown reported an error",
				log.String("instance", m.ID()),
				log.Err(err))
		}
		complete(future.Void{}, nil)
	}()
	return f
}

// Instance returns a future of the initialized manager. When no instance
// exists, or the current one failed, a new initialization is started.
func (c *Coordinator) Instance() *future.Future[*manager.Manager] {
	c.mu.Lock()
	initFuture := c.initializeLocked()
	m := c.instanceLocked()
	c.mu.Unlock()

	out, complete := future.New[*manager.Manager]()
	initFuture.OnComplete(func(_ future.Void, err error) {
		if err != nil {
			complete(nil, err)
			return
		}
		complete(m, nil)
	})
	return out
}

// IsInitialized reports whether an instance exists and has finished
// initializing successfully.
func (c *Coordinator) IsInitialized() bool {
	m := c.instance()
	return m != nil && m.IsInitialized()
}

// State returns the init state of the current instance, or
// StateUninitialized if there is none.
func (c *Coordinator) State() lifecycle.InitState {
	m := c.instance()
	if m == nil {
		return lifecycle.StateUninitialized
	}
	return m.State()
}

// Loop returns the control loop binding operations run on.
func (c *Coordinator) Loop() *control.Loop { return c.loop }

// Do runs fn on the control loop. Contexts passed to fn satisfy the
// control loop check of the binding and query operations.
//
// fn must not wait on Initialize or Shutdown futures: teardown needs the
// loop to clear bindings.
func (c *Coordinator) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return c.loop.Do(ctx, fn)
}

// Close shuts down the current instance, waits for it and stops the
// control loop if the coordinator created it.
func (c *Coordinator) Close(ctx context.Context) error {
	if _, err := c.Shutdown().Wait(ctx); err != nil {
		return err
	}
	if c.ownsLoop {
		c.loop.Stop()
	}
	return nil
}

// current returns the instance for control-loop operations.
func (c *Coordinator) current(ctx context.Context) (*manager.Manager, error) {
	if err := c.loop.Check(ctx); err != nil {
		return nil, err
	}
	m := c.instance()
	if m == nil || !m.IsInitialized() {
		return nil, ErrNotInitialized
	}
	return m, nil
}

func (c *Coordinator) instance() *manager.Manager {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.instanceLocked()
}

func (c *Coordinator) instanceLocked() *manager.Manager {
	if c.gen == nil {
		return nil
	}
	return c.gen.m
}
