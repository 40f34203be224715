// Package manager implements the heavyweight instance a coordinator creates
// lazily: it owns the worker pool, the resource factory, the resource
// repository and the binding table.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/bft-labs/lifecoord/internal/domain"
	"github.com/bft-labs/lifecoord/pkg/binding"
	"github.com/bft-labs/lifecoord/pkg/control"
	"github.com/bft-labs/lifecoord/pkg/executor"
	"github.com/bft-labs/lifecoord/pkg/future"
	"github.com/bft-labs/lifecoord/pkg/lifecycle"
	"github.com/bft-labs/lifecoord/pkg/log"
	"github.com/bft-labs/lifecoord/pkg/resource"
	"github.com/bft-labs/lifecoord/pkg/usecase"
)

// Deps are the collaborators a manager borrows from its coordinator.
type Deps struct {
	// Loop is the control loop bindings are confined to. Optional; when
	// nil, bindings are cleared directly during teardown.
	Loop *control.Loop

	// Emitter receives init state changes. Optional.
	Emitter lifecycle.EventEmitter

	// Logger is used when the Config carries none.
	Logger log.Logger
}

// Manager is one generation of managed state. It is initialized at most
// once and never revived after shutdown.
type Manager struct {
	id      string
	cfg     Config
	loop    *control.Loop
	logger  log.Logger
	tracker *lifecycle.Tracker

	exec future.Executor
	pool *executor.Pool

	resources *resource.Repository
	bindings  *binding.Repository

	ctx    context.Context
	cancel context.CancelFunc
	failed atomic.Bool

	mu             sync.RWMutex
	initFuture     *future.Future[future.Void]
	shutdownFuture *future.Future[future.Void]
	factory        resource.Factory
	defaults       usecase.DefaultsFactory
	started        []Plugin
}

// New creates a manager in StateUninitialized. When cfg carries no
// executor a worker pool is started and owned by the manager.
func New(cfg Config, deps Deps) *Manager {
	id := uuid.NewString()[:8]
	logger := cfg.Logger
	if logger == nil {
		logger = deps.Logger
	}
	logger = log.OrNoop(logger).With(
		log.Component("manager"),
		log.String("config", cfg.Name),
		log.String("instance", id),
	)

	m := &Manager{
		id:      id,
		cfg:     cfg,
		loop:    deps.Loop,
		logger:  logger,
		tracker: lifecycle.NewTracker(logger, deps.Emitter),
		exec:    cfg.Executor,
	}
	if m.exec == nil {
		m.pool = executor.NewPool(cfg.Workers, logger)
		m.exec = m.pool
	}
	m.resources = resource.NewRepository(logger)
	m.bindings = binding.NewRepository(m.exec, logger)
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m
}

// ID returns the generation identifier used in logs.
func (m *Manager) ID() string { return m.id }

// Config returns the configuration the manager was built from.
func (m *Manager) Config() Config { return m.cfg }

// Init starts initialization on the executor. Later calls return the same
// future. Any failure is reported as a *domain.InitializationError; the
// state still reaches StateInitialized so Shutdown can tear down whatever
// was built.
func (m *Manager) Init() *future.Future[future.Void] {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initFuture != nil {
		return m.initFuture
	}
	if prev, ok := m.tracker.Swap(map[lifecycle.InitState]lifecycle.InitState{
		lifecycle.StateUninitialized: lifecycle.StateInitializing,
	}, "initialize requested"); !ok {
		return future.Failed[future.Void](domain.NewInitializationError(
			fmt.Errorf("%w: manager is %s", lifecycle.ErrInvalidTransition, prev)))
	}

	f, complete := future.New[future.Void]()
	m.initFuture = f
	if err := m.exec.Execute(func() {
		complete(future.Void{}, m.runInit())
	}); err != nil {
		err = domain.NewInitializationError(fmt.Errorf("schedule initialization: %w", err))
		m.finishInit(err)
		complete(future.Void{}, err)
	}
	return f
}

func (m *Manager) runInit() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("initialization panicked: %v", r)
		}
		err = domain.NewInitializationError(err)
		m.finishInit(err)
	}()
	return m.initialize(m.ctx)
}

func (m *Manager) initialize(ctx context.Context) error {
	if err := m.cfg.Validate(); err != nil {
		return err
	}

	factory, err := m.cfg.ResourceFactory(ctx, resource.ThreadConfig{Executor: m.exec})
	if err != nil {
		return fmt.Errorf("build resource factory: %w", err)
	}
	if factory == nil {
		return fmt.Errorf("%w: resource factory provider returned nil", ErrInvalidConfig)
	}
	defaults, err := m.cfg.Defaults(ctx)
	if err != nil {
		return fmt.Errorf("build defaults factory: %w", err)
	}
	if defaults == nil {
		return fmt.Errorf("%w: defaults provider returned nil", ErrInvalidConfig)
	}
	m.mu.Lock()
	m.factory = factory
	m.defaults = defaults
	m.mu.Unlock()

	if err := m.resources.Init(ctx, factory); err != nil {
		return err
	}
	if m.pool != nil {
		m.pool.Resize(m.resources.Len())
	}

	pc := PluginContext{
		Name:      m.cfg.Name,
		Resources: m.resources,
		Refresh:   m.RefreshResources,
		Executor:  m.exec,
		Logger:    m.logger,
	}
	for _, p := range m.cfg.Plugins {
		if err := initPlugin(ctx, p, pc); err != nil {
			m.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			return fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
		m.mu.Lock()
		m.started = append(m.started, p)
		m.mu.Unlock()
		m.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}
	return nil
}

// finishInit records the outcome before the state becomes observable.
func (m *Manager) finishInit(err error) {
	if err != nil {
		m.failed.Store(true)
		m.logger.Error("initialization failed", log.Err(err))
	}
	reason := "initialized"
	if err != nil {
		reason = "initialization failed"
	}
	if terr := m.tracker.TransitionTo(lifecycle.StateInitialized, reason); terr != nil {
		m.logger.Warn("unexpected state after initialization", log.Err(terr))
	}
}

// Shutdown tears the manager down and returns a future that completes once
// every owned resource has been released. Calling it again returns the same
// future. Shutting down while initialization runs fails; callers wait for
// the init future first.
func (m *Manager) Shutdown() *future.Future[future.Void] {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shutdownFuture != nil {
		return m.shutdownFuture
	}
	prev, ok := m.tracker.Swap(map[lifecycle.InitState]lifecycle.InitState{
		lifecycle.StateUninitialized: lifecycle.StateShutdown,
		lifecycle.StateInitialized:   lifecycle.StateShutdown,
	}, "shutdown requested")
	if !ok {
		return future.Failed[future.Void](fmt.Errorf("%w: cannot shut down while %s",
			lifecycle.ErrInvalidTransition, prev))
	}

	f, complete := future.New[future.Void]()
	m.shutdownFuture = f
	plugins := append([]Plugin(nil), m.started...)
	go func() {
		m.teardown(prev, plugins)
		complete(future.Void{}, nil)
	}()
	return f
}

func (m *Manager) teardown(prev lifecycle.InitState, plugins []Plugin) {
	m.cancel()
	ctx := context.Background()

	if prev == lifecycle.StateInitialized {
		for i := len(plugins) - 1; i >= 0; i-- {
			p := plugins[i]
			if err := shutdownPlugin(ctx, p); err != nil {
				m.logger.Error("plugin shutdown failed",
					log.String("plugin", p.Name()),
					log.Err(err))
			} else {
				m.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
			}
		}

		for _, pending := range m.clearBindings(ctx) {
			if _, err := pending.Wait(ctx); err != nil {
				m.logger.Warn("resource release failed during shutdown", log.Err(err))
			}
		}

		if err := m.resources.Deinit(ctx); err != nil {
			m.logger.Warn("resource repository deinit failed", log.Err(err))
		}
	}

	if m.pool != nil {
		if err := m.pool.Deinit(ctx); err != nil {
			m.logger.Warn("executor deinit failed", log.Err(err))
		}
	}
	m.logger.Info("manager shut down")
}

// clearBindings drops every binding record on the control loop. If the loop
// is gone nothing else can touch the table, so it is cleared directly.
func (m *Manager) clearBindings(ctx context.Context) []*future.Future[future.Void] {
	var pending []*future.Future[future.Void]
	if m.loop != nil {
		err := m.loop.Do(ctx, func(context.Context) error {
			pending = m.bindings.Clear()
			return nil
		})
		if err == nil {
			return pending
		}
		if !errors.Is(err, control.ErrLoopStopped) {
			m.logger.Warn("clearing bindings on control loop failed", log.Err(err))
		}
	}
	return m.bindings.Clear()
}

// RefreshResources re-queries the resource factory and drops the binding
// records built on resources that are no longer available, so later binds
// resolve against fresh handles.
func (m *Manager) RefreshResources(ctx context.Context) error {
	removed, err := m.resources.Refresh(ctx)
	if len(removed) > 0 {
		m.dropBindings(ctx, removed)
	}
	return err
}

// dropBindings removes the records using ids on the control loop, or
// directly once the loop is gone.
func (m *Manager) dropBindings(ctx context.Context, ids []string) {
	drop := func(context.Context) error {
		if n := m.bindings.RemoveUsing(ids); n > 0 {
			m.logger.Info("binding records dropped",
				log.Strings("resources", ids),
				log.Int("records", n))
		}
		return nil
	}
	if m.loop != nil {
		err := m.loop.Do(ctx, drop)
		if err == nil {
			return
		}
		if !errors.Is(err, control.ErrLoopStopped) {
			m.logger.Warn("dropping bindings on control loop failed", log.Err(err))
			return
		}
	}
	_ = drop(ctx)
}

// State returns the init state.
func (m *Manager) State() lifecycle.InitState { return m.tracker.State() }

// IsInitialized reports whether initialization completed successfully and
// shutdown has not started.
func (m *Manager) IsInitialized() bool {
	return m.tracker.Is(lifecycle.StateInitialized) && !m.failed.Load()
}

// Failed reports whether initialization ended in an error.
func (m *Manager) Failed() bool { return m.failed.Load() }

// Resources returns the resource repository.
func (m *Manager) Resources() *resource.Repository { return m.resources }

// Bindings returns the binding table. It must only be used on the control loop.
func (m *Manager) Bindings() *binding.Repository { return m.bindings }

// Factory returns the resource factory, or nil before initialization.
func (m *Manager) Factory() resource.Factory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.factory
}

// Defaults returns the default-options factory, or nil before initialization.
func (m *Manager) Defaults() usecase.DefaultsFactory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaults
}

// Executor returns the executor the manager runs work on.
func (m *Manager) Executor() future.Executor { return m.exec }

func initPlugin(ctx context.Context, p Plugin, pc PluginContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.Initialize(ctx, pc)
}

func shutdownPlugin(ctx context.Context, p Plugin) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.Shutdown(ctx)
}
