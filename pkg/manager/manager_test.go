package manager

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bft-labs/lifecoord/internal/domain"
	"github.com/bft-labs/lifecoord/internal/testutil"
	"github.com/bft-labs/lifecoord/pkg/control"
	"github.com/bft-labs/lifecoord/pkg/executor"
	"github.com/bft-labs/lifecoord/pkg/future"
	"github.com/bft-labs/lifecoord/pkg/lifecycle"
	"github.com/bft-labs/lifecoord/pkg/resource"
	"github.com/bft-labs/lifecoord/pkg/usecase"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// trackingPlugin records initialization and shutdown order.
type trackingPlugin struct {
	name    string
	mu      *sync.Mutex
	events  *[]string
	initErr error
	panics  bool
}

func (p *trackingPlugin) Name() string { return p.name }

func (p *trackingPlugin) Initialize(ctx context.Context, pc PluginContext) error {
	if p.panics {
		panic("intentional panic during initialization")
	}
	p.record("init:" + p.name)
	return p.initErr
}

func (p *trackingPlugin) Shutdown(ctx context.Context) error {
	p.record("shutdown:" + p.name)
	return nil
}

func (p *trackingPlugin) record(event string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	*p.events = append(*p.events, event)
}

func validConfig(f *testutil.Factory) Config {
	return Config{
		Name:            "test",
		ResourceFactory: f.Provider(),
		Defaults:        usecase.StaticDefaults{"preview": {"fps": "30"}}.Provider(),
	}
}

func wait(t *testing.T, f *future.Future[future.Void]) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := f.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded)
	return err
}

func TestManager_InitAndShutdown(t *testing.T) {
	back := testutil.NewResource("0", resource.ClassBack)
	front := testutil.NewResource("1", resource.ClassFront)
	factory := testutil.NewFactory(back, front)

	m := New(validConfig(factory), Deps{})
	require.Equal(t, lifecycle.StateUninitialized, m.State())

	require.NoError(t, wait(t, m.Init()))
	require.True(t, m.IsInitialized())
	require.Equal(t, 2, m.Resources().Len())
	require.NotNil(t, m.Factory())
	require.NotNil(t, m.Defaults())
	require.Same(t, m.Init(), m.Init(), "init future is shared")

	pool, ok := m.Executor().(*executor.Pool)
	require.True(t, ok)
	require.Equal(t, 2, pool.Workers(), "pool grows to the number of resources")

	require.NoError(t, wait(t, m.Shutdown()))
	require.Equal(t, lifecycle.StateShutdown, m.State())
	require.False(t, m.IsInitialized())
	require.True(t, back.Closed())
	require.True(t, front.Closed())
	require.ErrorIs(t, pool.Execute(func() {}), executor.ErrRejected)
}

func TestManager_ShutdownIsIdempotent(t *testing.T) {
	factory := testutil.NewFactory(testutil.NewResource("0", resource.ClassBack))
	var mu sync.Mutex
	var events []string
	cfg := validConfig(factory)
	cfg.Plugins = []Plugin{&trackingPlugin{name: "a", mu: &mu, events: &events}}

	m := New(cfg, Deps{})
	require.NoError(t, wait(t, m.Init()))

	first := m.Shutdown()
	second := m.Shutdown()
	require.Same(t, first, second)
	require.NoError(t, wait(t, first))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"init:a", "shutdown:a"}, events, "second shutdown does no extra work")
}

func TestManager_ShutdownBeforeInit(t *testing.T) {
	m := New(validConfig(testutil.NewFactory()), Deps{})
	require.NoError(t, wait(t, m.Shutdown()))
	require.Equal(t, lifecycle.StateShutdown, m.State())

	err := wait(t, m.Init())
	var initErr *domain.InitializationError
	require.ErrorAs(t, err, &initErr)
	require.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
}

func TestManager_InitFailures(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		mutate  func(*Config, *testutil.Factory)
		wantErr error
	}{
		{
			name:    "missing resource factory",
			mutate:  func(c *Config, _ *testutil.Factory) { c.ResourceFactory = nil },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "missing defaults",
			mutate:  func(c *Config, _ *testutil.Factory) { c.Defaults = nil },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "factory provider fails",
			mutate:  func(c *Config, _ *testutil.Factory) { c.ResourceFactory = testutil.FailingProvider(boom) },
			wantErr: boom,
		},
		{
			name:    "discovery fails",
			mutate:  func(_ *Config, f *testutil.Factory) { f.FailList(boom) },
			wantErr: boom,
		},
		{
			name:    "open fails",
			mutate:  func(_ *Config, f *testutil.Factory) { f.FailOpen("0", boom) },
			wantErr: boom,
		},
		{
			name: "defaults provider panics",
			mutate: func(c *Config, _ *testutil.Factory) {
				c.Defaults = func(context.Context) (usecase.DefaultsFactory, error) { panic("defaults") }
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := testutil.NewFactory(testutil.NewResource("0", resource.ClassBack))
			cfg := validConfig(factory)
			tt.mutate(&cfg, factory)

			m := New(cfg, Deps{})
			err := wait(t, m.Init())

			var initErr *domain.InitializationError
			require.ErrorAs(t, err, &initErr)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			require.Equal(t, lifecycle.StateInitialized, m.State(), "failed init still reaches initialized")
			require.True(t, m.Failed())
			require.False(t, m.IsInitialized())

			require.NoError(t, wait(t, m.Shutdown()))
		})
	}
}

func TestManager_PluginOrder(t *testing.T) {
	factory := testutil.NewFactory(testutil.NewResource("0", resource.ClassBack))
	var mu sync.Mutex
	var events []string
	cfg := validConfig(factory)
	cfg.Plugins = []Plugin{
		&trackingPlugin{name: "a", mu: &mu, events: &events},
		&trackingPlugin{name: "b", mu: &mu, events: &events},
	}

	m := New(cfg, Deps{})
	require.NoError(t, wait(t, m.Init()))
	require.NoError(t, wait(t, m.Shutdown()))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"init:a", "init:b", "shutdown:b", "shutdown:a"}, events)
}

func TestManager_PluginFailureShutsDownStartedPlugins(t *testing.T) {
	factory := testutil.NewFactory(testutil.NewResource("0", resource.ClassBack))
	var mu sync.Mutex
	var events []string
	cfg := validConfig(factory)
	cfg.Plugins = []Plugin{
		&trackingPlugin{name: "a", mu: &mu, events: &events},
		&trackingPlugin{name: "b", mu: &mu, events: &events, initErr: errors.New("nope")},
		&trackingPlugin{name: "c", mu: &mu, events: &events},
	}

	m := New(cfg, Deps{})
	require.Error(t, wait(t, m.Init()))
	require.NoError(t, wait(t, m.Shutdown()))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"init:a", "init:b", "shutdown:a"}, events)
}

func TestManager_PluginPanicIsRecovered(t *testing.T) {
	factory := testutil.NewFactory(testutil.NewResource("0", resource.ClassBack))
	var mu sync.Mutex
	var events []string
	cfg := validConfig(factory)
	cfg.Plugins = []Plugin{&trackingPlugin{name: "p", mu: &mu, events: &events, panics: true}}

	m := New(cfg, Deps{})
	err := wait(t, m.Init())
	require.ErrorContains(t, err, "intentional panic")
	require.NoError(t, wait(t, m.Shutdown()))
}

func TestManager_ExternalExecutorIsNotOwned(t *testing.T) {
	pool := executor.NewPool(1, nil)
	defer func() { require.NoError(t, pool.Deinit(context.Background())) }()

	cfg := validConfig(testutil.NewFactory(testutil.NewResource("0", resource.ClassBack)))
	cfg.Executor = pool

	m := New(cfg, Deps{})
	require.Same(t, pool, m.Executor())
	require.NoError(t, wait(t, m.Init()))
	require.NoError(t, wait(t, m.Shutdown()))

	require.NoError(t, pool.Execute(func() {}), "external executor keeps running")
}

func TestManager_ShutdownClearsBindingsOnLoop(t *testing.T) {
	loop := control.NewLoop(nil)
	loop.Start()
	defer loop.Stop()

	res := testutil.NewResource("0", resource.ClassBack)
	m := New(validConfig(testutil.NewFactory(res)), Deps{Loop: loop})
	require.NoError(t, wait(t, m.Init()))

	var rec interface{ IsActive() bool }
	require.NoError(t, loop.Do(context.Background(), func(ctx context.Context) error {
		r := m.Bindings().Create("source", m.Resources().Resources())
		if err := m.Bindings().Attach(r, []usecase.UseCase{usecase.New("preview")}); err != nil {
			return err
		}
		m.Bindings().Prioritize(r)
		rec = r
		return m.Bindings().Settle(ctx)
	}))
	require.True(t, rec.IsActive())
	require.Equal(t, 1, res.Claims())

	require.NoError(t, wait(t, m.Shutdown()))
	require.Equal(t, 0, res.Claims(), "shutdown releases claims")
	require.True(t, res.Closed())

	var remaining int
	require.NoError(t, loop.Do(context.Background(), func(context.Context) error {
		remaining = len(m.Bindings().Records())
		return nil
	}))
	require.Zero(t, remaining)
}

func TestManager_ShutdownWithStoppedLoop(t *testing.T) {
	loop := control.NewLoop(nil)
	loop.Start()

	res := testutil.NewResource("0", resource.ClassBack)
	m := New(validConfig(testutil.NewFactory(res)), Deps{Loop: loop})
	require.NoError(t, wait(t, m.Init()))
	loop.Stop()

	require.NoError(t, wait(t, m.Shutdown()))
	require.True(t, res.Closed())
}

func TestManager_EmitsStateChanges(t *testing.T) {
	var mu sync.Mutex
	var got []lifecycle.InitState
	emitter := lifecycle.EmitterFunc(func(_, current lifecycle.InitState, _ string) {
		mu.Lock()
		got = append(got, current)
		mu.Unlock()
	})

	m := New(validConfig(testutil.NewFactory()), Deps{Emitter: emitter})
	require.NoError(t, wait(t, m.Init()))
	require.NoError(t, wait(t, m.Shutdown()))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []lifecycle.InitState{
		lifecycle.StateInitializing,
		lifecycle.StateInitialized,
		lifecycle.StateShutdown,
	}, got)
}
