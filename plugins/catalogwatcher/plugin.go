// Package catalogwatcher keeps a manager's resources in sync with its
// catalog file. When enabled, it watches the file for changes, reloads the
// catalog and refreshes the resource repository.
package catalogwatcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/lifecoord/internal/catalog"
	"github.com/bft-labs/lifecoord/pkg/log"
	"github.com/bft-labs/lifecoord/pkg/manager"
	"github.com/bft-labs/lifecoord/pkg/resource"
)

// Plugin implements catalog watching.
type Plugin struct {
	mu sync.RWMutex

	// Configuration
	catalog       *catalog.Catalog
	debounceDelay time.Duration
	onRefresh     func(error)

	// Runtime state
	resources *resource.Repository
	refreshFn func(ctx context.Context) error
	logger    log.Logger
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Config holds configuration options for the catalog watcher plugin.
type Config struct {
	// DebounceDelay is the delay to wait after a file change before reloading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration

	// OnRefresh, if set, is called after every reload attempt with its error.
	OnRefresh func(error)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 100 * time.Millisecond,
	}
}

// New creates a catalog watcher plugin for c.
func New(c *catalog.Catalog, cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Plugin{
		catalog:       c,
		debounceDelay: cfg.DebounceDelay,
		onRefresh:     cfg.OnRefresh,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "catalogwatcher"
}

// Initialize starts watching the catalog file.
func (p *Plugin) Initialize(ctx context.Context, pc manager.PluginContext) error {
	p.mu.Lock()
	p.resources = pc.Resources
	p.refreshFn = pc.Refresh
	p.logger = log.OrNoop(pc.Logger).With(log.Component("catalogwatcher"))
	p.mu.Unlock()

	if p.catalog == nil || p.catalog.Path() == "" {
		p.logger.Warn("catalog watcher disabled: no catalog file")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory so editors that replace the file are still seen.
	if err := watcher.Add(filepath.Dir(p.catalog.Path())); err != nil {
		watcher.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("catalog watcher plugin initialized", log.String("path", p.catalog.Path()))

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)
	return nil
}

// Shutdown stops the watcher and waits for the watch loop.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	name := filepath.Base(p.catalog.Path())
	var debounce *time.Timer
	var fire <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(p.debounceDelay)
			} else {
				debounce.Reset(p.debounceDelay)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			p.refresh(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("catalog watcher: watcher error", log.Err(err))
		}
	}
}

// refresh reloads the catalog and lets the manager open and close
// resources to match it.
func (p *Plugin) refresh(ctx context.Context) {
	p.mu.RLock()
	repo := p.resources
	refreshFn := p.refreshFn
	p.mu.RUnlock()

	err := p.catalog.Reload()
	if err == nil {
		switch {
		case refreshFn != nil:
			err = refreshFn(ctx)
		case repo != nil:
			_, err = repo.Refresh(ctx)
		}
	}
	if err != nil {
		p.logger.Error("catalog watcher: refresh failed", log.Err(err))
	} else if repo != nil {
		p.logger.Info("catalog watcher: resources refreshed", log.Int("count", repo.Len()))
	}
	if p.onRefresh != nil {
		p.onRefresh(err)
	}
}

// Ensure Plugin implements manager.Plugin.
var _ manager.Plugin = (*Plugin)(nil)
