package resource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/bft-labs/lifecoord/pkg/log"
)

// Repository maps resource IDs to open handles.
type Repository struct {
	mu        sync.RWMutex
	factory   Factory
	resources map[string]Resource
	refresh   singleflight.Group
	logger    log.Logger
}

// NewRepository creates an empty repository.
func NewRepository(logger log.Logger) *Repository {
	return &Repository{
		resources: make(map[string]Resource),
		logger:    log.OrNoop(logger).With(log.Component("resources")),
	}
}

// Init opens every resource the factory reports as available. On failure
// the handles opened so far are closed and the repository stays empty.
func (r *Repository) Init(ctx context.Context, factory Factory) error {
	ids, err := factory.AvailableIDs(ctx)
	if err != nil {
		return fmt.Errorf("discover resources: %w", err)
	}

	opened := make(map[string]Resource, len(ids))
	for _, id := range ids {
		res, err := factory.Open(ctx, id)
		if err != nil {
			closeAll(ctx, opened)
			return fmt.Errorf("open resource %s: %w", id, err)
		}
		opened[id] = res
	}

	r.mu.Lock()
	r.factory = factory
	r.resources = opened
	r.mu.Unlock()

	r.logger.Info("resources initialized", log.Strings("ids", sortedIDs(opened)))
	return nil
}

// Resources returns the current resources ordered by ID.
func (r *Repository) Resources() []Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Resource, 0, len(r.resources))
	for _, id := range sortedIDs(r.resources) {
		out = append(out, r.resources[id])
	}
	return out
}

// Get returns the resource with the given ID.
func (r *Repository) Get(id string) (Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.resources[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResource, id)
	}
	return res, nil
}

// Len returns the number of resources.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resources)
}

// Refresh re-queries the factory, opening new resources and closing those
// no longer available. It returns the IDs of the closed resources.
// Concurrent calls share one refresh.
func (r *Repository) Refresh(ctx context.Context) ([]string, error) {
	v, err, _ := r.refresh.Do("refresh", func() (interface{}, error) {
		return r.doRefresh(ctx)
	})
	removed, _ := v.([]string)
	return removed, err
}

func (r *Repository) doRefresh(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	factory := r.factory
	r.mu.RUnlock()
	if factory == nil {
		return nil, errors.New("resource repository not initialized")
	}

	ids, err := factory.AvailableIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover resources: %w", err)
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	r.mu.RLock()
	var added []string
	for id := range want {
		if _, ok := r.resources[id]; !ok {
			added = append(added, id)
		}
	}
	r.mu.RUnlock()
	sort.Strings(added)

	opened := make(map[string]Resource, len(added))
	var openErr error
	for _, id := range added {
		res, err := factory.Open(ctx, id)
		if err != nil {
			openErr = errors.Join(openErr, fmt.Errorf("open resource %s: %w", id, err))
			continue
		}
		opened[id] = res
	}

	removed := make(map[string]Resource)
	r.mu.Lock()
	for id, res := range r.resources {
		if !want[id] {
			removed[id] = res
			delete(r.resources, id)
		}
	}
	for id, res := range opened {
		r.resources[id] = res
	}
	r.mu.Unlock()

	if len(opened) > 0 || len(removed) > 0 {
		r.logger.Info("resources refreshed",
			log.Strings("added", sortedIDs(opened)),
			log.Strings("removed", sortedIDs(removed)))
	}
	return sortedIDs(removed), errors.Join(openErr, closeAll(ctx, removed))
}

// Deinit closes every resource concurrently and empties the repository.
func (r *Repository) Deinit(ctx context.Context) error {
	r.mu.Lock()
	resources := r.resources
	r.resources = make(map[string]Resource)
	r.factory = nil
	r.mu.Unlock()

	err := closeAll(ctx, resources)
	if err != nil {
		r.logger.Warn("resource deinit finished with errors", log.Err(err))
	} else {
		r.logger.Info("resources deinitialized", log.Int("count", len(resources)))
	}
	return err
}

func closeAll(ctx context.Context, resources map[string]Resource) error {
	var g errgroup.Group
	for id, res := range resources {
		id, res := id, res
		g.Go(func() error {
			if err := res.Close(ctx); err != nil {
				return fmt.Errorf("close resource %s: %w", id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func sortedIDs(resources map[string]Resource) []string {
	ids := make([]string, 0, len(resources))
	for id := range resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
