// Package testutil provides in-memory resources and factories for tests.
package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/bft-labs/lifecoord/pkg/resource"
)

// Resource is an in-memory resource.Resource that counts claims.
type Resource struct {
	info resource.Info

	mu       sync.Mutex
	claims   int
	acquires int
	closed   bool
}

// NewResource creates a resource with the given ID and class.
func NewResource(id, class string, tags ...string) *Resource {
	return &Resource{info: resource.Info{ID: id, Class: class, Tags: tags}}
}

// WithMaxUseCases sets the use case limit and returns r.
func (r *Resource) WithMaxUseCases(n int) *Resource {
	r.info.MaxUseCases = n
	return r
}

func (r *Resource) Info() resource.Info { return r.info }

func (r *Resource) Acquire(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claims++
	r.acquires++
	return nil
}

func (r *Resource) Release(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.claims > 0 {
		r.claims--
	}
	return nil
}

func (r *Resource) Close(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Claims returns the number of outstanding claims.
func (r *Resource) Claims() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.claims
}

// Acquires returns how many times the resource was acquired.
func (r *Resource) Acquires() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.acquires
}

// Closed reports whether Close was called.
func (r *Resource) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Factory is an in-memory resource.Factory.
type Factory struct {
	mu        sync.Mutex
	resources map[string]*Resource
	failOpen  map[string]error
	listErr   error

	// Built counts how many times Provider constructed this factory.
	Built atomic.Int32
}

// NewFactory creates a factory serving resources.
func NewFactory(resources ...*Resource) *Factory {
	f := &Factory{failOpen: map[string]error{}}
	f.Set(resources...)
	return f
}

// Set replaces the available resources.
func (f *Factory) Set(resources ...*Resource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resources = make(map[string]*Resource, len(resources))
	for _, r := range resources {
		f.resources[r.info.ID] = r
	}
}

// FailOpen makes Open(id) return err.
func (f *Factory) FailOpen(id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOpen[id] = err
}

// FailList makes AvailableIDs return err. A nil err clears the failure.
func (f *Factory) FailList(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

func (f *Factory) AvailableIDs(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := make([]string, 0, len(f.resources))
	for id := range f.resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *Factory) Open(_ context.Context, id string) (resource.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOpen[id]; err != nil {
		return nil, err
	}
	r, ok := f.resources[id]
	if !ok {
		return nil, errors.Join(resource.ErrUnknownResource, errors.New(id))
	}
	return r, nil
}

// Provider returns a FactoryProvider serving f.
func (f *Factory) Provider() resource.FactoryProvider {
	return func(context.Context, resource.ThreadConfig) (resource.Factory, error) {
		f.Built.Add(1)
		return f, nil
	}
}

// FailingProvider returns a FactoryProvider that always fails with err.
func FailingProvider(err error) resource.FactoryProvider {
	return func(context.Context, resource.ThreadConfig) (resource.Factory, error) {
		return nil, err
	}
}
