package resource

import (
	"context"
	"errors"
	"sort"
	"sync"
)

type fakeResource struct {
	info Info

	mu       sync.Mutex
	claims   int
	closed   bool
	closeErr error
}

func newFake(id, class string, tags ...string) *fakeResource {
	return &fakeResource{info: Info{ID: id, Class: class, Tags: tags}}
}

func (f *fakeResource) Info() Info { return f.info }

func (f *fakeResource) Acquire(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims++
	return nil
}

func (f *fakeResource) Release(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims--
	return nil
}

func (f *fakeResource) Close(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return f.closeErr
}

func (f *fakeResource) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeFactory struct {
	mu      sync.Mutex
	devices map[string]*fakeResource
	failIDs map[string]bool
	opens   int
}

func newFakeFactory(devices ...*fakeResource) *fakeFactory {
	f := &fakeFactory{devices: map[string]*fakeResource{}, failIDs: map[string]bool{}}
	for _, d := range devices {
		f.devices[d.info.ID] = d
	}
	return f
}

func (f *fakeFactory) set(devices ...*fakeResource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices = map[string]*fakeResource{}
	for _, d := range devices {
		f.devices[d.info.ID] = d
	}
}

func (f *fakeFactory) AvailableIDs(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.devices))
	for id := range f.devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeFactory) Open(_ context.Context, id string) (Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	if f.failIDs[id] {
		return nil, errors.New("open failed")
	}
	d, ok := f.devices[id]
	if !ok {
		return nil, ErrUnknownResource
	}
	return d, nil
}
