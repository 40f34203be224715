package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/lifecoord/pkg/log"
	"github.com/bft-labs/lifecoord/pkg/resource"
)

// Device errors.
var (
	ErrOpenFailed = errors.New("catalog: device failed to open")
	ErrClosed     = errors.New("catalog: device closed")
)

// Factory serves the devices listed in a catalog.
type Factory struct {
	catalog *Catalog
	logger  log.Logger
}

// NewFactory creates a factory over c.
func NewFactory(c *Catalog, logger log.Logger) *Factory {
	return &Factory{
		catalog: c,
		logger:  log.OrNoop(logger).With(log.Component("catalog")),
	}
}

// AvailableIDs implements resource.Factory.
func (f *Factory) AvailableIDs(context.Context) ([]string, error) {
	entries := f.catalog.Entries()
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids, nil
}

// Open implements resource.Factory. It honors the entry's open latency and
// fail_open flag.
func (f *Factory) Open(ctx context.Context, id string) (resource.Resource, error) {
	e, ok := f.catalog.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", resource.ErrUnknownResource, id)
	}
	if d := e.Latency(); d > 0 {
		t := time.NewTimer(d)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		}
	}
	if e.FailOpen {
		return nil, fmt.Errorf("%w: %s", ErrOpenFailed, id)
	}
	f.logger.Debug("device opened", log.String("id", id), log.String("class", e.Class))
	return newDevice(e, f.logger), nil
}

// Provider returns a FactoryProvider serving c.
func Provider(c *Catalog, logger log.Logger) resource.FactoryProvider {
	return func(context.Context, resource.ThreadConfig) (resource.Factory, error) {
		return NewFactory(c, logger), nil
	}
}

// Device is an opened catalog entry.
type Device struct {
	info   resource.Info
	logger log.Logger

	mu     sync.Mutex
	claims int
	closed bool
}

func newDevice(e Entry, logger log.Logger) *Device {
	return &Device{
		info: resource.Info{
			ID:          e.ID,
			Class:       e.Class,
			Tags:        append([]string(nil), e.Tags...),
			MaxUseCases: e.MaxUseCases,
			Attributes:  e.Attributes,
		},
		logger: logger.With(log.String("device", e.ID)),
	}
}

func (d *Device) Info() resource.Info { return d.info }

// Acquire adds a claim. Closed devices refuse new claims.
func (d *Device) Acquire(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("%w: %s", ErrClosed, d.info.ID)
	}
	d.claims++
	if d.claims == 1 {
		d.logger.Info("device active")
	}
	return nil
}

// Release drops a claim. Releasing an unclaimed device is a no-op.
func (d *Device) Release(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.claims == 0 {
		return nil
	}
	d.claims--
	if d.claims == 0 {
		d.logger.Info("device idle")
	}
	return nil
}

// Close releases the device for good.
func (d *Device) Close(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	if d.claims > 0 {
		d.logger.Warn("device closed with outstanding claims", log.Int("claims", d.claims))
	}
	d.closed = true
	d.claims = 0
	return nil
}

// Claims returns the number of outstanding claims.
func (d *Device) Claims() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.claims
}
