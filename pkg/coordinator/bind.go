package coordinator

import (
	"context"
	"fmt"

	"github.com/bft-labs/lifecoord/pkg/binding"
	"github.com/bft-labs/lifecoord/pkg/log"
	"github.com/bft-labs/lifecoord/pkg/resource"
	"github.com/bft-labs/lifecoord/pkg/usecase"
)

// defaultClasses are tried in order by DefaultClass.
var defaultClasses = []string{resource.ClassBack, resource.ClassFront}

// Bind attaches useCases to the binding record of sourceID over the
// resources matching selector, then makes that record the active one.
//
// The selector is merged with each use case's own selector. Validation
// failures leave the binding table unchanged. With no use cases, Bind only
// resolves the record, creating it if needed, and returns it.
func (c *Coordinator) Bind(ctx context.Context, sourceID string, selector resource.Selector, useCases ...usecase.UseCase) (*binding.Record, error) {
	m, err := c.current(ctx)
	if err != nil {
		return nil, err
	}

	merged := selector
	for _, uc := range useCases {
		merged = merged.Merge(uc.Selector())
	}
	matched := merged.Filter(m.Resources().Resources())
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatchingResource, merged)
	}

	bindings := m.Bindings()
	rec := bindings.Get(sourceID, resource.SetID(matched))
	if uc, holder, ok := bindings.BoundElsewhere(rec, useCases); ok {
		return nil, fmt.Errorf("%w: %s is bound to %s", ErrAlreadyBoundElsewhere, uc.ID(), holder.Key())
	}

	created := rec == nil
	if created {
		rec = bindings.Create(sourceID, matched)
	}
	if len(useCases) == 0 {
		return rec, nil
	}

	if err := bindings.Attach(rec, useCases); err != nil {
		if created {
			bindings.Remove(rec)
		}
		return nil, err
	}
	bindings.Prioritize(rec)
	c.logger.Debug("use cases bound",
		log.String("source", sourceID),
		log.String("record", rec.Key().String()),
		log.Strings("use_cases", usecase.IDs(useCases)))
	return rec, nil
}

// Unbind detaches useCases from whichever records hold them. Use cases that
// were never bound are ignored.
func (c *Coordinator) Unbind(ctx context.Context, useCases ...usecase.UseCase) error {
	m, err := c.current(ctx)
	if err != nil {
		return err
	}
	if n := m.Bindings().Unbind(useCases); n > 0 {
		c.logger.Debug("use cases unbound", log.Int("count", n))
	}
	return nil
}

// UnbindAll detaches every bound use case.
func (c *Coordinator) UnbindAll(ctx context.Context) error {
	m, err := c.current(ctx)
	if err != nil {
		return err
	}
	m.Bindings().UnbindAll()
	return nil
}

// IsBound reports whether uc is attached to any binding record.
func (c *Coordinator) IsBound(ctx context.Context, uc usecase.UseCase) (bool, error) {
	m, err := c.current(ctx)
	if err != nil {
		return false, err
	}
	return m.Bindings().IsBound(uc), nil
}

// ActiveUseCases returns the use cases of the active record.
func (c *Coordinator) ActiveUseCases(ctx context.Context) ([]usecase.UseCase, error) {
	m, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	return m.Bindings().ActiveUseCases(), nil
}

// HasResource reports whether any resource matches selector.
func (c *Coordinator) HasResource(ctx context.Context, selector resource.Selector) (bool, error) {
	m, err := c.current(ctx)
	if err != nil {
		return false, err
	}
	return len(selector.Filter(m.Resources().Resources())) > 0, nil
}

// SelectResource returns the first resource matching selector.
func (c *Coordinator) SelectResource(ctx context.Context, selector resource.Selector) (resource.Resource, error) {
	m, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	return selector.Select(m.Resources().Resources())
}

// ResourceInfo returns the description of the resource with the given ID.
func (c *Coordinator) ResourceInfo(ctx context.Context, id string) (resource.Info, error) {
	m, err := c.current(ctx)
	if err != nil {
		return resource.Info{}, err
	}
	res, err := m.Resources().Get(id)
	if err != nil {
		return resource.Info{}, err
	}
	return res.Info(), nil
}

// DefaultClass returns the first well-known class with an available
// resource, preferring back over front.
func (c *Coordinator) DefaultClass(ctx context.Context) (string, error) {
	m, err := c.current(ctx)
	if err != nil {
		return "", err
	}
	resources := m.Resources().Resources()
	for _, class := range defaultClasses {
		if len(resource.NewSelector().RequireClass(class).Filter(resources)) > 0 {
			return class, nil
		}
	}
	return "", fmt.Errorf("%w: no resource of a default class", ErrNoMatchingResource)
}

// DefaultOptions returns the default options for kind, specialized for
// info when it is not nil.
func (c *Coordinator) DefaultOptions(ctx context.Context, kind string, info *resource.Info) (usecase.Options, bool, error) {
	m, err := c.current(ctx)
	if err != nil {
		return nil, false, err
	}
	opts, ok := m.Defaults().Defaults(kind, info)
	return opts, ok, nil
}

// ResourceFactory returns the factory built during initialization.
func (c *Coordinator) ResourceFactory(ctx context.Context) (resource.Factory, error) {
	m, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	return m.Factory(), nil
}
