// Package resource models the concrete resources a manager instance owns,
// the selectors that choose among them and the repository that tracks them.
package resource

import (
	"context"
	"sort"
	"strings"

	"github.com/bft-labs/lifecoord/internal/domain"
	"github.com/bft-labs/lifecoord/pkg/future"
)

// Common resource errors.
var (
	ErrNoMatchingResource = domain.ErrNoMatchingResource
	ErrUnknownResource    = domain.ErrUnknownResource
)

// Well-known resource classes, in default preference order.
const (
	ClassBack  = "back"
	ClassFront = "front"
)

// Info describes a resource.
type Info struct {
	ID    string
	Class string
	Tags  []string

	// MaxUseCases limits how many use cases may attach at once. Zero means no limit.
	MaxUseCases int

	Attributes map[string]string
}

// HasTag reports whether tag is among the resource tags.
func (i Info) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Resource is a handle to one concrete resource.
//
// Acquire and Release are reference counted claims made by active binding
// records. Close tears the handle down for good when the repository is
// deinitialized or the resource disappears.
type Resource interface {
	Info() Info
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
	Close(ctx context.Context) error
}

// Factory discovers and opens resources.
type Factory interface {
	// AvailableIDs returns the IDs currently available. The set may change
	// between calls.
	AvailableIDs(ctx context.Context) ([]string, error)

	// Open returns a handle for id.
	Open(ctx context.Context, id string) (Resource, error)
}

// ThreadConfig carries the execution resources a factory may use.
type ThreadConfig struct {
	Executor future.Executor
}

// FactoryProvider constructs a Factory during manager initialization.
type FactoryProvider func(ctx context.Context, tc ThreadConfig) (Factory, error)

// SetID returns a stable identity for a set of resources.
func SetID(resources []Resource) string {
	ids := make([]string, 0, len(resources))
	for _, r := range resources {
		ids = append(ids, r.Info().ID)
	}
	sort.Strings(ids)
	return strings.Join(ids, "+")
}
