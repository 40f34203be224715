// Package usecase defines the clients that bind to resources.
package usecase

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/bft-labs/lifecoord/pkg/resource"
)

// UseCase is a client of a resource. IDs must be unique and stable.
type UseCase interface {
	ID() string
	Kind() string

	// Selector returns extra constraints the use case places on the
	// resource it binds to. The zero selector adds none.
	Selector() resource.Selector
}

// Base is a ready-made UseCase.
type Base struct {
	id       string
	kind     string
	name     string
	selector resource.Selector
}

// Option configures a Base.
type Option func(*Base)

// WithName sets a human-readable name.
func WithName(name string) Option {
	return func(b *Base) { b.name = name }
}

// WithSelector sets the use case's own resource constraints.
func WithSelector(s resource.Selector) Option {
	return func(b *Base) { b.selector = s }
}

// WithID overrides the generated identifier.
func WithID(id string) Option {
	return func(b *Base) { b.id = id }
}

// New creates a use case of the given kind with a random UUID.
func New(kind string, opts ...Option) *Base {
	b := &Base{id: uuid.NewString(), kind: kind}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Base) ID() string                  { return b.id }
func (b *Base) Kind() string                { return b.kind }
func (b *Base) Name() string                { return b.name }
func (b *Base) Selector() resource.Selector { return b.selector }

func (b *Base) String() string {
	short := b.id
	if len(short) > 8 {
		short = short[:8]
	}
	if b.name != "" {
		return fmt.Sprintf("%s:%s(%s)", b.kind, b.name, short)
	}
	return fmt.Sprintf("%s(%s)", b.kind, short)
}

// IDs returns the IDs of useCases in order.
func IDs(useCases []UseCase) []string {
	out := make([]string, 0, len(useCases))
	for _, uc := range useCases {
		out = append(out, uc.ID())
	}
	return out
}
