package usecase

import (
	"context"

	"github.com/bft-labs/lifecoord/pkg/resource"
)

// Options is a set of default settings for a use case kind.
type Options map[string]string

// Clone returns a copy of o.
func (o Options) Clone() Options {
	if o == nil {
		return nil
	}
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// DefaultsFactory produces default options for a use case kind, optionally
// specialized for a resource.
type DefaultsFactory interface {
	Defaults(kind string, info *resource.Info) (Options, bool)
}

// DefaultsProvider constructs a DefaultsFactory during manager initialization.
type DefaultsProvider func(ctx context.Context) (DefaultsFactory, error)

// StaticDefaults serves fixed options per kind. Keys of the form
// "kind@class" override "kind" for resources of that class.
type StaticDefaults map[string]Options

// Defaults implements DefaultsFactory.
func (s StaticDefaults) Defaults(kind string, info *resource.Info) (Options, bool) {
	if info != nil {
		if o, ok := s[kind+"@"+info.Class]; ok {
			return o.Clone(), true
		}
	}
	o, ok := s[kind]
	return o.Clone(), ok
}

// Provider returns a DefaultsProvider serving s.
func (s StaticDefaults) Provider() DefaultsProvider {
	return func(context.Context) (DefaultsFactory, error) { return s, nil }
}
