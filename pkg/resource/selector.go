package resource

import (
	"fmt"
	"strings"
)

// Filter narrows a list of resources. It must preserve order.
type Filter func([]Resource) []Resource

// Selector is a declarative filter resolving a request against the
// available resources. The zero value matches everything. Selectors are
// values; every builder method returns a modified copy.
type Selector struct {
	classes []string
	tags    []string
	filters []Filter
}

// NewSelector returns an empty selector.
func NewSelector() Selector {
	return Selector{}
}

// RequireClass returns a selector that only matches resources of class.
func (s Selector) RequireClass(class string) Selector {
	out := s.clone()
	out.classes = append(out.classes, class)
	return out
}

// RequireTag returns a selector that only matches resources carrying tag.
func (s Selector) RequireTag(tag string) Selector {
	out := s.clone()
	out.tags = append(out.tags, tag)
	return out
}

// AddFilter returns a selector that additionally applies f.
func (s Selector) AddFilter(f Filter) Selector {
	out := s.clone()
	out.filters = append(out.filters, f)
	return out
}

// Merge returns a selector requiring the constraints of both s and other.
// Conflicting class requirements match nothing.
func (s Selector) Merge(other Selector) Selector {
	out := s.clone()
	out.classes = append(out.classes, other.classes...)
	out.tags = append(out.tags, other.tags...)
	out.filters = append(out.filters, other.filters...)
	return out
}

// IsZero reports whether the selector has no constraints.
func (s Selector) IsZero() bool {
	return len(s.classes) == 0 && len(s.tags) == 0 && len(s.filters) == 0
}

// Filter returns the resources satisfying every constraint, in input order.
func (s Selector) Filter(resources []Resource) []Resource {
	out := make([]Resource, 0, len(resources))
	for _, r := range resources {
		if s.matches(r.Info()) {
			out = append(out, r)
		}
	}
	for _, f := range s.filters {
		out = f(out)
	}
	return out
}

// Select returns the first resource satisfying the selector.
func (s Selector) Select(resources []Resource) (Resource, error) {
	matched := s.Filter(resources)
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatchingResource, s)
	}
	return matched[0], nil
}

// String describes the declarative constraints.
func (s Selector) String() string {
	var parts []string
	for _, c := range s.classes {
		parts = append(parts, "class="+c)
	}
	for _, t := range s.tags {
		parts = append(parts, "tag="+t)
	}
	if n := len(s.filters); n > 0 {
		parts = append(parts, fmt.Sprintf("filters=%d", n))
	}
	if len(parts) == 0 {
		return "selector{any}"
	}
	return "selector{" + strings.Join(parts, ",") + "}"
}

func (s Selector) matches(info Info) bool {
	for _, c := range s.classes {
		if info.Class != c {
			return false
		}
	}
	for _, t := range s.tags {
		if !info.HasTag(t) {
			return false
		}
	}
	return true
}

func (s Selector) clone() Selector {
	return Selector{
		classes: append([]string(nil), s.classes...),
		tags:    append([]string(nil), s.tags...),
		filters: append([]Filter(nil), s.filters...),
	}
}
