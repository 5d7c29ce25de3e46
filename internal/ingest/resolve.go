package ingest

import (
	"context"
	"fmt"
)

// Lookup finds the class of a student by exact name.
type Lookup func(ctx context.Context, name string) (class string, found bool, err error)

// Resolver fills in the class of rows that arrived without one.
type Resolver interface {
	Resolve(ctx context.Context, name string) (class string, found bool, err error)
}

type resolved struct {
	class string
	found bool
}

// ClassResolver tries each lookup in order and remembers the answer, found or
// not, for the lifetime of the resolver. Create one per upload; it is not safe
// for concurrent use.
type ClassResolver struct {
	lookups []Lookup
	cache   map[string]resolved
}

// NewClassResolver builds a resolver over the given lookups.
func NewClassResolver(lookups ...Lookup) *ClassResolver {
	return &ClassResolver{lookups: lookups, cache: make(map[string]resolved)}
}

// Resolve returns the class recorded for name.
func (r *ClassResolver) Resolve(ctx context.Context, name string) (string, bool, error) {
	if hit, ok := r.cache[name]; ok {
		return hit.class, hit.found, nil
	}
	for i, lookup := range r.lookups {
		class, found, err := lookup(ctx, name)
		if err != nil {
			return "", false, fmt.Errorf("class lookup %d for %q: %w", i, name, err)
		}
		if found && class != "" {
			r.cache[name] = resolved{class: class, found: true}
			return class, true, nil
		}
	}
	r.cache[name] = resolved{}
	return "", false, nil
}
