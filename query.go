package ecs

// QueryMask is the include/exclude/any-of triple identifying a query. Since
// Signature is an order-independent bitset, two masks built from the same
// components in different call order compare equal — query(A).And(B) and
// query(B).And(A) necessarily hash to the same cache entry.
type QueryMask struct {
	Include Signature
	Exclude Signature
	AnyOf   Signature
}

// QueryHandle is a live, incrementally-maintained view over every archetype
// matching a QueryMask. New archetypes are folded in as they're created
// instead of rescanning the graph, mirroring the cached archetype list
// delaneyj-arche's Storage keeps per query.
type QueryHandle struct {
	registry   *QueryRegistry
	mask       QueryMask
	archetypes []*Archetype
}

// Archetypes returns every matching archetype that currently holds at
// least one entity.
func (q *QueryHandle) Archetypes() []*Archetype {
	out := make([]*Archetype, 0, len(q.archetypes))
	for _, a := range q.archetypes {
		if a.RowCount() > 0 {
			out = append(out, a)
		}
	}
	return out
}

// ArchetypeCount returns the total number of archetypes matching this
// handle's mask, including any that currently hold no entities — unlike
// Archetypes, which only iterates non-empty ones.
func (q *QueryHandle) ArchetypeCount() int {
	return len(q.archetypes)
}

// EntityCount returns the total number of entities across every matching
// archetype.
func (q *QueryHandle) EntityCount() int {
	n := 0
	for _, a := range q.archetypes {
		n += a.RowCount()
	}
	return n
}

// And returns the cached handle for this mask with the given components
// additionally required, in whatever order they're later queried in — the
// identity is independent of composition order or grouping.
func (q *QueryHandle) And(components ...ComponentId) *QueryHandle {
	m := q.mask
	for _, c := range components {
		m.Include = m.Include.With(c)
	}
	return q.registry.handleFor(m)
}

// Not returns the cached handle for this mask with the given components
// additionally excluded.
func (q *QueryHandle) Not(components ...ComponentId) *QueryHandle {
	m := q.mask
	for _, c := range components {
		m.Exclude = m.Exclude.With(c)
	}
	return q.registry.handleFor(m)
}

// AnyOf returns the cached handle for this mask additionally requiring at
// least one of the given components.
func (q *QueryHandle) AnyOf(components ...ComponentId) *QueryHandle {
	m := q.mask
	for _, c := range components {
		m.AnyOf = m.AnyOf.With(c)
	}
	return q.registry.handleFor(m)
}

// QueryRegistry caches one QueryHandle per distinct QueryMask and keeps
// every handle's archetype list current as the graph grows.
type QueryRegistry struct {
	graph   *ArchetypeGraph
	handles map[QueryMask]*QueryHandle
}

// NewQueryRegistry returns a registry backed by graph. It subscribes to the
// graph so every handle it creates stays live as new archetypes appear.
func NewQueryRegistry(graph *ArchetypeGraph) *QueryRegistry {
	r := &QueryRegistry{graph: graph, handles: make(map[QueryMask]*QueryHandle)}
	graph.Subscribe(r.onNewArchetype)
	return r
}

func (r *QueryRegistry) onNewArchetype(a *Archetype) {
	for mask, h := range r.handles {
		if !a.signature.Contains(mask.Include) {
			continue
		}
		if a.signature.Intersects(mask.Exclude) {
			continue
		}
		if !mask.AnyOf.IsEmpty() && !a.signature.Intersects(mask.AnyOf) {
			continue
		}
		h.archetypes = append(h.archetypes, a)
	}
}

// handleFor returns the handle for mask, building and caching its initial
// archetype list from the graph's inverted index the first time mask is
// seen.
func (r *QueryRegistry) handleFor(mask QueryMask) *QueryHandle {
	if h, ok := r.handles[mask]; ok {
		return h
	}
	h := &QueryHandle{
		registry:   r,
		mask:       mask,
		archetypes: r.graph.MatchingArchetypes(mask.Include, mask.Exclude, mask.AnyOf),
	}
	r.handles[mask] = h
	return h
}

// Query returns the cached handle requiring every given component, creating
// it on first use.
func (r *QueryRegistry) Query(components ...ComponentId) *QueryHandle {
	var include Signature
	for _, c := range components {
		include = include.With(c)
	}
	return r.handleFor(QueryMask{Include: include})
}
