package ecs

import (
	"github.com/kamstrup/intmap"
)

// newArchetypeListener is notified whenever a brand new archetype is
// created, so a live query handle can decide whether to add it to its
// cached match list without rescanning the whole graph.
type newArchetypeListener func(*Archetype)

// ArchetypeGraph owns every archetype, deduplicated by signature (I3), the
// cached add/remove transition edges hung off each archetype (lazyecs's
// addTransitions/removeTransitions, generalized per-archetype instead of
// per-world so RemoveRow/AddEntity stay archetype-local), and an inverted
// ComponentId -> archetype index used to give queries a tight starting
// point instead of scanning every archetype.
type ArchetypeGraph struct {
	registry      *ComponentRegistry
	archetypes    []*Archetype
	bySignature   map[Signature]*Archetype
	invertedIndex map[ComponentId]*intmap.Map[ArchetypeId, struct{}]
	listeners     []newArchetypeListener
}

// NewArchetypeGraph returns a graph with the empty-signature archetype
// already created, matching lazyecs's root archetype for entities with no
// components.
func NewArchetypeGraph(registry *ComponentRegistry) (*ArchetypeGraph, error) {
	g := &ArchetypeGraph{
		registry:      registry,
		bySignature:   make(map[Signature]*Archetype),
		invertedIndex: make(map[ComponentId]*intmap.Map[ArchetypeId, struct{}]),
	}
	if _, _, err := g.getOrCreate(Signature{}); err != nil {
		return nil, err
	}
	return g, nil
}

// Subscribe registers fn to run on every subsequently-created archetype.
// Used by query handles to extend their cached match list incrementally.
func (g *ArchetypeGraph) Subscribe(fn newArchetypeListener) {
	g.listeners = append(g.listeners, fn)
}

// All returns every archetype in creation order.
func (g *ArchetypeGraph) All() []*Archetype { return g.archetypes }

// Empty returns the archetype with no components, the home of every
// entity created with no initial components.
func (g *ArchetypeGraph) Empty() *Archetype {
	a, _ := g.bySignature[Signature{}]
	return a
}

// byID returns the archetype for id, or InvalidOperation if id names no
// archetype the graph has ever created.
func (g *ArchetypeGraph) byID(id ArchetypeId) (*Archetype, error) {
	if id < 0 || int(id) >= len(g.archetypes) {
		return nil, newKernelError(InvalidOperation, "unknown archetype id")
	}
	return g.archetypes[id], nil
}

// getOrCreate returns the archetype for signature, creating and indexing
// one (and notifying listeners) if none exists yet.
func (g *ArchetypeGraph) getOrCreate(sig Signature) (*Archetype, bool, error) {
	if a, ok := g.bySignature[sig]; ok {
		return a, false, nil
	}
	a, err := newArchetype(ArchetypeId(len(g.archetypes)), sig, g.registry)
	if err != nil {
		return nil, false, err
	}
	g.archetypes = append(g.archetypes, a)
	g.bySignature[sig] = a
	for _, c := range sig.Components() {
		set, ok := g.invertedIndex[c]
		if !ok {
			set = intmap.New[ArchetypeId, struct{}](8)
			g.invertedIndex[c] = set
		}
		set.Put(a.id, struct{}{})
	}
	for _, fn := range g.listeners {
		fn(a)
	}
	return a, true, nil
}

// ResolveAdd returns the archetype reached by adding component to from,
// plus the flattened column transition map for MoveFrom, using and
// populating from's cached add edge.
func (g *ArchetypeGraph) ResolveAdd(from *Archetype, component ComponentId) (*Archetype, []int, error) {
	if edge, ok := from.GetEdge(component); ok && edge.AddTarget != nil {
		return edge.AddTarget, edge.AddColumnMap, nil
	}
	targetSig := from.signature.With(component)
	target, _, err := g.getOrCreate(targetSig)
	if err != nil {
		return nil, nil, err
	}
	colMap := buildTransitionMap(target, from)
	edge, ok := from.GetEdge(component)
	if !ok {
		edge = &Edge{}
	}
	edge.AddTarget = target
	edge.AddColumnMap = colMap
	from.SetEdge(component, edge)

	revEdge, ok := target.GetEdge(component)
	if !ok {
		revEdge = &Edge{}
	}
	if revEdge.RemoveTarget == nil {
		revEdge.RemoveTarget = from
		revEdge.RemoveColumnMap = buildTransitionMap(from, target)
		target.SetEdge(component, revEdge)
	}
	return target, colMap, nil
}

// ResolveRemove returns the archetype reached by removing component from
// from, plus its flattened column transition map, using and populating
// from's cached remove edge.
func (g *ArchetypeGraph) ResolveRemove(from *Archetype, component ComponentId) (*Archetype, []int, error) {
	if edge, ok := from.GetEdge(component); ok && edge.RemoveTarget != nil {
		return edge.RemoveTarget, edge.RemoveColumnMap, nil
	}
	targetSig := from.signature.Without(component)
	target, _, err := g.getOrCreate(targetSig)
	if err != nil {
		return nil, nil, err
	}
	colMap := buildTransitionMap(target, from)
	edge, ok := from.GetEdge(component)
	if !ok {
		edge = &Edge{}
	}
	edge.RemoveTarget = target
	edge.RemoveColumnMap = colMap
	from.SetEdge(component, edge)

	revEdge, ok := target.GetEdge(component)
	if !ok {
		revEdge = &Edge{}
	}
	if revEdge.AddTarget == nil {
		revEdge.AddTarget = from
		revEdge.AddColumnMap = buildTransitionMap(from, target)
		target.SetEdge(component, revEdge)
	}
	return target, colMap, nil
}

// buildTransitionMap produces, for each flattened (component, field) column
// of target in signature order, the flattened index that component/field
// occupies in source, or -1 if source doesn't carry it. MoveFrom only
// inspects the sign of each entry; the magnitude aids debugging.
func buildTransitionMap(target, source *Archetype) []int {
	var out []int
	srcCol := 0
	srcColOf := make(map[ComponentId]int, len(source.comps))
	for _, cc := range source.comps {
		srcColOf[cc.id] = srcCol
		srcCol += len(cc.columns)
	}
	for _, cc := range target.comps {
		for fi := range cc.columns {
			if base, ok := srcColOf[cc.id]; ok {
				out = append(out, base+fi)
			} else {
				out = append(out, -1)
			}
		}
	}
	return out
}

// MatchingArchetypes returns every archetype whose signature satisfies a
// query mask: contains every include bit, shares no exclude bit, and (if
// anyOf is non-empty) intersects anyOf. It starts from the include
// component with the smallest inverted-index bucket to avoid scanning
// archetypes that can't possibly match, mirroring the join-ordering
// intmap enables in ooftn's archetype lookups.
func (g *ArchetypeGraph) MatchingArchetypes(include, exclude, anyOf Signature) []*Archetype {
	includeIds := include.Components()
	var candidates []ArchetypeId
	if len(includeIds) == 0 {
		candidates = make([]ArchetypeId, len(g.archetypes))
		for i := range g.archetypes {
			candidates[i] = ArchetypeId(i)
		}
	} else {
		best := includeIds[0]
		bestLen := -1
		for _, c := range includeIds {
			set, ok := g.invertedIndex[c]
			n := 0
			if ok {
				n = set.Len()
			}
			if bestLen == -1 || n < bestLen {
				best = c
				bestLen = n
			}
		}
		set, ok := g.invertedIndex[best]
		if !ok {
			return nil
		}
		set.ForEach(func(id ArchetypeId, _ struct{}) bool {
			candidates = append(candidates, id)
			return true
		})
	}

	out := make([]*Archetype, 0, len(candidates))
	for _, id := range candidates {
		a := g.archetypes[id]
		if !a.signature.Contains(include) {
			continue
		}
		if a.signature.Intersects(exclude) {
			continue
		}
		if !anyOf.IsEmpty() && !a.signature.Intersects(anyOf) {
			continue
		}
		out = append(out, a)
	}
	return out
}
