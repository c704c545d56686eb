package ecs

// Stats is a point-in-time snapshot of world size, the substitute this
// kernel offers in place of any logging output — callers that want
// visibility poll Stats() and log it themselves in whatever format their
// application already uses, the same separation delaneyj-arche draws by
// putting size reporting in its own ecs/stats package rather than writing
// to a logger from inside Storage.
type Stats struct {
	EntityCount      int
	ArchetypeCount   int
	ComponentCount   int
	LiveArchetypeCount int // archetypes currently holding at least one entity
}

// Stats returns a snapshot of the world's current size.
func (w *World) Stats() Stats {
	live := 0
	for _, a := range w.graph.archetypes {
		if a.RowCount() > 0 {
			live++
		}
	}
	return Stats{
		EntityCount:        w.directory.LiveCount(),
		ArchetypeCount:     len(w.graph.archetypes),
		ComponentCount:     w.registry.Len(),
		LiveArchetypeCount: live,
	}
}
