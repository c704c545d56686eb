package ecs

import "testing"

func TestQueryHandleIdentityIsOrderIndependent(t *testing.T) {
	r, posID, hpID, _ := newTestRegistry(t)
	g, _ := NewArchetypeGraph(r)
	reg := NewQueryRegistry(g)

	ab := reg.Query(posID).And(hpID)
	ba := reg.Query(hpID).And(posID)
	both := reg.Query(posID, hpID)

	if ab != ba {
		t.Errorf("query(A).And(B) and query(B).And(A) must return the same cached handle")
	}
	if ab != both {
		t.Errorf("query(A).And(B) and query(A,B) must return the same cached handle")
	}
}

func TestQueryHandleTracksNewArchetypes(t *testing.T) {
	r, posID, _, _ := newTestRegistry(t)
	g, _ := NewArchetypeGraph(r)
	reg := NewQueryRegistry(g)

	h := reg.Query(posID)
	if h.ArchetypeCount() != 0 {
		t.Fatalf("expected no matching archetypes yet")
	}

	empty := g.Empty()
	withPos, _, err := g.ResolveAdd(empty, posID)
	if err != nil {
		t.Fatalf("ResolveAdd: %v", err)
	}
	e0, _ := packEntityId(0, 0)
	withPos.AddEntity(e0)

	if h.ArchetypeCount() != 1 {
		t.Errorf("expected the handle to pick up the newly created archetype, got count %d", h.ArchetypeCount())
	}
	if h.EntityCount() != 1 {
		t.Errorf("EntityCount() = %d, want 1", h.EntityCount())
	}
}

func TestQueryHandleArchetypeCountIncludesEmptyArchetypes(t *testing.T) {
	r, posID, _, _ := newTestRegistry(t)
	g, _ := NewArchetypeGraph(r)
	reg := NewQueryRegistry(g)

	empty := g.Empty()
	withPos, _, _ := g.ResolveAdd(empty, posID)

	h := reg.Query(posID)
	if h.ArchetypeCount() != 1 {
		t.Fatalf("expected ArchetypeCount to count the archetype as soon as it's created, even with zero rows")
	}
	if got := len(h.Archetypes()); got != 0 {
		t.Errorf("expected Archetypes() to skip the empty archetype, got %d", got)
	}
	e0, _ := packEntityId(0, 0)
	withPos.AddEntity(e0)
	if h.ArchetypeCount() != 1 {
		t.Errorf("expected archetype count to stay at 1 once it holds a row")
	}
	if got := len(h.Archetypes()); got != 1 {
		t.Errorf("expected Archetypes() to include the archetype once it holds a row, got %d", got)
	}
}
