// Package entityref provides a single-entity accessor cached behind a weak
// pointer, the same role ooftn's ecs/storage.go CreateEntityRef/
// ResolveEntityRef pair plays: a caller that wants to hold on to "this
// specific entity" across several frames gets a handle that resolves
// cheaply without the caller ever needing to worry about stale
// (archetype, row) locations after a structural change.
package entityref

import (
	"weak"

	"github.com/kamstrup/intmap"
	"github.com/oasys-works/aecs"
)

// Ref is a thin accessor bound to one entity id. It holds no cached
// location: every call delegates to the world, so it stays correct across
// archetype moves without needing to be invalidated itself.
type Ref struct {
	world *ecs.World
	id    ecs.EntityId
}

// Id returns the entity id this ref points at.
func (r *Ref) Id() ecs.EntityId { return r.id }

// IsAlive reports whether the underlying entity still exists.
func (r *Ref) IsAlive() bool { return r.world.IsAlive(r.id) }

// Has reports whether the entity currently carries component.
func (r *Ref) Has(component ecs.ComponentId) bool { return r.world.HasComponent(r.id, component) }

// GetField reads one field of one component on the entity.
func (r *Ref) GetField(component ecs.ComponentId, field string) (float64, error) {
	return r.world.GetField(r.id, component, field)
}

// SetField writes one field of one component already present on the
// entity.
func (r *Ref) SetField(component ecs.ComponentId, field string, value float64) error {
	return r.world.SetField(r.id, component, field, value)
}

// AddComponent attaches component to the entity immediately.
func (r *Ref) AddComponent(component ecs.ComponentId, values map[string]float64) error {
	return r.world.AddComponent(r.id, component, values)
}

// RemoveComponent detaches component from the entity immediately.
func (r *Ref) RemoveComponent(component ecs.ComponentId) error {
	return r.world.RemoveComponent(r.id, component)
}

// Destroy removes the entity immediately.
func (r *Ref) Destroy() error { return r.world.DestroyEntity(r.id) }

// Cache resolves EntityIds to *Ref, reusing a previously-resolved Ref as
// long as something else still holds a strong reference to it, and
// allocating a fresh one once the old one's been collected — the same
// weak.Pointer[T] + intmap.Map keying ooftn's EntityRef cache uses, so
// repeatedly resolving the same hot entity doesn't churn the allocator.
type Cache struct {
	byEntity *intmap.Map[ecs.EntityId, weak.Pointer[Ref]]
}

// NewCache returns an empty ref cache with room for initialCapacity
// entries before its first resize.
func NewCache(initialCapacity int) *Cache {
	return &Cache{byEntity: intmap.New[ecs.EntityId, weak.Pointer[Ref]](initialCapacity)}
}

// Resolve returns the Ref for id, reusing a cached one if it's still live.
func (c *Cache) Resolve(world *ecs.World, id ecs.EntityId) *Ref {
	if wp, ok := c.byEntity.Get(id); ok {
		if r := wp.Value(); r != nil {
			return r
		}
	}
	r := &Ref{world: world, id: id}
	c.byEntity.Put(id, weak.Make(r))
	return r
}

// Invalidate drops any cached Ref for id, so the next Resolve for id
// allocates a fresh one. Entries are keyed by the full generational id, so
// a recycled index already resolves to a different Ref without this.
func (c *Cache) Invalidate(id ecs.EntityId) {
	c.byEntity.Del(id)
}

// Clear drops every cached Ref, e.g. after a flush that may have destroyed
// entities the cache doesn't individually know about.
func (c *Cache) Clear() {
	c.byEntity.Clear()
}
