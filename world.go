package ecs

import (
	"github.com/oasys-works/aecs/events"
	"github.com/oasys-works/aecs/resources"
)

// WorldOptions configures a World at construction. The zero value is
// usable: every field falls back to the scheduler's own defaults.
type WorldOptions struct {
	// FixedTimestep is the seconds-per-step used by the FixedUpdate phase.
	// Zero means 1/60.
	FixedTimestep float64
	// MaxFixedSteps caps how many FixedUpdate steps run per Update call.
	// Zero means 4.
	MaxFixedSteps int
}

// World is the public facade over the component registry, archetype graph,
// entity directory, query cache, deferred buffers, and phase scheduler —
// the same role lazyecs.World plays, generalized from a Go-generic
// component API to this package's runtime schema model.
type World struct {
	registry  *ComponentRegistry
	graph     *ArchetypeGraph
	directory *EntityDirectory
	queries   *QueryRegistry
	deferred  *DeferredBuffers
	scheduler *Scheduler
	resources *resources.Store
	events    *events.Bus
}

// NewWorld constructs a ready-to-use World.
func NewWorld(opts WorldOptions) (*World, error) {
	registry := NewComponentRegistry()
	graph, err := NewArchetypeGraph(registry)
	if err != nil {
		return nil, err
	}
	return &World{
		registry:  registry,
		graph:     graph,
		directory: NewEntityDirectory(),
		queries:   NewQueryRegistry(graph),
		deferred:  NewDeferredBuffers(),
		scheduler: NewScheduler(opts.FixedTimestep, opts.MaxFixedSteps),
		resources: resources.NewStore(),
		events:    events.NewBus(),
	}, nil
}

// RegisterComponent registers schema and returns its ComponentId.
func (w *World) RegisterComponent(schema Schema) (ComponentId, error) {
	return w.registry.Register(schema)
}

// RegisterUniformComponent is shorthand for registering a component whose
// fields all share one scalar type.
func (w *World) RegisterUniformComponent(scalarType ScalarType, fieldNames ...string) (ComponentId, error) {
	schema, err := UniformSchema(scalarType, fieldNames...)
	if err != nil {
		return 0, err
	}
	return w.registry.Register(schema)
}

// RegisterTag registers a zero-field component used only to mark entities.
func (w *World) RegisterTag() (ComponentId, error) {
	return w.registry.RegisterTag()
}

// CreateEntity creates a new entity with no components and returns its id.
func (w *World) CreateEntity() (EntityId, error) {
	id, err := w.directory.Create()
	if err != nil {
		return 0, err
	}
	empty := w.graph.Empty()
	row := empty.AddEntity(id)
	w.directory.SetLocation(id, empty.id, row)
	return id, nil
}

// IsAlive reports whether id names a currently-live entity.
func (w *World) IsAlive(id EntityId) bool { return w.directory.IsAlive(id) }

// EntityCount returns the number of currently-alive entities.
func (w *World) EntityCount() int { return w.directory.LiveCount() }

// DestroyEntity removes id and every component it carries immediately,
// relocating whatever entity the swap-and-pop displaces.
func (w *World) DestroyEntity(id EntityId) error {
	archID, row, ok := w.directory.Locate(id)
	if !ok {
		if checkedBuild {
			return newKernelError(EntityGone, id.String()+" is not alive")
		}
		return nil
	}
	a := w.graph.archetypes[archID]
	swapped, swappedRow := a.RemoveRow(row)
	if swappedRow != NO_SWAP {
		w.directory.SetLocation(swapped, archID, swappedRow)
	}
	return w.directory.Destroy(id)
}

// DestroyEntityDeferred queues id for destruction at the next Flush.
func (w *World) DestroyEntityDeferred(id EntityId) {
	w.deferred.DeferDestroy(id)
}

// AddComponent attaches component to id immediately, moving it to the
// archetype that adding component reaches and writing any supplied field
// values. If id already carries component, this only overwrites its
// fields. values may be nil to leave fields zeroed (or untouched, if
// already present).
func (w *World) AddComponent(id EntityId, component ComponentId, values map[string]float64) error {
	archID, row, ok := w.directory.Locate(id)
	if !ok {
		if checkedBuild {
			return newKernelError(EntityGone, id.String()+" is not alive")
		}
		return nil
	}
	from := w.graph.archetypes[archID]
	if from.HasComponent(component) {
		if values == nil {
			return nil
		}
		return from.WriteFields(row, component, values)
	}
	to, colMap, err := w.graph.ResolveAdd(from, component)
	if err != nil {
		return err
	}
	newRow := w.moveEntity(id, from, row, to, colMap)
	if values == nil {
		return nil
	}
	return to.WriteFields(newRow, component, values)
}

// AddComponentDeferred queues component (with optional field values) to be
// added to id at the next Flush.
func (w *World) AddComponentDeferred(id EntityId, component ComponentId, values map[string]float64) {
	w.deferred.DeferAdd(id, component, values)
}

// ComponentValue pairs a component with the field values an Add* call
// should write at the destination row; Values may be nil to leave the
// component's fields zeroed.
type ComponentValue struct {
	Component ComponentId
	Values    map[string]float64
}

// AddComponents attaches every listed component to id in a single move:
// it walks the add edges through the whole entry list to compute the final
// destination archetype (not one incremental move per component), then
// writes every new component's fields at that row. Components already
// present on id are left out of the walk and simply have their fields
// overwritten in place.
func (w *World) AddComponents(id EntityId, entries []ComponentValue) error {
	archID, row, ok := w.directory.Locate(id)
	if !ok {
		if checkedBuild {
			return newKernelError(EntityGone, id.String()+" is not alive")
		}
		return nil
	}
	from := w.graph.archetypes[archID]
	target := from
	for _, e := range entries {
		if target.HasComponent(e.Component) {
			continue
		}
		var err error
		target, _, err = w.graph.ResolveAdd(target, e.Component)
		if err != nil {
			return err
		}
	}

	destRow := row
	dest := from
	if target != from {
		colMap := buildTransitionMap(target, from)
		destRow = w.moveEntity(id, from, row, target, colMap)
		dest = target
	}
	for _, e := range entries {
		if e.Values == nil {
			continue
		}
		if err := dest.WriteFields(destRow, e.Component, e.Values); err != nil {
			return err
		}
	}
	return nil
}

// AddComponentsDeferred queues every entry to be added to id at the next
// Flush. Entries are decomposed into independent per-component deferred
// adds, so the usual last-values-win/dead-entity-skip rules apply entry by
// entry, exactly as if each had been deferred with AddComponentDeferred.
func (w *World) AddComponentsDeferred(id EntityId, entries []ComponentValue) {
	for _, e := range entries {
		w.deferred.DeferAdd(id, e.Component, e.Values)
	}
}

// RemoveComponents detaches every listed component from id in a single
// move, computed the same way as AddComponents: the final destination
// archetype is resolved by walking all the remove edges first, then one
// move is performed. Components id doesn't carry are silently skipped.
func (w *World) RemoveComponents(id EntityId, components []ComponentId) error {
	archID, row, ok := w.directory.Locate(id)
	if !ok {
		if checkedBuild {
			return newKernelError(EntityGone, id.String()+" is not alive")
		}
		return nil
	}
	from := w.graph.archetypes[archID]
	target := from
	for _, c := range components {
		if !target.HasComponent(c) {
			continue
		}
		var err error
		target, _, err = w.graph.ResolveRemove(target, c)
		if err != nil {
			return err
		}
	}
	if target == from {
		return nil
	}
	colMap := buildTransitionMap(target, from)
	w.moveEntity(id, from, row, target, colMap)
	return nil
}

// RemoveComponentsDeferred queues every listed component to be removed from
// id at the next Flush, one independent deferred removal per component.
func (w *World) RemoveComponentsDeferred(id EntityId, components []ComponentId) {
	for _, c := range components {
		w.deferred.DeferRemove(id, c)
	}
}

// BatchAddComponent moves every entity currently in archID onto the
// archetype reached by adding component, in one shot: one bulk copy per
// column instead of one move per entity. If archID already carries
// component, this only overwrites values (for every row) in place. values
// may be nil to leave the new component's fields zeroed.
func (w *World) BatchAddComponent(archID ArchetypeId, component ComponentId, values map[string]float64) error {
	from, err := w.graph.byID(archID)
	if err != nil {
		return err
	}
	if from.HasComponent(component) {
		if values == nil {
			return nil
		}
		for row := range from.entities {
			if err := from.WriteFields(row, component, values); err != nil {
				return err
			}
		}
		return nil
	}
	to, colMap, err := w.graph.ResolveAdd(from, component)
	if err != nil {
		return err
	}
	startRow := len(to.entities)
	ids := to.MoveAllFrom(from, colMap)
	for i, id := range ids {
		w.directory.SetLocation(id, to.id, startRow+i)
	}
	if values == nil {
		return nil
	}
	for i := range ids {
		if err := to.WriteFields(startRow+i, component, values); err != nil {
			return err
		}
	}
	return nil
}

// BatchRemoveComponent moves every entity currently in archID onto the
// archetype reached by removing component, in one shot. A no-op if archID
// doesn't carry component.
func (w *World) BatchRemoveComponent(archID ArchetypeId, component ComponentId) error {
	from, err := w.graph.byID(archID)
	if err != nil {
		return err
	}
	if !from.HasComponent(component) {
		return nil
	}
	to, colMap, err := w.graph.ResolveRemove(from, component)
	if err != nil {
		return err
	}
	startRow := len(to.entities)
	ids := to.MoveAllFrom(from, colMap)
	for i, id := range ids {
		w.directory.SetLocation(id, to.id, startRow+i)
	}
	return nil
}

// RemoveComponent detaches component from id immediately, moving it to the
// archetype that removing component reaches. A no-op if id doesn't carry
// component.
func (w *World) RemoveComponent(id EntityId, component ComponentId) error {
	archID, row, ok := w.directory.Locate(id)
	if !ok {
		if checkedBuild {
			return newKernelError(EntityGone, id.String()+" is not alive")
		}
		return nil
	}
	from := w.graph.archetypes[archID]
	if !from.HasComponent(component) {
		return nil
	}
	to, colMap, err := w.graph.ResolveRemove(from, component)
	if err != nil {
		return err
	}
	w.moveEntity(id, from, row, to, colMap)
	return nil
}

// RemoveComponentDeferred queues component to be removed from id at the
// next Flush.
func (w *World) RemoveComponentDeferred(id EntityId, component ComponentId) {
	w.deferred.DeferRemove(id, component)
}

// HasComponent reports whether id currently carries component.
func (w *World) HasComponent(id EntityId, component ComponentId) bool {
	archID, _, ok := w.directory.Locate(id)
	if !ok {
		return false
	}
	return w.graph.archetypes[archID].HasComponent(component)
}

// GetField reads one field of one component on id.
func (w *World) GetField(id EntityId, component ComponentId, field string) (float64, error) {
	archID, row, ok := w.directory.Locate(id)
	if !ok {
		return 0, newKernelError(EntityGone, id.String()+" is not alive")
	}
	a := w.graph.archetypes[archID]
	scalarType, data, err := a.GetColumn(component, field)
	if err != nil {
		return 0, err
	}
	return readScalar(scalarType, data, row), nil
}

// SetField writes one field of one component already present on id.
func (w *World) SetField(id EntityId, component ComponentId, field string, value float64) error {
	archID, row, ok := w.directory.Locate(id)
	if !ok {
		return newKernelError(EntityGone, id.String()+" is not alive")
	}
	a := w.graph.archetypes[archID]
	return a.WriteFields(row, component, map[string]float64{field: value})
}

// moveEntity relocates id from (from, fromRow) to target using colMap, and
// fixes up the directory entry of whatever entity the swap-and-pop on from
// displaces. It returns id's new row on target.
func (w *World) moveEntity(id EntityId, from *Archetype, fromRow int, target *Archetype, colMap []int) int {
	newRow, swapped, swappedRow := target.MoveFrom(from, fromRow, id, colMap)
	w.directory.SetLocation(id, target.id, newRow)
	if swappedRow != NO_SWAP {
		w.directory.SetLocation(swapped, from.id, swappedRow)
	}
	return newRow
}

// Query returns the cached, live-updated handle for every archetype
// carrying every given component.
func (w *World) Query(components ...ComponentId) *QueryHandle {
	return w.queries.Query(components...)
}

// Flush applies every deferred add, then every deferred remove, then every
// deferred destroy, skipping any entry whose entity is no longer alive.
func (w *World) Flush() error {
	return w.deferred.Flush(
		w.directory.IsAlive,
		func(e EntityId, c ComponentId, v map[string]float64) error { return w.AddComponent(e, c, v) },
		func(e EntityId, c ComponentId) error { return w.RemoveComponent(e, c) },
		func(e EntityId) error { return w.DestroyEntity(e) },
	)
}

// AddSystem registers fn under name in phase.
func (w *World) AddSystem(phase Phase, name string, fn SystemFunc, opts ...SystemOption) error {
	return w.scheduler.AddSystem(phase, name, fn, opts...)
}

// RemoveSystem unregisters name from phase, if present.
func (w *World) RemoveSystem(phase Phase, name string) {
	w.scheduler.RemoveSystem(phase, name)
}

// RunStartup runs PreStartup, Startup, and PostStartup once each.
func (w *World) RunStartup() error {
	return w.scheduler.RunStartup(w)
}

// RunUpdate advances one tick: zero or more FixedUpdate steps, then
// PreUpdate, Update, and PostUpdate, then clears the event bus.
func (w *World) RunUpdate(dt float64) error {
	if err := w.scheduler.RunUpdate(w, dt); err != nil {
		return err
	}
	w.events.Clear()
	return nil
}

// FixedAlpha returns the current FixedUpdate interpolation factor.
func (w *World) FixedAlpha() float64 { return w.scheduler.FixedAlpha() }

// Archetypes returns every archetype the world has ever created, in
// creation order, for inspection tooling. The returned slice is a live
// view into the graph; callers should treat it as read-only.
func (w *World) Archetypes() []*Archetype { return w.graph.All() }

// SetResource installs the world-scoped singleton value of type T.
func SetResource[T any](w *World, value T) { resources.Set(w.resources, value) }

// Resource returns the world-scoped singleton value of type T, if set.
func Resource[T any](w *World) (T, bool) { return resources.Get[T](w.resources) }

// EmitEvent appends ev to this tick's event queue for its type.
func EmitEvent[T any](w *World, ev T) { events.Emit(w.events, ev) }

// ReadEvents returns every value of type T emitted so far this tick.
func ReadEvents[T any](w *World) []T { return events.Read[T](w.events) }
