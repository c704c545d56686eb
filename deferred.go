package ecs

// deferredKey identifies one (entity, component) pair inside a deferred
// buffer, for de-duplicating repeated add/remove calls before flush.
type deferredKey struct {
	Entity    EntityId
	Component ComponentId
}

type pendingAdd struct {
	entity    EntityId
	component ComponentId
	values    map[string]float64
}

type pendingRemove struct {
	entity    EntityId
	component ComponentId
}

// DeferredBuffers accumulates structural changes issued mid-phase so they
// can be applied in one fixed-order batch (adds, then removes, then
// destroys) at phase end, the same role warehouse's operation_queue plays
// for Storage — generalized here into three typed batches instead of one
// polymorphic op list, since add/remove/destroy carry different payloads.
type DeferredBuffers struct {
	adds     []pendingAdd
	addIndex map[deferredKey]int

	removes     []pendingRemove
	removeIndex map[deferredKey]struct{}

	destroys   []EntityId
	destroySet map[EntityId]struct{}
}

// NewDeferredBuffers returns an empty set of buffers.
func NewDeferredBuffers() *DeferredBuffers {
	return &DeferredBuffers{
		addIndex:    make(map[deferredKey]int),
		removeIndex: make(map[deferredKey]struct{}),
		destroySet:  make(map[EntityId]struct{}),
	}
}

// DeferAdd records component to be added to entity at the next flush. If
// entity/component was already deferred this buffer, its values are
// overwritten — the last call before flush wins.
func (d *DeferredBuffers) DeferAdd(entity EntityId, component ComponentId, values map[string]float64) {
	key := deferredKey{entity, component}
	if idx, ok := d.addIndex[key]; ok {
		d.adds[idx].values = values
		return
	}
	d.addIndex[key] = len(d.adds)
	d.adds = append(d.adds, pendingAdd{entity: entity, component: component, values: values})
}

// DeferRemove records component to be removed from entity at the next
// flush. Repeated calls for the same pair collapse into one.
func (d *DeferredBuffers) DeferRemove(entity EntityId, component ComponentId) {
	key := deferredKey{entity, component}
	if _, ok := d.removeIndex[key]; ok {
		return
	}
	d.removeIndex[key] = struct{}{}
	d.removes = append(d.removes, pendingRemove{entity: entity, component: component})
}

// DeferDestroy records entity to be destroyed at the next flush. A second
// call for an already-pending entity is a no-op.
func (d *DeferredBuffers) DeferDestroy(entity EntityId) {
	if _, ok := d.destroySet[entity]; ok {
		return
	}
	d.destroySet[entity] = struct{}{}
	d.destroys = append(d.destroys, entity)
}

// Pending reports whether any operation is waiting to be flushed.
func (d *DeferredBuffers) Pending() bool {
	return len(d.adds) > 0 || len(d.removes) > 0 || len(d.destroys) > 0
}

// Flush applies every pending operation in the fixed order adds, removes,
// destroys. isAlive gates every entry: stale-generation references are
// skipped silently rather than erroring, matching warehouse's
// Valid()/Recycled() guards in ProcessAll. Callbacks report a real error
// only for a live entity that still fails (e.g. an unregistered
// component), which aborts the remainder of that phase's flush.
func (d *DeferredBuffers) Flush(
	isAlive func(EntityId) bool,
	applyAdd func(EntityId, ComponentId, map[string]float64) error,
	applyRemove func(EntityId, ComponentId) error,
	applyDestroy func(EntityId) error,
) error {
	for _, op := range d.adds {
		if !isAlive(op.entity) {
			continue
		}
		if err := applyAdd(op.entity, op.component, op.values); err != nil {
			return err
		}
	}
	for _, op := range d.removes {
		if !isAlive(op.entity) {
			continue
		}
		if err := applyRemove(op.entity, op.component); err != nil {
			return err
		}
	}
	for _, entity := range d.destroys {
		if !isAlive(entity) {
			continue
		}
		if err := applyDestroy(entity); err != nil {
			return err
		}
	}
	d.reset()
	return nil
}

func (d *DeferredBuffers) reset() {
	d.adds = d.adds[:0]
	for k := range d.addIndex {
		delete(d.addIndex, k)
	}
	d.removes = d.removes[:0]
	for k := range d.removeIndex {
		delete(d.removeIndex, k)
	}
	d.destroys = d.destroys[:0]
	for k := range d.destroySet {
		delete(d.destroySet, k)
	}
}
