package ecs

// unassignedArchetype marks a directory slot whose entity has been created
// but not yet placed into an archetype (never observable outside this
// package — CreateEntity places the row before returning).
const unassignedArchetype ArchetypeId = -1

// entitySlot is one index's worth of directory state: which generation is
// currently live there, and where that entity's row lives.
type entitySlot struct {
	generation uint32
	archetype  ArchetypeId
	row        int
	alive      bool
}

// EntityDirectory maps entity indices to (archetype, row) and owns
// generation counters and the free-index list, mirroring lazyecs's
// entityMeta table plus its free-list recycling in World.
type EntityDirectory struct {
	slots     []entitySlot
	freeList  []uint32 // LIFO, matching lazyecs's stack-ordered free-slot reuse
	highWater uint32
}

// NewEntityDirectory returns an empty directory.
func NewEntityDirectory() *EntityDirectory {
	return &EntityDirectory{}
}

// Create allocates a fresh index (recycling from the free list when
// available) at the index's current generation and marks it alive, but does
// not yet place it into any archetype — callers must follow with SetLocation.
func (d *EntityDirectory) Create() (EntityId, error) {
	var index uint32
	if n := len(d.freeList); n > 0 {
		index = d.freeList[n-1]
		d.freeList = d.freeList[:n-1]
	} else {
		if d.highWater >= maxIndex {
			return 0, newKernelError(Capacity, "entity index space exhausted")
		}
		index = d.highWater
		d.highWater++
		d.slots = append(d.slots, entitySlot{archetype: unassignedArchetype})
	}
	slot := &d.slots[index]
	slot.alive = true
	slot.archetype = unassignedArchetype
	slot.row = 0
	id, err := packEntityId(index, slot.generation)
	if err != nil {
		slot.alive = false
		return 0, err
	}
	return id, nil
}

// Destroy marks id's index dead, bumps its generation modulo 2^11 (wrapping
// silently rather than erroring), and returns the index to the free list.
func (d *EntityDirectory) Destroy(id EntityId) error {
	if !d.IsAlive(id) {
		return newKernelError(EntityGone, id.String()+" is not alive")
	}
	index, _ := unpackEntityId(id)
	slot := &d.slots[index]
	slot.alive = false
	slot.archetype = unassignedArchetype
	slot.generation = (slot.generation + 1) % maxGeneration
	d.freeList = append(d.freeList, index)
	return nil
}

// IsAlive reports whether id names a currently-live entity: its index is
// within range, marked alive, and its generation matches the slot's.
func (d *EntityDirectory) IsAlive(id EntityId) bool {
	index, generation := unpackEntityId(id)
	if index >= uint32(len(d.slots)) {
		return false
	}
	slot := &d.slots[index]
	return slot.alive && slot.generation == generation
}

// SetLocation records where id's row currently lives. Callers must only
// call this for a live id.
func (d *EntityDirectory) SetLocation(id EntityId, archetype ArchetypeId, row int) {
	index, _ := unpackEntityId(id)
	slot := &d.slots[index]
	slot.archetype = archetype
	slot.row = row
}

// Locate returns id's current (archetype, row). The second return is false
// if id is not alive.
func (d *EntityDirectory) Locate(id EntityId) (ArchetypeId, int, bool) {
	if !d.IsAlive(id) {
		return 0, 0, false
	}
	index, _ := unpackEntityId(id)
	slot := &d.slots[index]
	return slot.archetype, slot.row, true
}

// CurrentId returns the EntityId currently occupying index, regardless of
// liveness, using the slot's live generation counter. Used to resolve the
// EntityId of an entity swapped into another row during removal.
func (d *EntityDirectory) CurrentId(index uint32) EntityId {
	slot := &d.slots[index]
	id, _ := packEntityId(index, slot.generation)
	return id
}

// Len returns the high-water mark: one past the largest index ever
// allocated.
func (d *EntityDirectory) Len() int { return int(d.highWater) }

// LiveCount returns the number of currently-alive entities.
func (d *EntityDirectory) LiveCount() int {
	n := 0
	for i := range d.slots {
		if d.slots[i].alive {
			n++
		}
	}
	return n
}
