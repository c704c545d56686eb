// Package ecs provides the core of an archetype-based Entity-Component-System.
package ecs

import "fmt"

const (
	indexBits      = 20
	generationBits = 11
	maxIndex       = 1 << indexBits
	maxGeneration  = 1 << generationBits
)

// EntityId packs a slot index (low 20 bits) and a generation (high 11 bits)
// into a single comparable integer. Two ids are equal iff both fields match.
type EntityId uint32

// NoEntity is the zero value, returned alongside NO_SWAP when no entity was
// displaced. It packs index 0 at generation 0, so it compares equal to the
// first id a fresh EntityDirectory hands out.
const NoEntity EntityId = 0

// packEntityId combines index and generation into an EntityId.
// It fails with InvalidOperation if either field overflows its bit width.
func packEntityId(index, generation uint32) (EntityId, error) {
	if index >= maxIndex {
		return 0, newKernelError(InvalidOperation, fmt.Sprintf("entity index %d exceeds %d slots", index, maxIndex))
	}
	if generation >= maxGeneration {
		return 0, newKernelError(InvalidOperation, fmt.Sprintf("entity generation %d exceeds %d reuses", generation, maxGeneration))
	}
	return EntityId(index | (generation << indexBits)), nil
}

// unpackEntityId splits an EntityId back into its index and generation.
func unpackEntityId(id EntityId) (index, generation uint32) {
	v := uint32(id)
	return v & (maxIndex - 1), v >> indexBits
}

// Index returns the slot index encoded in the id.
func (id EntityId) Index() uint32 {
	index, _ := unpackEntityId(id)
	return index
}

// Generation returns the generation encoded in the id.
func (id EntityId) Generation() uint32 {
	_, generation := unpackEntityId(id)
	return generation
}

func (id EntityId) String() string {
	index, generation := unpackEntityId(id)
	return fmt.Sprintf("Entity(%d#%d)", index, generation)
}
