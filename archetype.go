package ecs

import (
	"fmt"
	"unsafe"
)

// ArchetypeId indexes a flat vector of archetypes, never a pointer, to
// avoid back-references in the graph.
type ArchetypeId int

// column is one field's dense storage: a byte buffer of rowCount*Type.Size()
// bytes, row-major like lazyecs's per-component byte slices.
type column struct {
	fieldType ScalarType
	data      []byte
}

func (c *column) grow(rows int) {
	size := c.fieldType.Size()
	need := rows * size
	if cap(c.data) >= need {
		c.data = c.data[:need]
		return
	}
	newCap := max(2*cap(c.data), need)
	nd := make([]byte, need, newCap)
	copy(nd, c.data)
	c.data = nd
}

func (c *column) zeroRow(row int) {
	size := c.fieldType.Size()
	for i := row * size; i < (row+1)*size; i++ {
		c.data[i] = 0
	}
}

func (c *column) copyRow(dst, src int) {
	size := c.fieldType.Size()
	copy(c.data[dst*size:(dst+1)*size], c.data[src*size:(src+1)*size])
}

func (c *column) shrinkBy(rows int) {
	size := c.fieldType.Size()
	c.data = c.data[:len(c.data)-rows*size]
}

// Edge caches the archetype transition resulting from adding or removing a
// single component, plus the column-mapping table for each direction — the
// same node-local adjacency lazyecs keeps as Transition/CopyOp, generalized
// from Go-generic component types to this package's dynamic schema model.
type Edge struct {
	AddTarget      *Archetype
	RemoveTarget   *Archetype
	AddColumnMap   []int // len == len(columns(AddTarget)); src column index, or -1 if new
	RemoveColumnMap []int
}

// componentColumns holds every field column for one non-tag component.
type componentColumns struct {
	id      ComponentId
	schema  Schema
	columns []column // len == len(schema.Fields)
}

// Archetype is dense SoA storage for every entity sharing one signature.
type Archetype struct {
	id         ArchetypeId
	signature  Signature
	entities   []EntityId
	comps      []*componentColumns // sorted ascending by ComponentId
	compIndex  map[ComponentId]int // ComponentId -> index into comps
	edges      map[ComponentId]*Edge
}

// NO_SWAP is returned by RemoveRow when the removed row was already the
// tail, so no entity needed to be relocated.
const NO_SWAP = -1

func newArchetype(id ArchetypeId, signature Signature, registry *ComponentRegistry) (*Archetype, error) {
	a := &Archetype{
		id:        id,
		signature: signature,
		compIndex: make(map[ComponentId]int),
		edges:     make(map[ComponentId]*Edge),
	}
	for _, cid := range signature.Components() {
		schema, err := registry.SchemaOf(cid)
		if err != nil {
			return nil, err
		}
		cc := &componentColumns{id: cid, schema: schema}
		if !schema.IsTag() {
			cc.columns = make([]column, len(schema.Fields))
			for i, f := range schema.Fields {
				cc.columns[i] = column{fieldType: f.Type}
			}
		}
		a.compIndex[cid] = len(a.comps)
		a.comps = append(a.comps, cc)
	}
	return a, nil
}

// ID returns the archetype's identifier.
func (a *Archetype) ID() ArchetypeId { return a.id }

// Signature returns the archetype's component set.
func (a *Archetype) Signature() Signature { return a.signature }

// RowCount returns the number of entities currently stored.
func (a *Archetype) RowCount() int { return len(a.entities) }

// HasComponent reports whether the archetype's signature includes c.
func (a *Archetype) HasComponent(c ComponentId) bool { return a.signature.Has(c) }

// isTagOnly reports whether every component in the signature is a tag,
// enabling a fast path that skips the column loop entirely.
func (a *Archetype) isTagOnly() bool {
	for _, cc := range a.comps {
		if len(cc.columns) > 0 {
			return false
		}
	}
	return true
}

// AddEntity appends id to the entity array and a zeroed element to every
// column, returning the new row.
func (a *Archetype) AddEntity(id EntityId) int {
	row := len(a.entities)
	a.entities = append(a.entities, id)
	if a.isTagOnly() {
		return row
	}
	for _, cc := range a.comps {
		for i := range cc.columns {
			cc.columns[i].grow(row + 1)
			cc.columns[i].zeroRow(row)
		}
	}
	return row
}

// RemoveRow swap-and-pops row. If row is not the tail, the tail entity is
// swapped into row for the entity array and every column, and its
// EntityId is returned so the caller can relocate its directory entry.
// If row is already the tail, RemoveRow returns NO_SWAP.
func (a *Archetype) RemoveRow(row int) (swapped EntityId, swappedIndex int) {
	last := len(a.entities) - 1
	if row < 0 || row > last {
		return NoEntity, NO_SWAP
	}
	if row == last {
		a.entities = a.entities[:last]
		if !a.isTagOnly() {
			for _, cc := range a.comps {
				for i := range cc.columns {
					cc.columns[i].shrinkBy(1)
				}
			}
		}
		return NoEntity, NO_SWAP
	}

	tailID := a.entities[last]
	a.entities[row] = tailID
	a.entities = a.entities[:last]

	if !a.isTagOnly() {
		for _, cc := range a.comps {
			for i := range cc.columns {
				cc.columns[i].copyRow(row, last)
				cc.columns[i].shrinkBy(1)
			}
		}
	}
	return tailID, row
}

// WriteFields stores the named field values for component on row. Writing
// an unregistered component or an unknown field name is undefined behavior;
// checked builds turn that into an InvalidOperation error instead of
// corrupting memory.
func (a *Archetype) WriteFields(row int, component ComponentId, values map[string]float64) error {
	idx, ok := a.compIndex[component]
	if !ok {
		if checkedBuild {
			return newKernelError(InvalidOperation, fmt.Sprintf("component %d not present on archetype %d", component, a.id))
		}
		return nil
	}
	cc := a.comps[idx]
	if cc.schema.IsTag() {
		return nil
	}
	for name, v := range values {
		fi := cc.schema.FieldIndex(name)
		if fi < 0 {
			if checkedBuild {
				return newKernelError(InvalidOperation, fmt.Sprintf("unknown field %q on component %d", name, component))
			}
			continue
		}
		writeScalar(&cc.columns[fi], row, v)
	}
	return nil
}

// GetColumn returns the scalar type and raw byte slice backing
// (component, field) — a direct mutable view of dense storage of length
// RowCount()*ScalarType.Size() bytes, for SoA iteration.
func (a *Archetype) GetColumn(component ComponentId, field string) (ScalarType, []byte, error) {
	idx, ok := a.compIndex[component]
	if !ok {
		return 0, nil, newKernelError(InvalidOperation, fmt.Sprintf("component %d not present on archetype %d", component, a.id))
	}
	cc := a.comps[idx]
	fi := cc.schema.FieldIndex(field)
	if fi < 0 {
		return 0, nil, newKernelError(InvalidOperation, fmt.Sprintf("unknown field %q on component %d", field, component))
	}
	col := &cc.columns[fi]
	return col.fieldType, col.data[:len(a.entities)*col.fieldType.Size()], nil
}

// typedColumn returns the raw column for (component, field) after checking
// it holds scalar type want, for the typed accessors below.
func (a *Archetype) typedColumn(component ComponentId, field string, want ScalarType) ([]byte, error) {
	got, data, err := a.GetColumn(component, field)
	if err != nil {
		return nil, err
	}
	if got != want {
		return nil, newKernelError(InvalidOperation, fmt.Sprintf("field %q of component %d is %s, not %s", field, component, got, want))
	}
	return data, nil
}

// Float32Column returns a live, mutable []float32 view over (component,
// field)'s dense storage, for the same tight SoA iteration lazyecs's
// Query.Get gives callers via unsafe pointer striding.
func (a *Archetype) Float32Column(component ComponentId, field string) ([]float32, error) {
	data, err := a.typedColumn(component, field, F32)
	if err != nil || len(a.entities) == 0 {
		return nil, err
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), len(a.entities)), nil
}

// Float64Column returns a live, mutable []float64 view over (component,
// field)'s dense storage.
func (a *Archetype) Float64Column(component ComponentId, field string) ([]float64, error) {
	data, err := a.typedColumn(component, field, F64)
	if err != nil || len(a.entities) == 0 {
		return nil, err
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&data[0])), len(a.entities)), nil
}

// Int32Column returns a live, mutable []int32 view over (component,
// field)'s dense storage.
func (a *Archetype) Int32Column(component ComponentId, field string) ([]int32, error) {
	data, err := a.typedColumn(component, field, I32)
	if err != nil || len(a.entities) == 0 {
		return nil, err
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&data[0])), len(a.entities)), nil
}

// Uint32Column returns a live, mutable []uint32 view over (component,
// field)'s dense storage.
func (a *Archetype) Uint32Column(component ComponentId, field string) ([]uint32, error) {
	data, err := a.typedColumn(component, field, U32)
	if err != nil || len(a.entities) == 0 {
		return nil, err
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(a.entities)), nil
}

// CopyShared copies every field scalar present on both archetypes from
// srcRow (on src) to dstRow (on a).
func (a *Archetype) CopyShared(src *Archetype, srcRow, dstRow int) {
	for _, cc := range a.comps {
		srcIdx, ok := src.compIndex[cc.id]
		if !ok {
			continue
		}
		srcCC := src.comps[srcIdx]
		for fi := range cc.columns {
			size := cc.columns[fi].fieldType.Size()
			dst := cc.columns[fi].data[dstRow*size : (dstRow+1)*size]
			s := srcCC.columns[fi].data[srcRow*size : (srcRow+1)*size]
			copy(dst, s)
		}
	}
}

// MoveFrom appends a new row to a, populated from src at srcRow according
// to transitionMap (column j of a is sourced from src when
// transitionMap[j] >= 0, left zeroed otherwise — the flattened index itself
// is informational, since a component's field layout is fixed by its
// ComponentId and so already locates the matching source column), then
// swap-removes srcRow from src. It returns the new row on a plus whatever
// RemoveRow reported.
func (a *Archetype) MoveFrom(src *Archetype, srcRow int, id EntityId, transitionMap []int) (newRow int, swapped EntityId, swappedIndex int) {
	newRow = a.AddEntity(id)
	col := 0
	for _, cc := range a.comps {
		for fi := range cc.columns {
			from := transitionMap[col]
			col++
			if from < 0 {
				continue
			}
			srcIdx := src.compIndex[cc.id]
			srcCol := &src.comps[srcIdx].columns[fi]
			dstCol := &cc.columns[fi]
			size := dstCol.fieldType.Size()
			copy(dstCol.data[newRow*size:(newRow+1)*size], srcCol.data[srcRow*size:(srcRow+1)*size])
		}
	}
	swapped, swappedIndex = src.RemoveRow(srcRow)
	return newRow, swapped, swappedIndex
}

// MoveAllFrom relocates every row of src onto the end of a in one shot,
// doing one bulk copy per column instead of one copy per row — the
// batch_add_component/batch_remove_component fast path spec.md §4.6 asks
// for, so churning a component across a whole archetype is O(columns)
// rather than O(entities * columns). src ends up fully empty; it is not
// removed from the graph (archetypes are never destroyed). Returns the
// moved EntityIds in their new row order (append order, i.e. row
// len(a.entities)-before + i).
func (a *Archetype) MoveAllFrom(src *Archetype, transitionMap []int) []EntityId {
	n := len(src.entities)
	if n == 0 {
		return nil
	}
	startRow := len(a.entities)
	ids := make([]EntityId, n)
	copy(ids, src.entities)
	a.entities = append(a.entities, ids...)

	if !a.isTagOnly() {
		col := 0
		for _, cc := range a.comps {
			for fi := range cc.columns {
				from := transitionMap[col]
				col++
				dstCol := &cc.columns[fi]
				dstCol.grow(startRow + n)
				size := dstCol.fieldType.Size()
				lo, hi := startRow*size, (startRow+n)*size
				srcIdx, ok := src.compIndex[cc.id]
				if from < 0 || !ok {
					for i := lo; i < hi; i++ {
						dstCol.data[i] = 0
					}
					continue
				}
				srcCol := &src.comps[srcIdx].columns[fi]
				copy(dstCol.data[lo:hi], srcCol.data[:n*size])
			}
		}
	}

	src.entities = src.entities[:0]
	if !src.isTagOnly() {
		for _, cc := range src.comps {
			for i := range cc.columns {
				cc.columns[i].data = cc.columns[i].data[:0]
			}
		}
	}
	return ids
}

// GetEdge returns the cached transition edge for component, if any.
func (a *Archetype) GetEdge(component ComponentId) (*Edge, bool) {
	e, ok := a.edges[component]
	return e, ok
}

// SetEdge caches the transition edge for component.
func (a *Archetype) SetEdge(component ComponentId, edge *Edge) {
	a.edges[component] = edge
}

func writeScalar(c *column, row int, v float64) {
	size := c.fieldType.Size()
	ptr := unsafe.Pointer(&c.data[row*size])
	switch c.fieldType {
	case F32:
		*(*float32)(ptr) = float32(v)
	case F64:
		*(*float64)(ptr) = v
	case I8:
		*(*int8)(ptr) = int8(v)
	case I16:
		*(*int16)(ptr) = int16(v)
	case I32:
		*(*int32)(ptr) = int32(v)
	case U8:
		*(*uint8)(ptr) = uint8(v)
	case U16:
		*(*uint16)(ptr) = uint16(v)
	case U32:
		*(*uint32)(ptr) = uint32(v)
	}
}

// readScalar decodes the scalar at row within a column's byte slice (as
// returned by GetColumn) into a float64, the same uniform accessor width
// WriteFields accepts.
func readScalar(t ScalarType, data []byte, row int) float64 {
	size := t.Size()
	ptr := unsafe.Pointer(&data[row*size])
	switch t {
	case F32:
		return float64(*(*float32)(ptr))
	case F64:
		return *(*float64)(ptr)
	case I8:
		return float64(*(*int8)(ptr))
	case I16:
		return float64(*(*int16)(ptr))
	case I32:
		return float64(*(*int32)(ptr))
	case U8:
		return float64(*(*uint8)(ptr))
	case U16:
		return float64(*(*uint16)(ptr))
	case U32:
		return float64(*(*uint32)(ptr))
	default:
		return 0
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
