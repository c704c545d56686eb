package ecs

import "fmt"

// ScalarType is one of the fixed-width numeric kinds a component field may
// hold.
type ScalarType int

const (
	F32 ScalarType = iota
	F64
	I8
	I16
	I32
	U8
	U16
	U32
)

// Size returns the field's width in bytes.
func (t ScalarType) Size() int {
	switch t {
	case F32, I32, U32:
		return 4
	case F64:
		return 8
	case I8, U8:
		return 1
	case I16, U16:
		return 2
	default:
		panic(fmt.Sprintf("ecs: unknown scalar type %d", t))
	}
}

func (t ScalarType) String() string {
	switch t {
	case F32:
		return "f32"
	case F64:
		return "f64"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	default:
		return "unknown"
	}
}

// Field is one (field_name, scalar_type) pair in a component schema.
type Field struct {
	Name string
	Type ScalarType
}

// Schema is the ordered list of fields that make up a component. A schema
// with zero fields denotes a tag: its presence affects archetype signature
// but carries no per-entity data.
type Schema struct {
	Fields  []Field
	byName  map[string]int
}

// NewSchema builds a Schema from an ordered field list, validating that no
// two fields share a name.
func NewSchema(fields ...Field) (Schema, error) {
	byName := make(map[string]int, len(fields))
	for i, f := range fields {
		if _, dup := byName[f.Name]; dup {
			return Schema{}, newKernelError(InvalidOperation, fmt.Sprintf("duplicate field name %q in schema", f.Name))
		}
		byName[f.Name] = i
	}
	return Schema{Fields: fields, byName: byName}, nil
}

// UniformSchema is the shorthand registration form: a list of field names
// sharing one scalar type. The caller always names that type; there is no
// implicit f64 default.
func UniformSchema(scalarType ScalarType, fieldNames ...string) (Schema, error) {
	fields := make([]Field, len(fieldNames))
	for i, name := range fieldNames {
		fields[i] = Field{Name: name, Type: scalarType}
	}
	return NewSchema(fields...)
}

// IsTag reports whether the schema has no fields.
func (s Schema) IsTag() bool { return len(s.Fields) == 0 }

// FieldIndex returns the position of a named field, or -1 if unknown.
func (s Schema) FieldIndex(name string) int {
	if idx, ok := s.byName[name]; ok {
		return idx
	}
	return -1
}

// ComponentId is a dense, zero-based id assigned at schema registration.
// Ids are never reused.
type ComponentId int

// ComponentRegistry assigns ComponentIds to registered schemas and records
// their field layout, mirroring lazyecs's RegisterComponent/GetID pair but
// keyed on a runtime schema instead of a compile-time Go type.
type ComponentRegistry struct {
	schemas []Schema
}

// NewComponentRegistry returns an empty registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{}
}

// Register assigns the next dense ComponentId to schema and returns it.
// Fails with Capacity if the fixed component budget is exhausted.
func (r *ComponentRegistry) Register(schema Schema) (ComponentId, error) {
	if len(r.schemas) >= maxComponents {
		return 0, newKernelError(Capacity, fmt.Sprintf("component budget of %d exhausted", maxComponents))
	}
	id := ComponentId(len(r.schemas))
	r.schemas = append(r.schemas, schema)
	return id, nil
}

// RegisterTag is shorthand for Register(Schema{}) — a component with no
// fields, used only to affect archetype membership.
func (r *ComponentRegistry) RegisterTag() (ComponentId, error) {
	return r.Register(Schema{})
}

// SchemaOf returns the schema registered for id. Fails with
// InvalidOperation if id was never registered.
func (r *ComponentRegistry) SchemaOf(id ComponentId) (Schema, error) {
	if int(id) < 0 || int(id) >= len(r.schemas) {
		return Schema{}, newKernelError(InvalidOperation, fmt.Sprintf("component id %d is not registered", id))
	}
	return r.schemas[id], nil
}

// Len returns the number of registered components.
func (r *ComponentRegistry) Len() int { return len(r.schemas) }
