// Package ir models the low-level, SSA-style IR text the code generator
// emits. Types are a closed enum with one canonical constructor per shape;
// they are rendered, never parsed back.
package ir

import (
	"strconv"
	"strings"
)

// Kind enumerates low-level type shapes.
type Kind uint8

const (
	KindVoid Kind = iota
	KindInt
	KindFloat
	KindDouble
	KindPtr
	KindNamed
	KindStruct
	KindArray
)

// Type is a low-level IR type. The zero value is void.
type Type struct {
	kind   Kind
	bits   int
	name   string
	fields []Type
	n      int
	elem   *Type
}

var (
	Void   = Type{kind: KindVoid}
	I1     = Int(1)
	I8     = Int(8)
	I16    = Int(16)
	I32    = Int(32)
	I64    = Int(64)
	Float  = Type{kind: KindFloat}
	Double = Type{kind: KindDouble}
	Ptr    = Type{kind: KindPtr}

	// Closure is the two-word fat pointer { code, environment }.
	Closure = Struct(Ptr, Ptr)
	// SliceRef is the two-word { data, length } view of a contiguous buffer.
	SliceRef = Struct(Ptr, I64)
)

// Int returns the integer type of the given width.
func Int(bits int) Type { return Type{kind: KindInt, bits: bits} }

// Named refers to a type defined at module level (%name).
func Named(name string) Type { return Type{kind: KindNamed, name: name} }

// Struct is a literal struct type { a, b, ... }.
func Struct(fields ...Type) Type {
	f := make([]Type, len(fields))
	copy(f, fields)
	return Type{kind: KindStruct, fields: f}
}

// Array is [n x elem].
func Array(n int, elem Type) Type {
	e := elem
	return Type{kind: KindArray, n: n, elem: &e}
}

func (t Type) Kind() Kind     { return t.kind }
func (t Type) Bits() int      { return t.bits }
func (t Type) Name() string   { return t.name }
func (t Type) Len() int       { return t.n }
func (t Type) IsVoid() bool   { return t.kind == KindVoid }
func (t Type) IsInt() bool    { return t.kind == KindInt }
func (t Type) IsPtr() bool    { return t.kind == KindPtr }
func (t Type) IsFloat() bool  { return t.kind == KindFloat || t.kind == KindDouble }
func (t Type) Fields() []Type { return t.fields }

// Elem returns the array element type.
func (t Type) Elem() Type {
	if t.elem == nil {
		return Void
	}
	return *t.elem
}

// Field returns the i-th literal struct field type.
func (t Type) Field(i int) (Type, bool) {
	if t.kind != KindStruct || i < 0 || i >= len(t.fields) {
		return Void, false
	}
	return t.fields[i], true
}

// Equal compares types by their rendering.
func (t Type) Equal(o Type) bool { return t.String() == o.String() }

// String renders the type in IR syntax.
func (t Type) String() string {
	switch t.kind {
	case KindVoid:
		return "void"
	case KindInt:
		return "i" + strconv.Itoa(t.bits)
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindPtr:
		return "ptr"
	case KindNamed:
		return "%" + t.name
	case KindStruct:
		if len(t.fields) == 0 {
			return "{}"
		}
		parts := make([]string, len(t.fields))
		for i, f := range t.fields {
			parts[i] = f.String()
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case KindArray:
		return "[" + strconv.Itoa(t.n) + " x " + t.Elem().String() + "]"
	default:
		return "void"
	}
}
