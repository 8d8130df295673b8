package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates the shapes a concrete type can take.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindPrimitive
	KindPointer
	KindReference
	KindNamed
	KindTuple
	KindArray
	KindSlice
	KindFunction
	KindClass
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindPrimitive:
		return "primitive"
	case KindPointer:
		return "pointer"
	case KindReference:
		return "reference"
	case KindNamed:
		return "named"
	case KindTuple:
		return "tuple"
	case KindArray:
		return "array"
	case KindSlice:
		return "slice"
	case KindFunction:
		return "function"
	case KindClass:
		return "class"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is an immutable descriptor of a concrete (or still generic) type.
// Values are shared by pointer; never mutate a Type after construction.
type Type struct {
	Kind    Kind    `msgpack:"k"`
	Prim    Prim    `msgpack:"p,omitempty"`
	Mutable bool    `msgpack:"m,omitempty"` // pointers and references
	Thin    bool    `msgpack:"t,omitempty"` // bare function reference, no environment word
	Elem    *Type   `msgpack:"e,omitempty"` // pointer, reference, array, slice
	Len     int     `msgpack:"l,omitempty"` // array
	Name    string  `msgpack:"n,omitempty"` // named, class
	Args    []*Type `msgpack:"a,omitempty"` // named/class type arguments, tuple elements, function params
	Ret     *Type   `msgpack:"r,omitempty"` // function
}

// Descriptor helpers ---------------------------------------------------------

// Primitive returns the shared descriptor for a primitive kind.
func Primitive(p Prim) *Type {
	if int(p) < len(primitives) && primitives[p] != nil {
		return primitives[p]
	}
	return &Type{Kind: KindPrimitive, Prim: p}
}

// PointerTo describes a raw pointer *T / *mut T.
func PointerTo(mutable bool, inner *Type) *Type {
	return &Type{Kind: KindPointer, Mutable: mutable, Elem: inner}
}

// RefTo describes &T or &mut T depending on the mutable flag.
func RefTo(mutable bool, inner *Type) *Type {
	return &Type{Kind: KindReference, Mutable: mutable, Elem: inner}
}

// Named describes a struct or enum, generic when args are present.
func Named(name string, args ...*Type) *Type {
	return &Type{Kind: KindNamed, Name: name, Args: cloneList(args)}
}

// Class describes a heap allocated class instance.
func Class(name string, args ...*Type) *Type {
	return &Type{Kind: KindClass, Name: name, Args: cloneList(args)}
}

// TupleOf describes (A, B, ...).
func TupleOf(elems ...*Type) *Type {
	return &Type{Kind: KindTuple, Args: cloneList(elems)}
}

// ArrayOf describes [T; n].
func ArrayOf(elem *Type, n int) *Type {
	return &Type{Kind: KindArray, Elem: elem, Len: n}
}

// SliceOf describes [T].
func SliceOf(elem *Type) *Type {
	return &Type{Kind: KindSlice, Elem: elem}
}

// FuncOf describes a closure-compatible function value (code, environment).
func FuncOf(params []*Type, ret *Type) *Type {
	return &Type{Kind: KindFunction, Args: cloneList(params), Ret: unitToNil(ret)}
}

// ThinFuncOf describes a bare function reference carrying only a code address.
func ThinFuncOf(params []*Type, ret *Type) *Type {
	return &Type{Kind: KindFunction, Thin: true, Args: cloneList(params), Ret: unitToNil(ret)}
}

func unitToNil(t *Type) *Type {
	if t.IsUnit() {
		return nil
	}
	return t
}

func cloneList(in []*Type) []*Type {
	if len(in) == 0 {
		return nil
	}
	out := make([]*Type, len(in))
	copy(out, in)
	return out
}

// Queries ---------------------------------------------------------------------

// IsGeneric reports whether t is a named/class instantiation with type arguments.
func (t *Type) IsGeneric() bool {
	return t != nil && (t.Kind == KindNamed || t.Kind == KindClass) && len(t.Args) > 0
}

// IsPrim reports whether t is the given primitive.
func (t *Type) IsPrim(p Prim) bool {
	return t != nil && t.Kind == KindPrimitive && t.Prim == p
}

// IsUnit reports whether t denotes the empty value (or is absent).
func (t *Type) IsUnit() bool {
	return t == nil || t.IsPrim(PrimUnit)
}

// IsInteger reports whether t is a signed or unsigned integer primitive.
func (t *Type) IsInteger() bool {
	return t != nil && t.Kind == KindPrimitive && t.Prim.IsInteger()
}

// IsFloat reports whether t is a floating-point primitive.
func (t *Type) IsFloat() bool {
	return t != nil && t.Kind == KindPrimitive && t.Prim.IsFloat()
}

// Deref returns the pointee of a pointer or reference.
func (t *Type) Deref() (*Type, bool) {
	if t == nil {
		return nil, false
	}
	if t.Kind == KindPointer || t.Kind == KindReference {
		return t.Elem, t.Elem != nil
	}
	return nil, false
}

// StripRefs follows references and pointers down to the first value type.
func StripRefs(t *Type) *Type {
	for t != nil && (t.Kind == KindReference || t.Kind == KindPointer) {
		t = t.Elem
	}
	return t
}

// Equal compares two descriptors structurally.
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Kind != b.Kind || a.Prim != b.Prim || a.Mutable != b.Mutable || a.Thin != b.Thin ||
		a.Len != b.Len || a.Name != b.Name || len(a.Args) != len(b.Args) {
		return false
	}
	if !Equal(a.Elem, b.Elem) || !Equal(a.Ret, b.Ret) {
		return false
	}
	for i := range a.Args {
		if !Equal(a.Args[i], b.Args[i]) {
			return false
		}
	}
	return true
}

// String renders t in source syntax, e.g. `Map<Str, &mut I32>`.
func (t *Type) String() string {
	if t == nil {
		return "Unit"
	}
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Type) write(b *strings.Builder) {
	switch t.Kind {
	case KindPrimitive:
		b.WriteString(t.Prim.String())
	case KindPointer:
		b.WriteByte('*')
		if t.Mutable {
			b.WriteString("mut ")
		}
		writeOrUnit(b, t.Elem)
	case KindReference:
		b.WriteByte('&')
		if t.Mutable {
			b.WriteString("mut ")
		}
		writeOrUnit(b, t.Elem)
	case KindNamed, KindClass:
		b.WriteString(t.Name)
		if len(t.Args) > 0 {
			b.WriteByte('<')
			writeList(b, t.Args)
			b.WriteByte('>')
		}
	case KindTuple:
		b.WriteByte('(')
		writeList(b, t.Args)
		b.WriteByte(')')
	case KindArray:
		b.WriteByte('[')
		writeOrUnit(b, t.Elem)
		b.WriteString("; ")
		b.WriteString(strconv.Itoa(t.Len))
		b.WriteByte(']')
	case KindSlice:
		b.WriteByte('[')
		writeOrUnit(b, t.Elem)
		b.WriteByte(']')
	case KindFunction:
		if t.Thin {
			b.WriteString("fn(")
		} else {
			b.WriteString("do(")
		}
		writeList(b, t.Args)
		b.WriteString(") -> ")
		writeOrUnit(b, t.Ret)
	default:
		b.WriteString("<invalid>")
	}
}

func writeOrUnit(b *strings.Builder, t *Type) {
	if t == nil {
		b.WriteString("Unit")
		return
	}
	t.write(b)
}

func writeList(b *strings.Builder, list []*Type) {
	for i, a := range list {
		if i > 0 {
			b.WriteString(", ")
		}
		writeOrUnit(b, a)
	}
}
