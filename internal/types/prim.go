package types

import "fmt"

// Prim enumerates primitive types.
type Prim uint8

const (
	PrimInvalid Prim = iota
	PrimUnit
	PrimBool
	PrimChar
	PrimStr
	PrimI8
	PrimI16
	PrimI32
	PrimI64
	PrimISize
	PrimU8
	PrimU16
	PrimU32
	PrimU64
	PrimUSize
	PrimF32
	PrimF64

	primCount
)

var primNames = [primCount]string{
	PrimInvalid: "Invalid",
	PrimUnit:    "Unit",
	PrimBool:    "Bool",
	PrimChar:    "Char",
	PrimStr:     "Str",
	PrimI8:      "I8",
	PrimI16:     "I16",
	PrimI32:     "I32",
	PrimI64:     "I64",
	PrimISize:   "ISize",
	PrimU8:      "U8",
	PrimU16:     "U16",
	PrimU32:     "U32",
	PrimU64:     "U64",
	PrimUSize:   "USize",
	PrimF32:     "F32",
	PrimF64:     "F64",
}

var primitives = func() (out [primCount]*Type) {
	for p := PrimUnit; p < primCount; p++ {
		out[p] = &Type{Kind: KindPrimitive, Prim: p}
	}
	return out
}()

var primByName = func() map[string]Prim {
	m := make(map[string]Prim, primCount)
	for p := PrimUnit; p < primCount; p++ {
		m[primNames[p]] = p
	}
	return m
}()

// Shared primitive descriptors.
var (
	Unit  = Primitive(PrimUnit)
	Bool  = Primitive(PrimBool)
	Char  = Primitive(PrimChar)
	Str   = Primitive(PrimStr)
	I8    = Primitive(PrimI8)
	I16   = Primitive(PrimI16)
	I32   = Primitive(PrimI32)
	I64   = Primitive(PrimI64)
	ISize = Primitive(PrimISize)
	U8    = Primitive(PrimU8)
	U16   = Primitive(PrimU16)
	U32   = Primitive(PrimU32)
	U64   = Primitive(PrimU64)
	USize = Primitive(PrimUSize)
	F32   = Primitive(PrimF32)
	F64   = Primitive(PrimF64)
)

// String returns the canonical source/mangling token.
func (p Prim) String() string {
	if p < primCount {
		return primNames[p]
	}
	return fmt.Sprintf("Prim(%d)", p)
}

// ParsePrim maps a token such as "I32" back to its primitive.
func ParsePrim(name string) (Prim, bool) {
	p, ok := primByName[name]
	return p, ok
}

// IsInteger reports signed and unsigned integers, excluding Bool and Char.
func (p Prim) IsInteger() bool {
	return p >= PrimI8 && p <= PrimUSize
}

// IsSigned reports signed integers.
func (p Prim) IsSigned() bool {
	return p >= PrimI8 && p <= PrimISize
}

// IsFloat reports F32/F64.
func (p Prim) IsFloat() bool {
	return p == PrimF32 || p == PrimF64
}

// IsNumeric reports integers and floats.
func (p Prim) IsNumeric() bool {
	return p.IsInteger() || p.IsFloat()
}

// Bits returns the storage width in bits (Bool is 1, Unit is 0).
func (p Prim) Bits() int {
	switch p {
	case PrimBool:
		return 1
	case PrimI8, PrimU8:
		return 8
	case PrimI16, PrimU16:
		return 16
	case PrimI32, PrimU32, PrimChar, PrimF32:
		return 32
	case PrimI64, PrimU64, PrimISize, PrimUSize, PrimF64, PrimStr:
		return 64
	default:
		return 0
	}
}

// Size returns the static byte size of the primitive.
func (p Prim) Size() int {
	switch p {
	case PrimUnit, PrimInvalid:
		return 0
	case PrimBool:
		return 1
	default:
		return p.Bits() / 8
	}
}
