package ir

import (
	"fmt"
	"math"
	"strconv"
)

// Value is an operand: a register, a constant or a global, with its type.
type Value struct {
	Ref string
	Ty  Type
}

// String renders a typed operand, e.g. "i32 %t4".
func (v Value) String() string {
	return v.Ty.String() + " " + v.Ref
}

// Valid reports whether the value carries an operand.
func (v Value) Valid() bool {
	return v.Ref != ""
}

// ConstInt returns an integer constant of type ty.
func ConstInt(ty Type, n int64) Value {
	if ty.kind == KindInt && ty.bits == 1 {
		if n != 0 {
			return Value{Ref: "true", Ty: ty}
		}
		return Value{Ref: "false", Ty: ty}
	}
	return Value{Ref: strconv.FormatInt(n, 10), Ty: ty}
}

// ConstUint returns an unsigned constant rendered without sign.
func ConstUint(ty Type, n uint64) Value {
	return Value{Ref: strconv.FormatUint(n, 10), Ty: ty}
}

// ConstFloat returns a floating-point constant in hexadecimal form, which is
// exact for both float and double. Float constants are rounded to single
// precision first.
func ConstFloat(ty Type, f float64) Value {
	if ty.kind == KindFloat {
		f = float64(float32(f))
	}
	return Value{Ref: fmt.Sprintf("0x%016X", math.Float64bits(f)), Ty: ty}
}

// Null is the null pointer.
func Null() Value { return Value{Ref: "null", Ty: Ptr} }

// Undef is an undefined value of ty, used as insertvalue seed.
func Undef(ty Type) Value { return Value{Ref: "undef", Ty: ty} }

// Zero is the zero initializer of ty.
func Zero(ty Type) Value {
	switch ty.kind {
	case KindInt:
		return ConstInt(ty, 0)
	case KindPtr:
		return Null()
	case KindFloat, KindDouble:
		return Value{Ref: "0.0", Ty: ty}
	default:
		return Value{Ref: "zeroinitializer", Ty: ty}
	}
}

// Global refers to @name as a pointer.
func Global(name string) Value { return Value{Ref: "@" + name, Ty: Ptr} }
