// Package mangle produces the canonical names that join the instantiation
// scheduler, the generated-function registry and the emitted IR symbol table.
//
// Encoding is prefix (Polish) notation over "__"-separated tokens:
//
//	I32                     primitive token
//	Ptr__T, PtrMut__T       raw pointers
//	Ref__T, RefMut__T       references
//	Name__A__B              generic instantiation Name<A, B>
//	Tup2__A__B              tuple (A, B)
//	Arr4__T                 array [T; 4]
//	Slice__T                slice [T]
//	Fn2__A__B__R            closure-compatible function (A, B) -> R
//	ThinFn1__A__R           bare function reference
//
// Given the generic arity of every name, the encoding is a prefix code and
// therefore injective. Identifiers containing "__" are reserved.
package mangle

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"vesper/internal/types"
)

// Sep separates tokens inside a mangled type.
const Sep = "__"

const (
	tokPtr    = "Ptr"
	tokPtrMut = "PtrMut"
	tokRef    = "Ref"
	tokRefMut = "RefMut"
	tokTuple  = "Tup"
	tokArray  = "Arr"
	tokSlice  = "Slice"
	tokFn     = "Fn"
	tokThinFn = "ThinFn"
)

// Mangle encodes t. Structurally equal inputs yield byte-identical names.
func Mangle(t *types.Type) string {
	var b strings.Builder
	write(&b, t)
	return b.String()
}

// Ident normalises a source identifier so that canonically equivalent
// spellings produce the same symbol.
func Ident(name string) string {
	if norm.NFC.IsNormalString(name) {
		return name
	}
	return norm.NFC.String(name)
}

func write(b *strings.Builder, t *types.Type) {
	if t == nil {
		b.WriteString(types.PrimUnit.String())
		return
	}
	switch t.Kind {
	case types.KindPrimitive:
		b.WriteString(t.Prim.String())
	case types.KindPointer:
		if t.Mutable {
			b.WriteString(tokPtrMut)
		} else {
			b.WriteString(tokPtr)
		}
		b.WriteString(Sep)
		write(b, t.Elem)
	case types.KindReference:
		if t.Mutable {
			b.WriteString(tokRefMut)
		} else {
			b.WriteString(tokRef)
		}
		b.WriteString(Sep)
		write(b, t.Elem)
	case types.KindNamed, types.KindClass:
		b.WriteString(Ident(t.Name))
		writeArgs(b, t.Args)
	case types.KindTuple:
		b.WriteString(tokTuple)
		b.WriteString(strconv.Itoa(len(t.Args)))
		writeArgs(b, t.Args)
	case types.KindArray:
		b.WriteString(tokArray)
		b.WriteString(strconv.Itoa(t.Len))
		b.WriteString(Sep)
		write(b, t.Elem)
	case types.KindSlice:
		b.WriteString(tokSlice)
		b.WriteString(Sep)
		write(b, t.Elem)
	case types.KindFunction:
		if t.Thin {
			b.WriteString(tokThinFn)
		} else {
			b.WriteString(tokFn)
		}
		b.WriteString(strconv.Itoa(len(t.Args)))
		writeArgs(b, t.Args)
		b.WriteString(Sep)
		write(b, t.Ret)
	default:
		b.WriteString("Invalid")
	}
}

func writeArgs(b *strings.Builder, args []*types.Type) {
	for _, a := range args {
		b.WriteString(Sep)
		write(b, a)
	}
}

// Args mangles a type argument list as it appears after a base name.
func Args(args []*types.Type) string {
	var b strings.Builder
	writeArgs(&b, args)
	return b.String()
}
