package mangle

import (
	"strings"

	"vesper/internal/types"
)

// Symbol is a linker-visible name:
//
//	[unit "_"] [prefix "_"] base ["__" arg]* ["_" method]
//
// Unit is the per-compilation-unit disambiguation prefix, Prefix the module
// (or library) qualifier.
type Symbol struct {
	Unit   string
	Prefix string
	Base   string
	Args   []*types.Type
	Method string
}

// String renders the symbol.
func (s Symbol) String() string {
	var b strings.Builder
	if s.Unit != "" {
		b.WriteString(s.Unit)
		b.WriteByte('_')
	}
	if s.Prefix != "" {
		b.WriteString(s.Prefix)
		b.WriteByte('_')
	}
	b.WriteString(Ident(s.Base))
	writeArgs(&b, s.Args)
	if s.Method != "" {
		b.WriteByte('_')
		b.WriteString(Ident(s.Method))
	}
	return b.String()
}

// TypeName is the mangled name of a struct/enum/class instantiation, also
// used as the IR type name.
func TypeName(t *types.Type) string {
	return Mangle(t)
}

// Method names an impl method of the (possibly generic) type t.
func Method(unit, prefix string, t *types.Type, method string) Symbol {
	if t == nil {
		return Symbol{Unit: unit, Prefix: prefix, Method: method}
	}
	return Symbol{Unit: unit, Prefix: prefix, Base: t.Name, Args: t.Args, Method: method}
}

// Func names a free function, instantiated when args are present.
func Func(unit, prefix, name string, args []*types.Type) Symbol {
	return Symbol{Unit: unit, Prefix: prefix, Base: name, Args: args}
}

// Builtin names a primitive behaviour, e.g. I32_try_from_I64. The source
// primitive suffix keeps per-source-type overloads apart.
func Builtin(target types.Prim, behaviour string, source *types.Type) string {
	var b strings.Builder
	b.WriteString(target.String())
	b.WriteByte('_')
	b.WriteString(behaviour)
	if source != nil {
		b.WriteByte('_')
		b.WriteString(Mangle(source))
	}
	return b.String()
}
