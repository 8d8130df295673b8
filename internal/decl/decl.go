// Package decl holds the declarations the code generator consumes from the
// checker: signatures, struct/enum/class shapes, impl blocks, and the
// registry of imported modules.
package decl

import (
	"vesper/internal/ast"
	"vesper/internal/source"
	"vesper/internal/types"
)

// Param is a declared parameter.
type Param struct {
	Name string      `msgpack:"n"`
	Type *types.Type `msgpack:"t"`
}

// FuncDecl is a free function, static method or impl method signature with
// its body. Generic parameters appear in types as Named(param) with no args.
type FuncDecl struct {
	Name     string      `msgpack:"n"`
	Generics []string    `msgpack:"g,omitempty"`
	Params   []Param     `msgpack:"p,omitempty"`
	Ret      *types.Type `msgpack:"r,omitempty"`
	Body     *ast.Expr   `msgpack:"b,omitempty"`
	// Extern functions have no body; ExternName overrides the linked symbol.
	Extern     bool   `msgpack:"x,omitempty"`
	ExternName string `msgpack:"xn,omitempty"`
	// Private functions are qualified with the module prefix.
	Private bool        `msgpack:"pv,omitempty"`
	Span    source.Span `msgpack:"s"`
}

// ParamTypes returns the declared parameter types in order.
func (f *FuncDecl) ParamTypes() []*types.Type {
	out := make([]*types.Type, len(f.Params))
	for i, p := range f.Params {
		out[i] = p.Type
	}
	return out
}

// IsGeneric reports whether the function declares type parameters.
func (f *FuncDecl) IsGeneric() bool { return len(f.Generics) > 0 }

// LinkName is the symbol an extern resolves to.
func (f *FuncDecl) LinkName() string {
	if f.ExternName != "" {
		return f.ExternName
	}
	return f.Name
}

// FieldDecl is one struct or class field.
type FieldDecl struct {
	Name string      `msgpack:"n"`
	Type *types.Type `msgpack:"t"`
}

// StructDecl declares a value record.
type StructDecl struct {
	Name     string      `msgpack:"n"`
	Generics []string    `msgpack:"g,omitempty"`
	Fields   []FieldDecl `msgpack:"f,omitempty"`
	// Copy structs are duplicated on by-value passing instead of moved.
	Copy bool        `msgpack:"c,omitempty"`
	Span source.Span `msgpack:"s"`
}

// FieldIndex returns the declaration index of a field.
func (s *StructDecl) FieldIndex(name string) (int, bool) {
	for i, f := range s.Fields {
		if f.Name == name {
			return i, true
		}
	}
	return -1, false
}

// VariantDecl is one enum variant; Fields is empty for unit variants.
type VariantDecl struct {
	Name   string        `msgpack:"n"`
	Fields []*types.Type `msgpack:"f,omitempty"`
}

// EnumDecl declares a tagged union. Tags follow declaration order from 0.
type EnumDecl struct {
	Name     string        `msgpack:"n"`
	Generics []string      `msgpack:"g,omitempty"`
	Variants []VariantDecl `msgpack:"v"`
	Span     source.Span   `msgpack:"s"`
}

// VariantIndex returns the tag of a variant.
func (e *EnumDecl) VariantIndex(name string) (int, bool) {
	for i, v := range e.Variants {
		if v.Name == name {
			return i, true
		}
	}
	return -1, false
}

// ClassDecl declares a heap-allocated class with static methods.
type ClassDecl struct {
	Name     string      `msgpack:"n"`
	Generics []string    `msgpack:"g,omitempty"`
	Fields   []FieldDecl `msgpack:"f,omitempty"`
	Statics  []*FuncDecl `msgpack:"sm,omitempty"`
	Span     source.Span `msgpack:"s"`
}

// Static returns a static method by name.
func (c *ClassDecl) Static(name string) (*FuncDecl, bool) {
	for _, m := range c.Statics {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// SelfKind describes how an impl method receives its receiver.
type SelfKind uint8

const (
	// SelfNone marks an associated (static) function.
	SelfNone SelfKind = iota
	SelfValue
	SelfRef
	SelfRefMut
)

// MethodDecl is a method inside an impl block. The receiver is not part of
// Func.Params.
type MethodDecl struct {
	Func *FuncDecl `msgpack:"f"`
	Self SelfKind  `msgpack:"self"`
}

// ImplDecl attaches methods to a struct or enum. Generics are the impl's
// parameters, positionally matching the target type's arguments.
type ImplDecl struct {
	Target   string        `msgpack:"t"`
	Generics []string      `msgpack:"g,omitempty"`
	Methods  []*MethodDecl `msgpack:"m"`
}

// Method returns a method by name.
func (i *ImplDecl) Method(name string) (*MethodDecl, bool) {
	for _, m := range i.Methods {
		if m.Func != nil && m.Func.Name == name {
			return m, true
		}
	}
	return nil, false
}

// SelfType is the receiver type for the given method receiver kind.
func (m *MethodDecl) SelfType(target *types.Type) *types.Type {
	switch m.Self {
	case SelfRef:
		return types.RefTo(false, target)
	case SelfRefMut:
		return types.RefTo(true, target)
	case SelfValue:
		return target
	default:
		return nil
	}
}

// Decls is one module's declarations.
type Decls struct {
	Structs []*StructDecl `msgpack:"st,omitempty"`
	Enums   []*EnumDecl   `msgpack:"en,omitempty"`
	Classes []*ClassDecl  `msgpack:"cl,omitempty"`
	Impls   []*ImplDecl   `msgpack:"im,omitempty"`
	Funcs   []*FuncDecl   `msgpack:"fn,omitempty"`
}
