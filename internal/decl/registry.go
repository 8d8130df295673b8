package decl

import (
	"vesper/internal/types"
)

// Origin records where a declaration was found. Library is empty for the
// current unit and the prelude.
type Origin struct {
	Library string
}

type entry[T any] struct {
	decl   T
	origin Origin
}

type implEntry struct {
	impl   *ImplDecl
	method *MethodDecl
	origin Origin
}

// Registry indexes the declarations visible to one translation unit. Local
// declarations shadow imported ones, which shadow the prelude.
type Registry struct {
	Unit string

	structs map[string]entry[*StructDecl]
	enums   map[string]entry[*EnumDecl]
	classes map[string]entry[*ClassDecl]
	funcs   map[string]entry[*FuncDecl]
	// methods is keyed by "Type.method".
	methods map[string]implEntry
	modules map[string]*Module
}

// NewRegistry indexes u, its imports and the prelude.
func NewRegistry(u *Unit) *Registry {
	r := &Registry{
		structs: make(map[string]entry[*StructDecl]),
		enums:   make(map[string]entry[*EnumDecl]),
		classes: make(map[string]entry[*ClassDecl]),
		funcs:   make(map[string]entry[*FuncDecl]),
		methods: make(map[string]implEntry),
		modules: make(map[string]*Module),
	}
	r.add(Prelude(), Origin{})
	if u == nil {
		return r
	}
	r.Unit = u.Name
	// Imports in reverse so the first import wins on conflicts.
	for i := len(u.Imports) - 1; i >= 0; i-- {
		m := u.Imports[i]
		if m == nil {
			continue
		}
		r.modules[m.Path] = m
		r.add(&m.Decls, Origin{Library: m.Path})
	}
	r.add(&u.Decls, Origin{})
	return r
}

func (r *Registry) add(d *Decls, origin Origin) {
	for _, s := range d.Structs {
		r.structs[s.Name] = entry[*StructDecl]{s, origin}
	}
	for _, e := range d.Enums {
		r.enums[e.Name] = entry[*EnumDecl]{e, origin}
	}
	for _, c := range d.Classes {
		r.classes[c.Name] = entry[*ClassDecl]{c, origin}
		// Static methods share the impl-method index so instantiation and
		// naming treat them like associated functions.
		statics := &ImplDecl{Target: c.Name, Generics: c.Generics}
		for _, m := range c.Statics {
			md := &MethodDecl{Func: m, Self: SelfNone}
			statics.Methods = append(statics.Methods, md)
			r.methods[c.Name+"."+m.Name] = implEntry{impl: statics, method: md, origin: origin}
		}
	}
	for _, f := range d.Funcs {
		r.funcs[f.Name] = entry[*FuncDecl]{f, origin}
	}
	for _, im := range d.Impls {
		for _, m := range im.Methods {
			if m.Func == nil {
				continue
			}
			r.methods[im.Target+"."+m.Func.Name] = implEntry{impl: im, method: m, origin: origin}
		}
	}
}

// Struct looks up a struct declaration.
func (r *Registry) Struct(name string) (*StructDecl, Origin, bool) {
	e, ok := r.structs[name]
	return e.decl, e.origin, ok
}

// Enum looks up an enum declaration.
func (r *Registry) Enum(name string) (*EnumDecl, Origin, bool) {
	e, ok := r.enums[name]
	return e.decl, e.origin, ok
}

// Class looks up a class declaration.
func (r *Registry) Class(name string) (*ClassDecl, Origin, bool) {
	e, ok := r.classes[name]
	return e.decl, e.origin, ok
}

// Func looks up a free function by its unqualified name.
func (r *Registry) Func(name string) (*FuncDecl, Origin, bool) {
	e, ok := r.funcs[name]
	return e.decl, e.origin, ok
}

// ModuleFunc looks up a function through a qualified module path.
func (r *Registry) ModuleFunc(path, name string) (*FuncDecl, bool) {
	m, ok := r.modules[path]
	if !ok {
		return nil, false
	}
	for _, f := range m.Decls.Funcs {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Module returns an imported module by path.
func (r *Registry) Module(path string) (*Module, bool) {
	m, ok := r.modules[path]
	return m, ok
}

// ImplMethod looks up method on the struct or enum named typeName.
func (r *Registry) ImplMethod(typeName, method string) (*ImplDecl, *MethodDecl, Origin, bool) {
	e, ok := r.methods[typeName+"."+method]
	return e.impl, e.method, e.origin, ok
}

// ImplMethodLibrary reports the origin library of an impl method.
func (r *Registry) ImplMethodLibrary(typeName, method string) (string, bool) {
	e, ok := r.methods[typeName+"."+method]
	return e.origin.Library, ok
}

// Generics returns the type parameter names of a struct, enum or class.
func (r *Registry) Generics(name string) ([]string, bool) {
	if s, ok := r.structs[name]; ok {
		return s.decl.Generics, true
	}
	if e, ok := r.enums[name]; ok {
		return e.decl.Generics, true
	}
	if c, ok := r.classes[name]; ok {
		return c.decl.Generics, true
	}
	return nil, false
}

// Arity reports how many type arguments a declared type takes; it is the
// oracle for best-effort unmangling.
func (r *Registry) Arity(name string) (int, bool) {
	g, ok := r.Generics(name)
	return len(g), ok
}

// StructFields returns the field types of a struct instantiation with
// parameters substituted.
func (r *Registry) StructFields(t *types.Type) ([]*types.Type, bool) {
	if t == nil || t.Kind != types.KindNamed {
		return nil, false
	}
	s, ok := r.structs[t.Name]
	if !ok {
		return nil, false
	}
	subs := types.NewSubst(s.decl.Generics, t.Args)
	out := make([]*types.Type, len(s.decl.Fields))
	for i, f := range s.decl.Fields {
		out[i] = subs.Apply(f.Type)
	}
	return out, true
}

// Field resolves a named field of a struct instantiation.
func (r *Registry) Field(t *types.Type, name string) (int, *types.Type, bool) {
	if t == nil || t.Kind != types.KindNamed {
		return -1, nil, false
	}
	s, ok := r.structs[t.Name]
	if !ok {
		return -1, nil, false
	}
	idx, ok := s.decl.FieldIndex(name)
	if !ok {
		return -1, nil, false
	}
	subs := types.NewSubst(s.decl.Generics, t.Args)
	return idx, subs.Apply(s.decl.Fields[idx].Type), true
}

// EnumVariants returns the payload types of every variant of an enum
// instantiation with parameters substituted.
func (r *Registry) EnumVariants(t *types.Type) ([][]*types.Type, bool) {
	if t == nil || t.Kind != types.KindNamed {
		return nil, false
	}
	e, ok := r.enums[t.Name]
	if !ok {
		return nil, false
	}
	subs := types.NewSubst(e.decl.Generics, t.Args)
	out := make([][]*types.Type, len(e.decl.Variants))
	for i, v := range e.decl.Variants {
		if len(v.Fields) == 0 {
			continue
		}
		fields := make([]*types.Type, len(v.Fields))
		for j, f := range v.Fields {
			fields[j] = subs.Apply(f)
		}
		out[i] = fields
	}
	return out, true
}

// IsCopy reports whether values of t are duplicated rather than moved when
// passed by value.
func (r *Registry) IsCopy(t *types.Type) bool {
	if t == nil {
		return true
	}
	switch t.Kind {
	case types.KindPrimitive, types.KindPointer, types.KindReference:
		return true
	case types.KindFunction:
		return t.Thin
	case types.KindTuple:
		for _, e := range t.Args {
			if !r.IsCopy(e) {
				return false
			}
		}
		return true
	case types.KindArray:
		return r.IsCopy(t.Elem)
	case types.KindNamed:
		if s, ok := r.structs[t.Name]; ok {
			return s.decl.Copy
		}
		if e, ok := r.enums[t.Name]; ok {
			for _, v := range e.decl.Variants {
				if len(v.Fields) > 0 {
					return false
				}
			}
			return true
		}
		return false
	default:
		return false
	}
}
