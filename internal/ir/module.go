package ir

import (
	"fmt"
	"strconv"
	"strings"
)

type typeDef struct {
	name string
	body Type
}

type decl struct {
	name   string
	ret    Type
	params []Type
}

// Module is the append-only output of one codegen session.
type Module struct {
	Triple string

	typeDefs  []typeDef
	typeIndex map[string]int
	strs      []string
	strIndex  map[string]string
	decls     []decl
	declIndex map[string]int
	funcs     []*Func
	funcIndex map[string]*Func
}

// NewModule creates an empty module.
func NewModule(triple string) *Module {
	return &Module{
		Triple:    triple,
		typeIndex: make(map[string]int),
		strIndex:  make(map[string]string),
		declIndex: make(map[string]int),
		funcIndex: make(map[string]*Func),
	}
}

// DefineType records %name = type body. Returns false when already defined.
func (m *Module) DefineType(name string, body Type) bool {
	if _, ok := m.typeIndex[name]; ok {
		return false
	}
	m.typeIndex[name] = len(m.typeDefs)
	m.typeDefs = append(m.typeDefs, typeDef{name: name, body: body})
	return true
}

// TypeBody returns the body of a defined type.
func (m *Module) TypeBody(name string) (Type, bool) {
	idx, ok := m.typeIndex[name]
	if !ok {
		return Void, false
	}
	return m.typeDefs[idx].body, true
}

// StringConst returns a pointer to a private NUL-terminated constant holding s.
func (m *Module) StringConst(s string) Value {
	if name, ok := m.strIndex[s]; ok {
		return Global(name)
	}
	name := ".str." + strconv.Itoa(len(m.strs))
	m.strIndex[s] = name
	m.strs = append(m.strs, s)
	return Global(name)
}

// Declare records an external function declaration (first signature wins).
func (m *Module) Declare(name string, ret Type, params ...Type) {
	if _, ok := m.declIndex[name]; ok {
		return
	}
	m.declIndex[name] = len(m.decls)
	m.decls = append(m.decls, decl{name: name, ret: ret, params: params})
}

// AddFunc appends a definition. Returns false if the symbol already exists.
func (m *Module) AddFunc(f *Func) bool {
	if _, ok := m.funcIndex[f.Name]; ok {
		return false
	}
	m.funcIndex[f.Name] = f
	m.funcs = append(m.funcs, f)
	return true
}

// HasFunc reports whether a definition named name exists.
func (m *Module) HasFunc(name string) bool {
	_, ok := m.funcIndex[name]
	return ok
}

// Func returns a definition by name.
func (m *Module) Func(name string) (*Func, bool) {
	f, ok := m.funcIndex[name]
	return f, ok
}

// Funcs returns definitions in emission order.
func (m *Module) Funcs() []*Func {
	return m.funcs
}

// Text renders the module.
func (m *Module) Text() string {
	var b strings.Builder
	if m.Triple != "" {
		fmt.Fprintf(&b, "target triple = %q\n\n", m.Triple)
	}
	for _, td := range m.typeDefs {
		fmt.Fprintf(&b, "%%%s = type %s\n", td.name, td.body)
	}
	if len(m.typeDefs) > 0 {
		b.WriteByte('\n')
	}
	for i, s := range m.strs {
		fmt.Fprintf(&b, "@.str.%d = private unnamed_addr constant [%d x i8] c\"%s\\00\"\n", i, len(s)+1, escape(s))
	}
	if len(m.strs) > 0 {
		b.WriteByte('\n')
	}
	wroteDecl := false
	for _, d := range m.decls {
		if m.HasFunc(d.name) {
			continue
		}
		params := make([]string, len(d.params))
		for i, p := range d.params {
			params[i] = p.String()
		}
		fmt.Fprintf(&b, "declare %s @%s(%s)\n", d.ret, d.name, strings.Join(params, ", "))
		wroteDecl = true
	}
	if wroteDecl {
		b.WriteByte('\n')
	}
	for i, f := range m.funcs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(f.String())
	}
	return b.String()
}

func escape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c >= 0x7f || c == '"' || c == '\\' {
			fmt.Fprintf(&b, "\\%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
