package codegen

import (
	"strings"

	"vesper/internal/ir"
	"vesper/internal/source"
	"vesper/internal/types"
)

// Binding is the storage of one named value. Addressable bindings live in
// memory at Slot; others hold their SSA value in Slot directly.
type Binding struct {
	Slot        ir.Value
	LL          ir.Type
	Type        *types.Type
	Addressable bool
	// Owned is set for by-value bindings of non-copy types; passing them to
	// an owning parameter consumes the binding.
	Owned   bool
	Mutable bool
	// NullEnv is kept for closure values whose environment is known to be
	// null, so they may still be passed as bare function references.
	NullEnv bool
	// Moved marks a tombstone left by consume. It hides bindings of the same
	// name in outer scopes.
	Moved bool
}

// locals is a stack of lexical scopes. Exactly one binding per name is live
// in a scope; consumed names become tombstones and are remembered for
// diagnostics.
type locals struct {
	scopes []map[string]*Binding
	moved  map[string]source.Span
}

func newLocals() *locals {
	return &locals{
		scopes: []map[string]*Binding{make(map[string]*Binding)},
		moved:  make(map[string]source.Span),
	}
}

func (l *locals) push() {
	l.scopes = append(l.scopes, make(map[string]*Binding))
}

func (l *locals) pop() {
	if len(l.scopes) > 1 {
		l.scopes = l.scopes[:len(l.scopes)-1]
	}
}

func (l *locals) bind(name string, b *Binding) {
	l.scopes[len(l.scopes)-1][name] = b
	for path := range l.moved {
		if path == name || strings.HasPrefix(path, name+".") {
			delete(l.moved, path)
		}
	}
}

func (l *locals) find(name string) (*Binding, int) {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if b, ok := l.scopes[i][name]; ok {
			return b, i
		}
	}
	return nil, -1
}

// lookup returns the live binding of name. A tombstone ends the search.
func (l *locals) lookup(name string) (*Binding, bool) {
	b, _ := l.find(name)
	if b == nil || b.Moved {
		return nil, false
	}
	return b, true
}

// hidden reports whether name currently resolves to a consumed binding.
func (l *locals) hidden(name string) bool {
	b, _ := l.find(name)
	return b != nil && b.Moved
}

// consume replaces the innermost binding of name with a tombstone.
func (l *locals) consume(name string, at source.Span) {
	b, i := l.find(name)
	if b == nil || b.Moved {
		return
	}
	l.scopes[i][name] = &Binding{Moved: true}
	l.moved[name] = at
}

// consumePath records a moved field path such as "p.name".
func (l *locals) consumePath(path string, at source.Span) {
	l.moved[path] = at
}

func (l *locals) movedAt(name string) (source.Span, bool) {
	sp, ok := l.moved[name]
	return sp, ok
}
