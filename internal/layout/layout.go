// Package layout computes static sizes of concrete types and the compacted
// payload representation of enum instantiations and closure environments.
package layout

import (
	"vesper/internal/types"
)

// TypeLayout is the ABI layout of a type for a specific Target.
type TypeLayout struct {
	Size  int
	Align int

	// Struct and tuple only:
	FieldOffsets []int

	// Enum only:
	TagSize       int
	PayloadOffset int
}

// Shapes resolves named instantiations into their field or variant types
// with type parameters already substituted. The declaration registry
// implements it.
type Shapes interface {
	StructFields(t *types.Type) ([]*types.Type, bool)
	EnumVariants(t *types.Type) ([][]*types.Type, bool)
}

// LayoutEngine computes memory layout for types.
type LayoutEngine struct {
	Target Target
	Shapes Shapes

	cache *cache
}

// New creates a new LayoutEngine for the specified target.
func New(target Target, shapes Shapes) *LayoutEngine {
	return &LayoutEngine{
		Target: target,
		Shapes: shapes,
		cache:  newCache(),
	}
}

type layoutState struct {
	stack []*types.Type
	index map[string]int
}

func newLayoutState() *layoutState {
	return &layoutState{
		index: make(map[string]int, 32),
	}
}

// LayoutOf computes and caches the layout of a type.
func (e *LayoutEngine) LayoutOf(t *types.Type) (TypeLayout, error) {
	if e == nil {
		return TypeLayout{Size: 0, Align: 1}, nil
	}
	if e.cache == nil {
		e.cache = newCache()
	}
	layout, err := e.layoutOf(t, newLayoutState())
	if err != nil {
		return layout, err
	}
	return layout, nil
}

func (e *LayoutEngine) layoutOf(t *types.Type, state *layoutState) (TypeLayout, *LayoutError) {
	if t.IsUnit() {
		return TypeLayout{Size: 0, Align: 1}, nil
	}
	key := cacheKey(t)
	if cached, ok := e.cache.get(key); ok {
		return cached.Layout, cached.Err
	}

	if idx, ok := state.index[key]; ok {
		cycle := append([]*types.Type(nil), state.stack[idx:]...)
		cycle = append(cycle, t)
		err := &LayoutError{
			Kind:  LayoutErrRecursiveUnsized,
			Type:  t,
			Cycle: cycle,
		}
		e.cache.put(key, &cacheEntry{Layout: TypeLayout{Size: 0, Align: 1}, Err: err})
		return TypeLayout{Size: 0, Align: 1}, err
	}

	state.index[key] = len(state.stack)
	state.stack = append(state.stack, t)
	layout, err := e.computeLayout(t, state)
	state.stack = state.stack[:len(state.stack)-1]
	delete(state.index, key)

	e.cache.put(key, &cacheEntry{Layout: layout, Err: err})
	return layout, err
}

// SizeOf returns the size of a type in bytes.
func (e *LayoutEngine) SizeOf(t *types.Type) (int, error) {
	l, err := e.LayoutOf(t)
	return l.Size, err
}

// AlignOf returns the alignment requirement of a type in bytes.
func (e *LayoutEngine) AlignOf(t *types.Type) (int, error) {
	l, err := e.LayoutOf(t)
	return l.Align, err
}

// FieldOffset returns the byte offset of a struct field.
func (e *LayoutEngine) FieldOffset(structT *types.Type, fieldIdx int) (int, error) {
	l, err := e.LayoutOf(structT)
	if err != nil {
		return 0, err
	}
	if fieldIdx < 0 || fieldIdx >= len(l.FieldOffsets) {
		return 0, nil
	}
	return l.FieldOffsets[fieldIdx], nil
}
