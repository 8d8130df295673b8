package layout

import (
	"vesper/internal/types"
)

func (e *LayoutEngine) computeLayout(t *types.Type, state *layoutState) (TypeLayout, *LayoutError) {
	switch t.Kind {
	case types.KindPrimitive:
		if t.Prim == types.PrimStr {
			return e.ptrLayout(), nil
		}
		return scalarLayoutBytes(t.Prim.Size()), nil

	case types.KindPointer, types.KindClass:
		return e.ptrLayout(), nil

	case types.KindReference:
		if t.Elem != nil && t.Elem.Kind == types.KindSlice {
			return e.wideLayout(), nil
		}
		return e.ptrLayout(), nil

	case types.KindSlice:
		return e.wideLayout(), nil

	case types.KindFunction:
		if t.Thin {
			return e.ptrLayout(), nil
		}
		return e.wideLayout(), nil

	case types.KindTuple:
		return e.recordLayout(t.Args, state)

	case types.KindArray:
		if t.Len < 0 {
			return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrNegativeLength, Type: t, Value: int64(t.Len)}
		}
		return e.arrayFixedLayout(t.Elem, t.Len, state)

	case types.KindNamed:
		if e.Shapes != nil {
			if variants, ok := e.Shapes.EnumVariants(t); ok {
				el, err := e.enumLayout(t, variants, state)
				if err != nil {
					return TypeLayout{Size: 0, Align: 1}, err
				}
				return TypeLayout{
					Size:          el.AllocSize(),
					Align:         el.Align(),
					TagSize:       TagSize,
					PayloadOffset: el.PayloadOffset(),
				}, nil
			}
			if fields, ok := e.Shapes.StructFields(t); ok {
				return e.recordLayout(fields, state)
			}
		}
		// Unresolved generic parameters and opaque names are handles.
		return e.ptrLayout(), nil

	default:
		return TypeLayout{Size: 0, Align: 1}, nil
	}
}

func (e *LayoutEngine) ptrLayout() TypeLayout {
	ptrSize := e.Target.PtrSize
	ptrAlign := e.Target.PtrAlign
	if ptrSize <= 0 {
		ptrSize = 8
	}
	if ptrAlign <= 0 {
		ptrAlign = ptrSize
	}
	return TypeLayout{Size: ptrSize, Align: ptrAlign}
}

// wideLayout is the two-word shape of closures and slice views.
func (e *LayoutEngine) wideLayout() TypeLayout {
	p := e.ptrLayout()
	return TypeLayout{Size: 2 * p.Size, Align: p.Align, FieldOffsets: []int{0, p.Size}}
}

func scalarLayoutBytes(size int) TypeLayout {
	if size <= 0 {
		return TypeLayout{Size: 0, Align: 1}
	}
	return TypeLayout{Size: size, Align: size}
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	r := n % align
	if r == 0 {
		return n
	}
	return n + (align - r)
}

func (e *LayoutEngine) arrayFixedLayout(elem *types.Type, length int, state *layoutState) (TypeLayout, *LayoutError) {
	elemLayout, err := e.layoutOf(elem, state)
	if err != nil {
		return TypeLayout{Size: 0, Align: 1}, err
	}
	elemAlign := max(elemLayout.Align, 1)
	stride := roundUp(elemLayout.Size, elemAlign)
	return TypeLayout{
		Size:  stride * length,
		Align: elemAlign,
	}, nil
}

// recordLayout lays out fields in order with natural alignment.
func (e *LayoutEngine) recordLayout(fields []*types.Type, state *layoutState) (TypeLayout, *LayoutError) {
	if len(fields) == 0 {
		return TypeLayout{Size: 0, Align: 1}, nil
	}
	offsets := make([]int, len(fields))
	size := 0
	align := 1
	for i, f := range fields {
		fl, err := e.layoutOf(f, state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		fAlign := max(fl.Align, 1)
		size = roundUp(size, fAlign)
		offsets[i] = size
		size += fl.Size
		align = max(align, fAlign)
	}
	size = roundUp(size, align)
	return TypeLayout{
		Size:         size,
		Align:        align,
		FieldOffsets: offsets,
	}, nil
}
