package layout

import (
	"fmt"

	"fortio.org/safecast"

	"vesper/internal/ir"
	"vesper/internal/types"
)

// TagSize is the width of every enum discriminant.
const TagSize = 4

// PayloadClass is the representation chosen for an enum payload.
type PayloadClass uint8

const (
	PayloadNone PayloadClass = iota
	PayloadInline32
	PayloadInline64
	PayloadWords
)

func (c PayloadClass) String() string {
	switch c {
	case PayloadNone:
		return "none"
	case PayloadInline32:
		return "inline-32"
	case PayloadInline64:
		return "inline-64"
	case PayloadWords:
		return "words"
	default:
		return fmt.Sprintf("PayloadClass(%d)", c)
	}
}

// ClassFor picks the smallest payload class holding maxPayload bytes. words
// is only meaningful for PayloadWords.
func ClassFor(maxPayload int) (class PayloadClass, words int) {
	switch {
	case maxPayload <= 0:
		return PayloadNone, 0
	case maxPayload <= 4:
		return PayloadInline32, 0
	case maxPayload <= 8:
		return PayloadInline64, 0
	default:
		return PayloadWords, (maxPayload + 7) / 8
	}
}

// VariantLayout is the packed payload record of one variant.
type VariantLayout struct {
	Fields  []*types.Type
	Offsets []int
	Size    int
	Align   int
}

// EnumLayout is decided once per concrete enum instantiation.
type EnumLayout struct {
	Class      PayloadClass
	Words      int
	MaxPayload int
	Variants   []VariantLayout
}

// TagOnly reports whether no variant carries a payload.
func (l EnumLayout) TagOnly() bool { return l.Class == PayloadNone }

// PayloadSize is the byte width of the payload slot.
func (l EnumLayout) PayloadSize() int {
	switch l.Class {
	case PayloadInline32:
		return 4
	case PayloadInline64:
		return 8
	case PayloadWords:
		return 8 * l.Words
	default:
		return 0
	}
}

// PayloadOffset is where the payload slot starts.
func (l EnumLayout) PayloadOffset() int {
	if l.Class == PayloadNone {
		return 0
	}
	return roundUp(TagSize, l.Align())
}

// Size is the encoded size: tag plus payload slot.
func (l EnumLayout) Size() int {
	return TagSize + l.PayloadSize()
}

// Align is the alignment of the whole value.
func (l EnumLayout) Align() int {
	switch l.Class {
	case PayloadInline64, PayloadWords:
		return 8
	default:
		return 4
	}
}

// AllocSize is Size rounded up to Align, the stride in arrays and records.
func (l EnumLayout) AllocSize() int {
	return roundUp(l.PayloadOffset()+l.PayloadSize(), l.Align())
}

// IRType is the literal record type of the enum value.
func (l EnumLayout) IRType() ir.Type {
	switch l.Class {
	case PayloadInline32:
		return ir.Struct(ir.I32, ir.I32)
	case PayloadInline64:
		return ir.Struct(ir.I32, ir.I64)
	case PayloadWords:
		return ir.Struct(ir.I32, ir.Array(l.Words, ir.I64))
	default:
		return ir.Struct(ir.I32)
	}
}

// Tag returns the discriminant of the variant at declaration index idx.
func Tag(idx int) (uint32, error) {
	return safecast.Conv[uint32](idx)
}

// Enum returns the layout of an enum instantiation.
func (e *LayoutEngine) Enum(t *types.Type) (EnumLayout, error) {
	if e == nil || e.Shapes == nil {
		return EnumLayout{}, &LayoutError{Kind: LayoutErrNotEnum, Type: t}
	}
	if e.cache == nil {
		e.cache = newCache()
	}
	key := cacheKey(t)
	if l, ok := e.cache.enums[key]; ok {
		return l, nil
	}
	if _, ok := e.Shapes.EnumVariants(t); !ok {
		return EnumLayout{}, &LayoutError{Kind: LayoutErrNotEnum, Type: t}
	}
	if _, err := e.LayoutOf(t); err != nil {
		return EnumLayout{}, err
	}
	return e.cache.enums[key], nil
}

func (e *LayoutEngine) enumLayout(t *types.Type, variants [][]*types.Type, state *layoutState) (EnumLayout, *LayoutError) {
	key := cacheKey(t)
	if l, ok := e.cache.enums[key]; ok {
		return l, nil
	}
	out := EnumLayout{Variants: make([]VariantLayout, len(variants))}
	for i, fields := range variants {
		if len(fields) == 0 {
			out.Variants[i] = VariantLayout{Align: 1}
			continue
		}
		rl, err := e.recordLayout(fields, state)
		if err != nil {
			return EnumLayout{}, err
		}
		out.Variants[i] = VariantLayout{
			Fields:  fields,
			Offsets: rl.FieldOffsets,
			Size:    rl.Size,
			Align:   rl.Align,
		}
		out.MaxPayload = max(out.MaxPayload, rl.Size)
	}
	out.Class, out.Words = ClassFor(out.MaxPayload)
	e.cache.enums[key] = out
	return out, nil
}
