package codegen

import (
	"vesper/internal/diag"
	"vesper/internal/ir"
	"vesper/internal/mono"
	"vesper/internal/source"
	"vesper/internal/types"
)

// lowerType maps a concrete type to its IR representation. Unit maps to
// void; named structs and enums are requested from the scheduler and
// referenced by mangled name.
func (s *Session) lowerType(t *types.Type, sp source.Span) ir.Type {
	if t.IsUnit() {
		return ir.Void
	}
	switch t.Kind {
	case types.KindPrimitive:
		return primType(t.Prim)
	case types.KindPointer, types.KindClass:
		return ir.Ptr
	case types.KindReference:
		if t.Elem != nil && t.Elem.Kind == types.KindSlice {
			return ir.SliceRef
		}
		return ir.Ptr
	case types.KindSlice:
		return ir.SliceRef
	case types.KindFunction:
		if t.Thin {
			return ir.Ptr
		}
		return ir.Closure
	case types.KindTuple:
		fields := make([]ir.Type, len(t.Args))
		for i, e := range t.Args {
			fields[i] = s.storageType(e, sp)
		}
		return ir.Struct(fields...)
	case types.KindArray:
		return ir.Array(t.Len, s.storageType(t.Elem, sp))
	case types.KindNamed:
		if !s.isDeclaredType(t.Name) {
			// Unresolved parameters and opaque names are handles.
			return ir.Ptr
		}
		return ir.Named(s.sched.RequestInstantiation(t.Name, t.Args, mono.UseSite{Span: sp}))
	default:
		return ir.Ptr
	}
}

// storageType is lowerType with Unit as an empty record, for use inside
// aggregates.
func (s *Session) storageType(t *types.Type, sp source.Span) ir.Type {
	if t.IsUnit() {
		return ir.Struct()
	}
	return s.lowerType(t, sp)
}

func primType(p types.Prim) ir.Type {
	switch p {
	case types.PrimUnit:
		return ir.Void
	case types.PrimBool:
		return ir.I1
	case types.PrimStr:
		return ir.Ptr
	case types.PrimF32:
		return ir.Float
	case types.PrimF64:
		return ir.Double
	default:
		return ir.Int(p.Bits())
	}
}

func (s *Session) isDeclaredType(name string) bool {
	if _, _, ok := s.reg.Struct(name); ok {
		return true
	}
	_, _, ok := s.reg.Enum(name)
	return ok
}

func (s *Session) isEnum(t *types.Type) bool {
	if t == nil || t.Kind != types.KindNamed {
		return false
	}
	_, _, ok := s.reg.Enum(t.Name)
	return ok
}

// emitTypeDef writes the type definition of a drained type instantiation.
func (s *Session) emitTypeDef(t *types.Type, sp source.Span) {
	name := s.sched.RequestInstantiation(t.Name, t.Args, mono.UseSite{})
	if _, err := s.layout.LayoutOf(t); err != nil {
		s.errorf(diag.CodegenRecursiveLayout, sp, "%s: %v", t, err)
		s.mod.DefineType(name, ir.Struct(ir.I32))
		return
	}
	if s.isEnum(t) {
		el, err := s.layout.Enum(t)
		if err != nil {
			s.errorf(diag.CodegenRecursiveLayout, sp, "%s: %v", t, err)
			s.mod.DefineType(name, ir.Struct(ir.I32))
			return
		}
		s.mod.DefineType(name, el.IRType())
		return
	}
	fields, _ := s.reg.StructFields(t)
	lowered := make([]ir.Type, len(fields))
	for i, f := range fields {
		lowered[i] = s.storageType(f, sp)
	}
	s.mod.DefineType(name, ir.Struct(lowered...))
}

// variantPayloadType is the literal record stored in an enum's payload slot
// for the variant at idx.
func (s *Session) variantPayloadType(enumT *types.Type, idx int, sp source.Span) (ir.Type, []*types.Type) {
	variants, ok := s.reg.EnumVariants(enumT)
	if !ok || idx < 0 || idx >= len(variants) {
		return ir.Struct(), nil
	}
	fields := variants[idx]
	lowered := make([]ir.Type, len(fields))
	for i, f := range fields {
		lowered[i] = s.storageType(f, sp)
	}
	return ir.Struct(lowered...), fields
}
