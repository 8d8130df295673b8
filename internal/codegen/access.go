package codegen

import (
	"vesper/internal/ast"
	"vesper/internal/diag"
	"vesper/internal/ir"
	"vesper/internal/source"
	"vesper/internal/types"
)

// placeOf returns the address of the value op denotes and its type, reading
// through references and pointers.
func (fe *funcEmitter) placeOf(op operand) (ir.Value, *types.Type) {
	t := op.typ
	if t == nil {
		return fe.address(op), t
	}
	switch t.Kind {
	case types.KindReference, types.KindPointer:
		addr := op.val
		t = t.Elem
		for t != nil && (t.Kind == types.KindReference || t.Kind == types.KindPointer) {
			addr = fe.fn.Load(ir.Ptr, addr)
			t = t.Elem
		}
		return addr, t
	case types.KindClass:
		return op.val, t
	default:
		return fe.address(op), t
	}
}

func (fe *funcEmitter) member(x *ast.Expr, cx exprCtx) operand {
	base := fe.expr(x.Member.Target, cx.free())
	return fe.field(base, x.Member.Field, x.Span)
}

// field resolves name on base. A direct field always wins; wrapper shapes
// are followed only when the current type has no such field.
func (fe *funcEmitter) field(base operand, name string, sp source.Span) operand {
	addr, t := fe.placeOf(base)
	direct := true
	for range maxDerefDepth {
		if idx, ft, agg, ok := fe.directField(t, name, sp); ok {
			p := fe.fn.FieldPtr(agg, addr, idx)
			out := operand{
				val:  fe.fn.Load(fe.lowerType(ft, sp), p),
				typ:  ft,
				addr: p,
			}
			if direct && base.root != "" && base.typ != nil && base.typ.Kind != types.KindReference {
				out.root = base.root
				out.place = base.place + "." + name
				if fe.checkMoved(out.place, sp) {
					return placeholder()
				}
			}
			return out
		}
		inner, ok := DerefTarget(t)
		if !ok {
			break
		}
		addr = fe.resolveFieldPath(ShapeOf(t), t, addr, sp)
		t = inner
		direct = false
	}
	fe.s.errorf(diag.CodegenUnknownField, sp, "unknown field %q on %s", name, base.typ)
	return placeholder()
}

// directField looks name up on a struct or class without auto-deref.
func (fe *funcEmitter) directField(t *types.Type, name string, sp source.Span) (int, *types.Type, ir.Type, bool) {
	if t == nil {
		return 0, nil, ir.Void, false
	}
	switch t.Kind {
	case types.KindNamed:
		idx, ft, ok := fe.s.reg.Field(t, name)
		if !ok {
			return 0, nil, ir.Void, false
		}
		return idx, ft, fe.lowerType(t, sp), true
	case types.KindClass:
		c, _, ok := fe.s.reg.Class(t.Name)
		if !ok {
			return 0, nil, ir.Void, false
		}
		subs := types.NewSubst(c.Generics, t.Args)
		for i, f := range c.Fields {
			if f.Name == name {
				return i, subs.Apply(f.Type), fe.s.classRecord(t, sp), true
			}
		}
	}
	return 0, nil, ir.Void, false
}

// classRecord is the heap record a class value points to.
func (s *Session) classRecord(t *types.Type, sp source.Span) ir.Type {
	c, _, ok := s.reg.Class(t.Name)
	if !ok {
		return ir.Struct()
	}
	subs := types.NewSubst(c.Generics, t.Args)
	fields := make([]ir.Type, len(c.Fields))
	for i, f := range c.Fields {
		fields[i] = s.storageType(subs.Apply(f.Type), sp)
	}
	return ir.Struct(fields...)
}

func (fe *funcEmitter) tupleIndex(x *ast.Expr, cx exprCtx) operand {
	base := fe.expr(x.TupleIndex.Target, cx.free())
	addr, t := fe.placeOf(base)
	idx := x.TupleIndex.Index
	if t == nil || t.Kind != types.KindTuple || idx < 0 || idx >= len(t.Args) {
		fe.s.errorf(diag.CodegenUnknownField, x.Span, "no element %d on %s", idx, base.typ)
		return placeholder()
	}
	et := t.Args[idx]
	p := fe.fn.FieldPtr(fe.lowerType(t, x.Span), addr, idx)
	return operand{val: fe.fn.Load(fe.lowerType(et, x.Span), p), typ: et, addr: p}
}

func (fe *funcEmitter) index(x *ast.Expr, cx exprCtx) operand {
	base := fe.expr(x.Index.Target, cx.free())
	i := fe.expr(x.Index.Index, cx.expect(types.I64))
	iv := fe.coerce(i, types.I64, x.Index.Index.Span)

	var data ir.Value
	var elem *types.Type
	switch t := types.StripRefs(base.typ); {
	case t != nil && t.Kind == types.KindArray:
		data, _ = fe.placeOf(base)
		elem = t.Elem
	case t != nil && t.Kind == types.KindSlice:
		data = fe.fn.ExtractValue(base.val, 0, ir.Ptr)
		elem = t.Elem
	default:
		fe.s.errorf(diag.CodegenInvalidOperand, x.Span, "cannot index %s", base.typ)
		return placeholder()
	}
	ll := fe.lowerType(elem, x.Span)
	p := fe.fn.ElemPtr(ll, data, iv)
	return operand{val: fe.fn.Load(ll, p), typ: elem, addr: p}
}
