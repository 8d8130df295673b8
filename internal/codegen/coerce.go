package codegen

import (
	"vesper/internal/ast"
	"vesper/internal/diag"
	"vesper/internal/ir"
	"vesper/internal/source"
	"vesper/internal/types"
)

// coerce converts op to the representation of the parameter or slot type to.
// Integer widths, references, array-to-slice views and closure/thin function
// shapes are adjusted; anything else passes through unchanged.
func (fe *funcEmitter) coerce(op operand, to *types.Type, sp source.Span) ir.Value {
	if to.IsUnit() {
		return op.val
	}
	want := fe.lowerType(to, sp)

	switch to.Kind {
	case types.KindReference, types.KindPointer:
		return fe.coerceRef(op, to, want, sp)
	case types.KindFunction:
		return fe.coerceFunc(op, to, sp)
	}

	// A reference passed where a value is expected is read through.
	if op.typ != nil && (op.typ.Kind == types.KindReference || op.typ.Kind == types.KindPointer) {
		if inner := types.StripRefs(op.typ); types.Equal(inner, to) {
			return fe.fn.Load(want, op.val)
		}
	}
	if !op.val.Valid() {
		return ir.Zero(want)
	}
	if op.val.Ty.Equal(want) {
		return op.val
	}
	return fe.convertScalar(op.val, op.typ, to, want)
}

// convertScalar changes the numeric representation of v from type from to to.
func (fe *funcEmitter) convertScalar(v ir.Value, from, to *types.Type, want ir.Type) ir.Value {
	switch {
	case v.Ty.IsInt() && want.IsInt():
		switch {
		case v.Ty.Bits() < want.Bits():
			if v.Ty.Bits() > 1 && from != nil && from.Kind == types.KindPrimitive && from.Prim.IsSigned() {
				return fe.fn.Cast("sext", v, want)
			}
			return fe.fn.Cast("zext", v, want)
		case v.Ty.Bits() > want.Bits():
			return fe.fn.Cast("trunc", v, want)
		}
		return v
	case v.Ty.IsInt() && want.IsFloat():
		if from != nil && from.Kind == types.KindPrimitive && !from.Prim.IsSigned() {
			return fe.fn.Cast("uitofp", v, want)
		}
		return fe.fn.Cast("sitofp", v, want)
	case v.Ty.IsFloat() && want.IsInt():
		if to != nil && to.Kind == types.KindPrimitive && !to.Prim.IsSigned() {
			return fe.fn.Cast("fptoui", v, want)
		}
		return fe.fn.Cast("fptosi", v, want)
	case v.Ty.Kind() == ir.KindFloat && want.Kind() == ir.KindDouble:
		return fe.fn.Cast("fpext", v, want)
	case v.Ty.Kind() == ir.KindDouble && want.Kind() == ir.KindFloat:
		return fe.fn.Cast("fptrunc", v, want)
	}
	return v
}

func (fe *funcEmitter) coerceRef(op operand, to *types.Type, want ir.Type, sp source.Span) ir.Value {
	// &[T; N] or a [T; N] place passed as &[T]: build { data, len }.
	if want.Equal(ir.SliceRef) {
		if arr := types.StripRefs(op.typ); arr != nil && arr.Kind == types.KindArray {
			data := op.val
			if op.typ.Kind == types.KindArray {
				data = fe.address(op)
			}
			s := fe.fn.InsertValue(ir.Undef(ir.SliceRef), ir.Value{Ref: data.Ref, Ty: ir.Ptr}, 0)
			return fe.fn.InsertValue(s, ir.ConstInt(ir.I64, int64(arr.Len)), 1)
		}
		if op.typ != nil && op.typ.Kind == types.KindSlice {
			return op.val
		}
	}
	if op.typ != nil && (op.typ.Kind == types.KindReference || op.typ.Kind == types.KindPointer) {
		return op.val
	}
	if op.typ != nil && op.typ.Kind == types.KindClass {
		return op.val
	}
	if op.val.Valid() && op.val.Ty.Equal(want) && op.typ == nil {
		return op.val
	}
	// By-value operand where an address is wanted.
	return fe.address(op)
}

// coerceFunc adapts function values. A thin target takes only the code
// half, which is wrong for a closure that needs its environment.
func (fe *funcEmitter) coerceFunc(op operand, to *types.Type, sp source.Span) ir.Value {
	v := op.val
	switch {
	case to.Thin && v.Ty.Equal(ir.Closure):
		if !op.nullEnv {
			fe.s.errorf(diag.CodegenCapturesDropped, sp, "closure value of type %s may capture variables and cannot be passed as %s", op.typ, to)
		}
		return fe.fn.ExtractValue(v, 0, ir.Ptr)
	case !to.Thin && v.Ty.IsPtr():
		fat := fe.fn.InsertValue(ir.Undef(ir.Closure), v, 0)
		return fe.fn.InsertValue(fat, ir.Null(), 1)
	}
	return v
}

// consumeArg marks the identifier or field path behind op as moved when it
// was passed by value to an owning parameter.
func (fe *funcEmitter) consumeArg(arg *ast.Expr, op operand, param *types.Type) {
	if op.root == "" || param == nil {
		return
	}
	if param.Kind == types.KindReference || param.Kind == types.KindPointer {
		return
	}
	if fe.s.reg.IsCopy(op.typ) {
		return
	}
	b, ok := fe.locals.lookup(op.root)
	if !ok || !b.Owned {
		return
	}
	if op.place == op.root {
		fe.locals.consume(op.root, arg.Span)
		return
	}
	fe.locals.consumePath(op.place, arg.Span)
}

// checkMoved reports a use of a consumed variable or field path.
func (fe *funcEmitter) checkMoved(path string, sp source.Span) bool {
	if at, moved := fe.locals.movedAt(path); moved {
		diag.ReportError(fe.s.rep, diag.CodegenUseAfterMove, sp, "use of moved value "+path).
			WithNote(at, "value moved here").Emit()
		return true
	}
	return false
}
