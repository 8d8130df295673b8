package codegen

import (
	"vesper/internal/ast"
	"vesper/internal/diag"
	"vesper/internal/ir"
	"vesper/internal/source"
	"vesper/internal/types"
)

// expr lowers x and returns its value. Errors are reported to the session
// and a placeholder operand is returned so lowering can continue.
func (fe *funcEmitter) expr(x *ast.Expr, cx exprCtx) operand {
	if x == nil {
		return operand{}
	}
	switch x.Kind {
	case ast.ExprLit:
		return fe.literal(x, cx)
	case ast.ExprIdent:
		return fe.ident(x, cx)
	case ast.ExprBinary:
		return fe.binary(x, cx)
	case ast.ExprUnary:
		return fe.unary(x, cx)
	case ast.ExprCast:
		return fe.cast(x, cx)
	case ast.ExprCall:
		return fe.call(x, cx)
	case ast.ExprStaticCall, ast.ExprPath:
		return fe.staticCall(x, cx)
	case ast.ExprMethodCall:
		return fe.methodCall(x, cx)
	case ast.ExprMember:
		return fe.member(x, cx)
	case ast.ExprTupleIndex:
		return fe.tupleIndex(x, cx)
	case ast.ExprIndex:
		return fe.index(x, cx)
	case ast.ExprTuple:
		return fe.tuple(x, cx)
	case ast.ExprArray:
		return fe.array(x, cx)
	case ast.ExprStruct:
		return fe.structLit(x, cx)
	case ast.ExprClosure:
		return fe.closure(x, cx)
	case ast.ExprBlock:
		return fe.block(x, cx)
	case ast.ExprIf:
		return fe.ifExpr(x, cx)
	default:
		fe.s.errorf(diag.CodegenUnsupportedExpr, x.Span, "cannot lower %s expression", x.Kind)
		return placeholder()
	}
}

// staticType is the type of x known without lowering it, nil when unknown.
func (fe *funcEmitter) staticType(x *ast.Expr, cx exprCtx) *types.Type {
	if x == nil {
		return nil
	}
	if x.Type != nil {
		return cx.resolve(x.Type)
	}
	if x.Kind == ast.ExprIdent {
		if b, ok := fe.locals.lookup(x.Ident.Name); ok {
			return b.Type
		}
	}
	return nil
}

func (fe *funcEmitter) literal(x *ast.Expr, cx exprCtx) operand {
	lit := x.Lit
	t := cx.resolve(x.Type)
	switch lit.Kind {
	case ast.ExprLitInt:
		if t == nil && cx.Expected != nil && cx.Expected.Kind == types.KindPrimitive && cx.Expected.Prim.IsNumeric() {
			t = cx.Expected
		}
		if t == nil || t.Kind != types.KindPrimitive {
			t = types.I32
		}
		ll := primType(t.Prim)
		if t.Prim.IsFloat() {
			return operand{val: ir.ConstFloat(ll, float64(lit.Int)), typ: t}
		}
		return operand{val: ir.ConstInt(ll, lit.Int), typ: t}
	case ast.ExprLitFloat:
		if cx.Expected.IsFloat() && (t == nil || t.IsPrim(types.PrimF64)) {
			t = cx.Expected
		}
		if !t.IsFloat() {
			t = types.F64
		}
		return operand{val: ir.ConstFloat(primType(t.Prim), lit.Float), typ: t}
	case ast.ExprLitBool:
		v := int64(0)
		if lit.Bool {
			v = 1
		}
		return operand{val: ir.ConstInt(ir.I1, v), typ: types.Bool}
	case ast.ExprLitChar:
		return operand{val: ir.ConstInt(ir.I32, lit.Int), typ: types.Char}
	case ast.ExprLitString:
		return operand{val: fe.s.mod.StringConst(lit.Str), typ: types.Str}
	default:
		return operand{}
	}
}

func (fe *funcEmitter) ident(x *ast.Expr, cx exprCtx) operand {
	name := x.Ident.Name
	if b, ok := fe.locals.lookup(name); ok {
		if !b.Addressable {
			return operand{val: b.Slot, typ: b.Type, place: name, root: name, nullEnv: b.NullEnv}
		}
		return operand{
			val:     fe.fn.Load(b.LL, b.Slot),
			typ:     b.Type,
			addr:    b.Slot,
			place:   name,
			root:    name,
			nullEnv: b.NullEnv,
		}
	}
	if fe.checkMoved(name, x.Span) {
		return placeholder()
	}
	if fd, origin, ok := fe.s.reg.Func(name); ok && !fd.IsGeneric() {
		return fe.funcValue(fd, origin, cx, x)
	}
	fe.s.errorf(diag.CodegenUnknownVariable, x.Span, "unknown variable %q", name)
	return placeholder()
}

func (fe *funcEmitter) binary(x *ast.Expr, cx exprCtx) operand {
	b := x.Binary
	if b.Op == ast.ExprBinaryLogicalAnd || b.Op == ast.ExprBinaryLogicalOr {
		return fe.logical(x, cx)
	}
	hint := fe.staticType(b.Left, cx)
	if hint == nil {
		hint = fe.staticType(b.Right, cx)
	}
	if hint == nil && !b.Op.IsComparison() {
		hint = cx.Expected
	}
	l := fe.expr(b.Left, cx.expect(hint))
	r := fe.expr(b.Right, cx.expect(l.typ))
	if !l.val.Valid() || !r.val.Valid() {
		fe.s.errorf(diag.CodegenInvalidOperand, x.Span, "operator %s needs two values", b.Op)
		return placeholder()
	}
	rv := fe.coerce(r, l.typ, x.Span)
	lv := l.val
	t := l.typ

	if b.Op.IsComparison() {
		return operand{val: fe.compare(b.Op, lv, rv, t), typ: types.Bool}
	}
	if lv.Ty.IsFloat() {
		op, ok := floatOps[b.Op]
		if !ok {
			fe.s.errorf(diag.CodegenInvalidOperand, x.Span, "operator %s is not defined on %s", b.Op, t)
			return placeholder()
		}
		return operand{val: fe.fn.Bin(op, lv, rv), typ: t}
	}
	if !lv.Ty.IsInt() {
		fe.s.errorf(diag.CodegenInvalidOperand, x.Span, "operator %s is not defined on %s", b.Op, t)
		return placeholder()
	}
	signed := t == nil || t.Kind != types.KindPrimitive || t.Prim.IsSigned()
	return operand{val: fe.fn.Bin(intOp(b.Op, signed), lv, rv), typ: t}
}

var floatOps = map[ast.ExprBinaryOp]string{
	ast.ExprBinaryAdd: "fadd",
	ast.ExprBinarySub: "fsub",
	ast.ExprBinaryMul: "fmul",
	ast.ExprBinaryDiv: "fdiv",
	ast.ExprBinaryMod: "frem",
}

func intOp(op ast.ExprBinaryOp, signed bool) string {
	switch op {
	case ast.ExprBinaryAdd:
		return "add"
	case ast.ExprBinarySub:
		return "sub"
	case ast.ExprBinaryMul:
		return "mul"
	case ast.ExprBinaryDiv:
		if signed {
			return "sdiv"
		}
		return "udiv"
	case ast.ExprBinaryMod:
		if signed {
			return "srem"
		}
		return "urem"
	case ast.ExprBinaryBitAnd:
		return "and"
	case ast.ExprBinaryBitOr:
		return "or"
	case ast.ExprBinaryBitXor:
		return "xor"
	case ast.ExprBinaryShiftLeft:
		return "shl"
	case ast.ExprBinaryShiftRight:
		if signed {
			return "ashr"
		}
		return "lshr"
	default:
		return "add"
	}
}

func (fe *funcEmitter) compare(op ast.ExprBinaryOp, l, r ir.Value, t *types.Type) ir.Value {
	if l.Ty.IsFloat() {
		pred := map[ast.ExprBinaryOp]string{
			ast.ExprBinaryEq:        "oeq",
			ast.ExprBinaryNotEq:     "one",
			ast.ExprBinaryLess:      "olt",
			ast.ExprBinaryLessEq:    "ole",
			ast.ExprBinaryGreater:   "ogt",
			ast.ExprBinaryGreaterEq: "oge",
		}[op]
		return fe.fn.FCmp(pred, l, r)
	}
	signed := t != nil && t.Kind == types.KindPrimitive && t.Prim.IsSigned()
	var pred string
	switch op {
	case ast.ExprBinaryEq:
		pred = "eq"
	case ast.ExprBinaryNotEq:
		pred = "ne"
	case ast.ExprBinaryLess:
		pred = pick(signed, "slt", "ult")
	case ast.ExprBinaryLessEq:
		pred = pick(signed, "sle", "ule")
	case ast.ExprBinaryGreater:
		pred = pick(signed, "sgt", "ugt")
	default:
		pred = pick(signed, "sge", "uge")
	}
	return fe.fn.ICmp(pred, l, r)
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}

// logical lowers && and || with short-circuit evaluation.
func (fe *funcEmitter) logical(x *ast.Expr, cx exprCtx) operand {
	b := x.Binary
	l := fe.coerce(fe.expr(b.Left, cx.expect(types.Bool)), types.Bool, x.Span)
	rhs := fe.fn.NewLabel("logic.rhs")
	end := fe.fn.NewLabel("logic.end")
	from := fe.fn.Block()
	short := ir.ConstInt(ir.I1, 0)
	if b.Op == ast.ExprBinaryLogicalAnd {
		fe.fn.CondBr(l, rhs, end)
	} else {
		short = ir.ConstInt(ir.I1, 1)
		fe.fn.CondBr(l, end, rhs)
	}
	fe.fn.Label(rhs)
	r := fe.coerce(fe.expr(b.Right, cx.expect(types.Bool)), types.Bool, x.Span)
	rEnd := fe.fn.Block()
	fe.fn.Br(end)
	fe.fn.Label(end)
	v := fe.fn.Phi(ir.I1, ir.Incoming{V: short, Block: from}, ir.Incoming{V: r, Block: rEnd})
	return operand{val: v, typ: types.Bool}
}

func (fe *funcEmitter) unary(x *ast.Expr, cx exprCtx) operand {
	u := x.Unary
	switch u.Op {
	case ast.ExprUnaryMinus:
		v := fe.expr(u.Operand, cx)
		switch {
		case v.val.Ty.IsInt():
			return operand{val: fe.fn.Bin("sub", ir.ConstInt(v.val.Ty, 0), v.val), typ: v.typ}
		case v.val.Ty.IsFloat():
			return operand{val: fe.fn.Bin("fsub", ir.ConstFloat(v.val.Ty, 0), v.val), typ: v.typ}
		}
	case ast.ExprUnaryNot:
		v := fe.expr(u.Operand, cx)
		if v.val.Ty.IsInt() {
			return operand{val: fe.fn.Bin("xor", v.val, ir.ConstInt(v.val.Ty, -1)), typ: v.typ}
		}
	case ast.ExprUnaryDeref:
		v := fe.expr(u.Operand, cx.free())
		inner, ok := v.typ.Deref()
		if ok {
			return operand{
				val:   fe.fn.Load(fe.lowerType(inner, x.Span), v.val),
				typ:   inner,
				addr:  v.val,
				place: v.place,
				root:  v.root,
			}
		}
		if inner, ok := DerefTarget(v.typ); ok {
			addr := fe.resolveFieldPath(ShapeOf(v.typ), v.typ, fe.address(v), x.Span)
			return operand{val: fe.fn.Load(fe.lowerType(inner, x.Span), addr), typ: inner, addr: addr}
		}
	case ast.ExprUnaryRef, ast.ExprUnaryRefMut:
		var inner *types.Type
		if cx.Expected != nil && cx.Expected.Kind == types.KindReference {
			inner = cx.Expected.Elem
		}
		v := fe.expr(u.Operand, cx.expect(inner))
		return operand{
			val:   fe.address(v),
			typ:   types.RefTo(u.Op == ast.ExprUnaryRefMut, v.typ),
			place: v.place,
			root:  v.root,
		}
	}
	fe.s.errorf(diag.CodegenInvalidOperand, x.Span, "operator %s is not defined here", u.Op)
	return placeholder()
}

func (fe *funcEmitter) cast(x *ast.Expr, cx exprCtx) operand {
	to := cx.resolve(x.Cast.To)
	v := fe.expr(x.Cast.Value, cx.free())
	if !v.val.Valid() || to == nil {
		fe.s.errorf(diag.CodegenInvalidOperand, x.Span, "invalid cast to %s", to)
		return placeholder()
	}
	want := fe.lowerType(to, x.Span)
	if v.val.Ty.Equal(want) {
		return operand{val: v.val, typ: to}
	}
	if v.val.Ty.IsPtr() && want.IsPtr() {
		return operand{val: v.val, typ: to}
	}
	if v.val.Ty.IsPtr() && want.IsInt() {
		return operand{val: fe.fn.Cast("ptrtoint", v.val, want), typ: to}
	}
	if v.val.Ty.IsInt() && want.IsPtr() {
		return operand{val: fe.fn.Cast("inttoptr", v.val, want), typ: to}
	}
	return operand{val: fe.convertScalar(v.val, v.typ, to, want), typ: to}
}

func (fe *funcEmitter) tuple(x *ast.Expr, cx exprCtx) operand {
	elems := x.Tuple.Elements
	var hints []*types.Type
	if cx.Expected != nil && cx.Expected.Kind == types.KindTuple {
		hints = cx.Expected.Args
	}
	ops := make([]operand, len(elems))
	tys := make([]*types.Type, len(elems))
	for i, el := range elems {
		var hint *types.Type
		if i < len(hints) {
			hint = hints[i]
		}
		ops[i] = fe.expr(el, cx.expect(hint))
		tys[i] = ops[i].typ
		if hint != nil {
			tys[i] = hint
		}
	}
	t := types.TupleOf(tys...)
	agg := ir.Undef(fe.lowerType(t, x.Span))
	for i, op := range ops {
		if tys[i].IsUnit() {
			continue
		}
		agg = fe.fn.InsertValue(agg, fe.coerce(op, tys[i], el(elems, i)), i)
	}
	return operand{val: agg, typ: t}
}

func (fe *funcEmitter) array(x *ast.Expr, cx exprCtx) operand {
	elems := x.Array.Elements
	var elemT *types.Type
	if cx.Expected != nil && (cx.Expected.Kind == types.KindArray || cx.Expected.Kind == types.KindSlice) {
		elemT = cx.Expected.Elem
	}
	ops := make([]operand, len(elems))
	for i, e := range elems {
		ops[i] = fe.expr(e, cx.expect(elemT))
		if elemT == nil {
			elemT = ops[i].typ
		}
	}
	if elemT == nil {
		elemT = types.I32
	}
	t := types.ArrayOf(elemT, len(elems))
	agg := ir.Undef(fe.lowerType(t, x.Span))
	for i, op := range ops {
		agg = fe.fn.InsertValue(agg, fe.coerce(op, elemT, el(elems, i)), i)
	}
	return operand{val: agg, typ: t}
}

func el(xs []*ast.Expr, i int) source.Span {
	if i < len(xs) && xs[i] != nil {
		return xs[i].Span
	}
	return source.Span{}
}
