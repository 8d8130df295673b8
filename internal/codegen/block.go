package codegen

import (
	"vesper/internal/ast"
	"vesper/internal/diag"
	"vesper/internal/ir"
	"vesper/internal/types"
)

func (fe *funcEmitter) block(x *ast.Expr, cx exprCtx) operand {
	fe.locals.push()
	defer fe.locals.pop()
	for _, st := range x.Block.Stmts {
		fe.stmt(st, cx)
	}
	if x.Block.Tail == nil {
		return operand{}
	}
	fe.deadBlock()
	return fe.expr(x.Block.Tail, cx)
}

func (fe *funcEmitter) stmt(st *ast.Stmt, cx exprCtx) {
	if st == nil {
		return
	}
	fe.deadBlock()
	switch st.Kind {
	case ast.StmtLet:
		fe.let(st, cx)
	case ast.StmtAssign:
		fe.assign(st, cx)
	case ast.StmtExpr:
		fe.expr(st.Expr, cx.free())
	case ast.StmtReturn:
		fe.ret(st, cx)
	}
}

// let binds a name. Mutable bindings and aggregates that are read by field
// live in a stack slot; the rest stay SSA values.
func (fe *funcEmitter) let(st *ast.Stmt, cx exprCtx) {
	l := st.Let
	declared := cx.resolve(l.Type)
	v := fe.expr(l.Value, cx.expect(declared))
	t := v.typ
	if declared != nil {
		t = declared
	}
	if !v.val.Valid() && t.IsUnit() {
		fe.locals.bind(l.Name, &Binding{Type: types.Unit, LL: ir.Void})
		return
	}
	val := v.val
	if declared != nil {
		val = fe.coerce(v, declared, st.Span)
	}
	fe.consumeArg(l.Value, v, t)
	owned := !fe.s.reg.IsCopy(t)
	if l.Mutable {
		slot := fe.spill(val)
		fe.locals.bind(l.Name, &Binding{Slot: slot, LL: val.Ty, Type: t, Addressable: true, Owned: owned, Mutable: true, NullEnv: v.nullEnv})
		return
	}
	fe.locals.bind(l.Name, &Binding{Slot: val, LL: val.Ty, Type: t, Owned: owned, NullEnv: v.nullEnv})
}

func (fe *funcEmitter) assign(st *ast.Stmt, cx exprCtx) {
	a := st.Assign
	if a.Target.Kind == ast.ExprIdent {
		name := a.Target.Ident.Name
		b, ok := fe.locals.lookup(name)
		if !ok {
			if !fe.checkMoved(name, a.Target.Span) {
				fe.s.errorf(diag.CodegenUnknownVariable, a.Target.Span, "unknown variable %q", name)
			}
			fe.expr(a.Value, cx.free())
			return
		}
		v := fe.expr(a.Value, cx.expect(b.Type))
		val := fe.coerce(v, b.Type, st.Span)
		fe.consumeArg(a.Value, v, b.Type)
		b.NullEnv = b.NullEnv && v.nullEnv
		if !b.Addressable {
			if !b.Mutable {
				fe.s.errorf(diag.CodegenInvalidOperand, a.Target.Span, "cannot assign to immutable binding %q", name)
				return
			}
			b.Slot = val
			return
		}
		fe.locals.bind(name, b)
		fe.fn.Store(val, b.Slot)
		return
	}
	target := fe.expr(a.Target, cx.free())
	v := fe.expr(a.Value, cx.expect(target.typ))
	if !target.addressable() {
		fe.s.errorf(diag.CodegenInvalidOperand, a.Target.Span, "cannot assign to %s expression", a.Target.Kind)
		return
	}
	fe.consumeArg(a.Value, v, target.typ)
	fe.fn.Store(fe.coerce(v, target.typ, st.Span), target.addr)
}

func (fe *funcEmitter) ret(st *ast.Stmt, cx exprCtx) {
	if fe.inferRet && st.Expr != nil {
		fe.inferredRet(st, cx)
		return
	}
	if st.Expr == nil || cx.FnRet.IsUnit() || fe.fn.Ret.IsVoid() {
		if st.Expr != nil {
			fe.expr(st.Expr, cx.free())
		}
		fe.fn.Return(ir.Value{})
		return
	}
	v := fe.expr(st.Expr, cx.expect(cx.FnRet))
	fe.consumeArg(st.Expr, v, cx.FnRet)
	fe.fn.Return(fe.coerce(v, cx.FnRet, st.Span))
}

// inferredRet lowers `return e` in a closure whose return type is taken
// from its body. Later returns are coerced to the first valued one.
func (fe *funcEmitter) inferredRet(st *ast.Stmt, cx exprCtx) {
	v := fe.expr(st.Expr, cx.expect(fe.retType))
	if !v.val.Valid() || v.typ.IsUnit() {
		fe.fn.Return(ir.Value{})
		return
	}
	if fe.retType == nil {
		fe.retType = v.typ
		fe.fn.Ret = v.val.Ty
	}
	fe.consumeArg(st.Expr, v, fe.retType)
	fe.fn.Return(fe.coerce(v, fe.retType, st.Span))
}

// ifExpr lowers a conditional. Both arms yielding a value merge with a phi;
// arms that return are left out of the merge.
func (fe *funcEmitter) ifExpr(x *ast.Expr, cx exprCtx) operand {
	in := x.If
	cond := fe.coerce(fe.expr(in.Cond, cx.expect(types.Bool)), types.Bool, in.Cond.Span)
	thenL := fe.fn.NewLabel("if.then")
	elseL := fe.fn.NewLabel("if.else")
	endL := fe.fn.NewLabel("if.end")
	if in.Else == nil {
		fe.fn.CondBr(cond, thenL, endL)
		fe.fn.Label(thenL)
		fe.expr(in.Then, cx.free())
		if !fe.fn.Terminated() {
			fe.fn.Br(endL)
		}
		fe.fn.Label(endL)
		return operand{}
	}
	fe.fn.CondBr(cond, thenL, elseL)

	fe.fn.Label(thenL)
	tv := fe.expr(in.Then, cx)
	want := cx.Expected
	if want == nil {
		want = tv.typ
	}
	var edges []ir.Incoming
	preds := 0
	if !fe.fn.Terminated() {
		preds++
		if tv.val.Valid() && !want.IsUnit() {
			edges = append(edges, ir.Incoming{V: fe.coerce(tv, want, in.Then.Span), Block: fe.fn.Block()})
		}
		fe.fn.Br(endL)
	}

	fe.fn.Label(elseL)
	ev := fe.expr(in.Else, cx.expect(want))
	if want == nil {
		want = ev.typ
	}
	if !fe.fn.Terminated() {
		preds++
		if ev.val.Valid() && !want.IsUnit() {
			edges = append(edges, ir.Incoming{V: fe.coerce(ev, want, in.Else.Span), Block: fe.fn.Block()})
		}
		fe.fn.Br(endL)
	}

	fe.fn.Label(endL)
	if preds == 0 {
		fe.fn.Unreachable()
		return operand{}
	}
	switch {
	case len(edges) != preds:
		return operand{}
	case len(edges) == 1:
		return operand{val: edges[0].V, typ: want}
	default:
		return operand{val: fe.fn.Phi(edges[0].V.Ty, edges...), typ: want}
	}
}
