package codegen

import (
	"vesper/internal/ast"
	"vesper/internal/decl"
	"vesper/internal/diag"
	"vesper/internal/ir"
	"vesper/internal/types"
)

// methodCall resolves `recv.method(args)`. Impl methods on the static type
// come first, then Option/Result combinators, then function-valued fields;
// wrapper shapes are followed only when none of those match.
func (fe *funcEmitter) methodCall(x *ast.Expr, cx exprCtx) operand {
	mc := x.Method
	cur := fe.expr(mc.Receiver, cx.free())
	for range maxDerefDepth {
		base := types.StripRefs(cur.typ)
		if base == nil {
			break
		}
		if base.Kind == types.KindNamed || base.Kind == types.KindClass {
			if im, m, _, ok := fe.s.reg.ImplMethod(base.Name, mc.Method); ok && m.Self != decl.SelfNone {
				return fe.implMethodCall(cur, base, im, m, x, cx)
			}
			if _, ok := combinatorFor(base, mc.Method); ok {
				return fe.combinator(cur, base, x, cx)
			}
			if _, ft, _, ok := fe.directField(base, mc.Method, x.Span); ok && ft.Kind == types.KindFunction {
				f := fe.field(cur, mc.Method, x.Span)
				return fe.callValue(f, mc.Args, x.Span, cx)
			}
		}
		inner, ok := DerefTarget(base)
		if !ok {
			break
		}
		addr, _ := fe.placeOf(cur)
		p := fe.resolveFieldPath(ShapeOf(base), base, addr, x.Span)
		cur = operand{val: fe.fn.Load(fe.lowerType(inner, x.Span), p), typ: inner, addr: p}
	}
	fe.s.errorf(diag.CodegenUnknownMethod, x.Span, "unknown method %q on %s", mc.Method, cur.typ)
	return placeholder()
}

func (fe *funcEmitter) implMethodCall(recv operand, base *types.Type, im *decl.ImplDecl, m *decl.MethodDecl, x *ast.Expr, cx exprCtx) operand {
	mc := x.Method
	fd := m.Func
	bind := types.NewSubst(im.Generics, base.Args).With(types.Subst{"Self": base})
	params := fd.ParamTypes()
	for i := range params {
		params[i] = bind.Apply(params[i])
	}
	ret := bind.Apply(fd.Ret)
	if len(mc.Args) != len(params) {
		fe.s.errorf(diag.CodegenArgCount, x.Span, "%s.%s takes %d arguments, got %d", base, fd.Name, len(params), len(mc.Args))
		return placeholder()
	}
	recvVal := fe.receiver(recv, base, m.Self, mc.Receiver)
	subs, ops := fe.infer(inference{generics: fd.Generics, explicit: mc.TypeArgs, params: params, ret: ret}, mc.Args, cx, x.Span)
	methodArgs := subs.Args(fd.Generics)
	sym, ok := fe.s.sched.RequestImplMethod(base, fd.Name, methodArgs, subs, fe.useSite(x.Span))
	if !ok {
		fe.s.errorf(diag.CodegenUnknownMethod, x.Span, "unknown method %q on %s", fd.Name, base)
		return placeholder()
	}
	for i := range params {
		params[i] = subs.Apply(params[i])
	}
	ret = subs.Apply(ret)
	vals := append([]ir.Value{recvVal}, fe.passArgs(ops, params, mc.Args)...)
	return operand{val: fe.fn.Call(fe.lowerType(ret, x.Span), "@"+sym, vals), typ: ret}
}

// receiver passes recv the way the method declares self: by value (moving
// owned values) or by address.
func (fe *funcEmitter) receiver(recv operand, base *types.Type, kind decl.SelfKind, expr *ast.Expr) ir.Value {
	if kind == decl.SelfValue {
		if recv.typ != nil && (recv.typ.Kind == types.KindReference || recv.typ.Kind == types.KindPointer) {
			addr, _ := fe.placeOf(recv)
			return fe.fn.Load(fe.lowerType(base, expr.Span), addr)
		}
		fe.consumeArg(expr, recv, base)
		return recv.val
	}
	addr, _ := fe.placeOf(recv)
	return addr
}
