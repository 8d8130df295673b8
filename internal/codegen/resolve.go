package codegen

import (
	"vesper/internal/ast"
	"vesper/internal/decl"
	"vesper/internal/diag"
	"vesper/internal/source"
	"vesper/internal/types"
)

// inference describes one generic signature being matched at a call site.
type inference struct {
	generics []string
	explicit []*types.Type
	params   []*types.Type
	ret      *types.Type
}

// infer derives a substitution for in.generics and lowers every argument
// exactly once. Sources in priority order: explicit type arguments, the
// expected type of the call, the argument types, and finally I32 with a
// CG4010 diagnostic.
func (fe *funcEmitter) infer(in inference, args []*ast.Expr, cx exprCtx, sp source.Span) (types.Subst, []operand) {
	out := types.Subst{}
	for i, g := range in.generics {
		if i < len(in.explicit) && in.explicit[i] != nil {
			out[g] = cx.resolve(in.explicit[i])
		}
	}
	if cx.Expected != nil && types.Mentions(in.ret, in.generics) {
		types.Unify(in.ret, cx.Expected, in.generics, out)
	}
	ops := make([]operand, len(args))
	for i, a := range args {
		var hint, pattern *types.Type
		if i < len(in.params) {
			pattern = in.params[i]
			hint = partialHint(pattern, in.generics, out)
		}
		ops[i] = fe.expr(a, cx.expect(hint))
		if pattern != nil && ops[i].typ != nil {
			types.Unify(pattern, ops[i].typ, in.generics, out)
		}
	}
	for _, g := range in.generics {
		if out[g] == nil {
			out[g] = types.I32
			fe.inferenceFallback(g, sp)
		}
	}
	return out, ops
}

func (fe *funcEmitter) inferenceFallback(param string, sp source.Span) {
	if fe.s.opts.StrictInference {
		fe.s.errorf(diag.CodegenInferenceFallback, sp, "cannot infer type argument %s", param)
		return
	}
	fe.s.warnf(diag.CodegenInferenceFallback, sp, "cannot infer type argument %s, assuming I32", param)
}

// partialHint is the expected type of an argument with what is known so far.
// Function types keep their resolved parts so closures can type their
// parameters; other still-generic types give no hint.
func partialHint(t *types.Type, generics []string, out types.Subst) *types.Type {
	h := out.Apply(t)
	if !types.Mentions(h, generics) {
		return h
	}
	if h.Kind != types.KindFunction {
		return nil
	}
	args := make([]*types.Type, len(h.Args))
	for i, a := range h.Args {
		if !types.Mentions(a, generics) {
			args[i] = a
		}
	}
	var ret *types.Type
	if !types.Mentions(h.Ret, generics) {
		ret = h.Ret
	}
	return &types.Type{Kind: types.KindFunction, Thin: h.Thin, Args: args, Ret: ret}
}

// selfPattern is the generic receiver type of an impl: Target<G1, G2...>.
func (s *Session) selfPattern(target string, generics []string) *types.Type {
	args := make([]*types.Type, len(generics))
	for i, g := range generics {
		args[i] = types.Named(g)
	}
	if _, _, ok := s.reg.Class(target); ok {
		return types.Class(target, args...)
	}
	return types.Named(target, args...)
}

// staticCall resolves `Receiver::member(args)` in order: primitive builtin,
// class static, enum variant, impl associated function, module function.
func (fe *funcEmitter) staticCall(x *ast.Expr, cx exprCtx) operand {
	st := x.Static
	reg := fe.s.reg
	if p, ok := types.ParsePrim(st.Receiver); ok && isBuiltin(st.Member) {
		return fe.builtinCall(p, st, x, cx)
	}
	if c, _, ok := reg.Class(st.Receiver); ok {
		if _, ok := c.Static(st.Member); ok {
			im, m, _, _ := reg.ImplMethod(c.Name, st.Member)
			return fe.associatedCall(im, m, st, x, cx)
		}
	}
	if en, _, ok := reg.Enum(st.Receiver); ok {
		if idx, ok := en.VariantIndex(st.Member); ok {
			return fe.variantCall(en, idx, st, x, cx)
		}
	}
	if x.Kind == ast.ExprStaticCall {
		if im, m, _, ok := reg.ImplMethod(st.Receiver, st.Member); ok {
			return fe.associatedCall(im, m, st, x, cx)
		}
	}
	if fd, origin, ok := fe.moduleFunc(st.Receiver, st.Member); ok {
		if x.Kind == ast.ExprPath {
			return fe.funcValue(fd, origin, cx, x)
		}
		return fe.directCall(fd, origin, st.TypeArgs, st.Args, x, cx)
	}
	fe.s.errorf(diag.CodegenUnknownStaticMember, x.Span, "unknown static member %s::%s", st.Receiver, st.Member)
	return placeholder()
}

// associatedCall calls an impl function or class static through its type.
// A method with a receiver takes it as the first argument.
func (fe *funcEmitter) associatedCall(im *decl.ImplDecl, m *decl.MethodDecl, st *ast.ExprStaticData, x *ast.Expr, cx exprCtx) operand {
	fd := m.Func
	self := fe.s.selfPattern(im.Target, im.Generics)
	bindSelf := types.Subst{"Self": self}
	params := fd.ParamTypes()
	for i := range params {
		params[i] = bindSelf.Apply(params[i])
	}
	if m.Self != decl.SelfNone {
		params = append([]*types.Type{m.SelfType(self)}, params...)
	}
	ret := bindSelf.Apply(fd.Ret)
	if len(st.Args) != len(params) {
		fe.s.errorf(diag.CodegenArgCount, x.Span, "%s::%s takes %d arguments, got %d", im.Target, fd.Name, len(params), len(st.Args))
		return placeholder()
	}
	generics := append(append([]string(nil), im.Generics...), fd.Generics...)
	subs, ops := fe.infer(inference{generics: generics, explicit: st.TypeArgs, params: params, ret: ret}, st.Args, cx, x.Span)
	recvT := subs.Apply(self)
	methodArgs := subs.Args(fd.Generics)
	sym, ok := fe.s.sched.RequestImplMethod(recvT, fd.Name, methodArgs, types.NewSubst(fd.Generics, methodArgs), fe.useSite(x.Span))
	if !ok {
		fe.s.errorf(diag.CodegenUnknownStaticMember, x.Span, "unknown static member %s::%s", im.Target, fd.Name)
		return placeholder()
	}
	for i := range params {
		params[i] = subs.Apply(params[i])
	}
	ret = subs.Apply(ret)
	vals := fe.passArgs(ops, params, st.Args)
	return operand{val: fe.fn.Call(fe.lowerType(ret, x.Span), "@"+sym, vals), typ: ret}
}

// variantCall constructs Enum::Variant(args), inferring the enum's type
// arguments like any other generic call.
func (fe *funcEmitter) variantCall(en *decl.EnumDecl, idx int, st *ast.ExprStaticData, x *ast.Expr, cx exprCtx) operand {
	fields := en.Variants[idx].Fields
	if len(st.Args) != len(fields) {
		fe.s.errorf(diag.CodegenArgCount, x.Span, "%s::%s takes %d values, got %d", en.Name, en.Variants[idx].Name, len(fields), len(st.Args))
		return placeholder()
	}
	self := fe.s.selfPattern(en.Name, en.Generics)
	subs, ops := fe.infer(inference{generics: en.Generics, explicit: st.TypeArgs, params: fields, ret: self}, st.Args, cx, x.Span)
	t := subs.Apply(self)
	vals := make([]operand, len(ops))
	for i, op := range ops {
		ft := subs.Apply(fields[i])
		vals[i] = operand{val: fe.coerce(op, ft, el(st.Args, i)), typ: ft}
		fe.consumeArg(st.Args[i], op, ft)
	}
	return fe.constructVariant(t, idx, vals, x.Span)
}
