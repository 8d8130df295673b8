package codegen

import (
	"vesper/internal/ast"
	"vesper/internal/decl"
	"vesper/internal/diag"
	"vesper/internal/ir"
	"vesper/internal/source"
	"vesper/internal/types"
)

// call lowers `target(args)`: a local closure value, a named function or any
// other expression of function type.
func (fe *funcEmitter) call(x *ast.Expr, cx exprCtx) operand {
	c := x.Call
	if c.Target.Kind == ast.ExprIdent {
		name := c.Target.Ident.Name
		if _, local := fe.locals.lookup(name); !local && !fe.locals.hidden(name) {
			if fd, origin, ok := fe.s.reg.Func(name); ok {
				return fe.directCall(fd, origin, c.TypeArgs, c.Args, x, cx)
			}
		}
	}
	if c.Target.Kind == ast.ExprStaticCall || c.Target.Kind == ast.ExprPath {
		if fd, origin, ok := fe.moduleFunc(c.Target.Static.Receiver, c.Target.Static.Member); ok {
			return fe.directCall(fd, origin, c.TypeArgs, c.Args, x, cx)
		}
	}
	callee := fe.expr(c.Target, cx.free())
	if callee.typ == nil || callee.typ.Kind != types.KindFunction {
		if callee.typ != nil {
			fe.s.errorf(diag.CodegenNotCallable, x.Span, "value of type %s is not callable", callee.typ)
		}
		return placeholder()
	}
	return fe.callValue(callee, c.Args, x.Span, cx)
}

func (fe *funcEmitter) moduleFunc(path, name string) (*decl.FuncDecl, decl.Origin, bool) {
	fd, ok := fe.s.reg.ModuleFunc(path, name)
	return fd, decl.Origin{Library: path}, ok
}

// directCall calls a declared free function, instantiating it when generic.
func (fe *funcEmitter) directCall(fd *decl.FuncDecl, origin decl.Origin, explicit []*types.Type, args []*ast.Expr, x *ast.Expr, cx exprCtx) operand {
	if len(args) != len(fd.Params) {
		fe.s.errorf(diag.CodegenArgCount, x.Span, "%s takes %d arguments, got %d", fd.Name, len(fd.Params), len(args))
		return placeholder()
	}
	params := fd.ParamTypes()
	subs, ops := fe.infer(inference{generics: fd.Generics, explicit: explicit, params: params, ret: fd.Ret}, args, cx, x.Span)
	for i := range params {
		params[i] = subs.Apply(params[i])
	}
	ret := subs.Apply(fd.Ret)
	sym := fe.s.funcRef(fd, origin, subs, fe.useSite(x.Span))
	vals := fe.passArgs(ops, params, args)
	v := fe.fn.Call(fe.lowerType(ret, x.Span), "@"+sym, vals)
	return operand{val: v, typ: ret}
}

// passArgs coerces lowered arguments to the callee parameters and marks
// owned values moved into by-value parameters.
func (fe *funcEmitter) passArgs(ops []operand, params []*types.Type, args []*ast.Expr) []ir.Value {
	vals := make([]ir.Value, 0, len(ops))
	for i, op := range ops {
		var p *types.Type
		if i < len(params) {
			p = params[i]
		}
		sp := el(args, i)
		if p.IsUnit() && !op.val.Valid() {
			continue
		}
		vals = append(vals, fe.coerce(op, p, sp))
		if i < len(args) {
			fe.consumeArg(args[i], op, p)
		}
	}
	return vals
}

// funcValue turns a named function into a first-class value: a thin code
// address when a bare function reference is expected, otherwise (fn, null).
func (fe *funcEmitter) funcValue(fd *decl.FuncDecl, origin decl.Origin, cx exprCtx, x *ast.Expr) operand {
	sym := fe.s.funcRef(fd, origin, nil, fe.useSite(x.Span))
	code := ir.Global(sym)
	params := fd.ParamTypes()
	if cx.Expected != nil && cx.Expected.Kind == types.KindFunction && cx.Expected.Thin {
		return operand{val: code, typ: types.ThinFuncOf(params, fd.Ret)}
	}
	fat := fe.fn.InsertValue(ir.Undef(ir.Closure), code, 0)
	fat = fe.fn.InsertValue(fat, ir.Null(), 1)
	return operand{val: fat, typ: types.FuncOf(params, fd.Ret), nullEnv: true}
}

// callValue invokes a function value. Thin references are called directly;
// fat pointers pass the environment first unless it is null.
func (fe *funcEmitter) callValue(callee operand, args []*ast.Expr, sp source.Span, cx exprCtx) operand {
	ft := callee.typ
	if len(args) != len(ft.Args) {
		fe.s.errorf(diag.CodegenArgCount, sp, "function value takes %d arguments, got %d", len(ft.Args), len(args))
		return placeholder()
	}
	ops := make([]operand, len(args))
	for i, a := range args {
		ops[i] = fe.expr(a, cx.expect(ft.Args[i]))
	}
	vals := fe.passArgs(ops, ft.Args, args)
	return fe.invoke(callee, vals, sp)
}

// invoke calls a function value with already coerced arguments.
func (fe *funcEmitter) invoke(callee operand, vals []ir.Value, sp source.Span) operand {
	ft := callee.typ
	retLL := fe.lowerType(ft.Ret, sp)
	if ft.Thin || callee.val.Ty.IsPtr() {
		return operand{val: fe.fn.Call(retLL, callee.val.Ref, vals), typ: ft.Ret}
	}
	code := fe.fn.ExtractValue(callee.val, 0, ir.Ptr)
	env := fe.fn.ExtractValue(callee.val, 1, ir.Ptr)
	isNull := fe.fn.ICmp("eq", env, ir.Null())
	withEnv := fe.fn.NewLabel("call.env")
	noEnv := fe.fn.NewLabel("call.noenv")
	join := fe.fn.NewLabel("call.join")
	fe.fn.CondBr(isNull, noEnv, withEnv)

	fe.fn.Label(withEnv)
	r1 := fe.fn.Call(retLL, code.Ref, append([]ir.Value{env}, vals...))
	fe.fn.Br(join)

	fe.fn.Label(noEnv)
	r2 := fe.fn.Call(retLL, code.Ref, vals)
	fe.fn.Br(join)

	fe.fn.Label(join)
	if retLL.IsVoid() {
		return operand{}
	}
	v := fe.fn.Phi(retLL, ir.Incoming{V: r1, Block: withEnv}, ir.Incoming{V: r2, Block: noEnv})
	return operand{val: v, typ: ft.Ret}
}
