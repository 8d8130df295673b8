package codegen

import (
	"strconv"

	"vesper/internal/ast"
	"vesper/internal/ir"
	"vesper/internal/layout"
	"vesper/internal/types"
)

// closure lowers a closure literal to a generated function and a two-word
// (code, env) value. Capturing closures take the environment as their first
// parameter and see each capture through a pointer to the original storage;
// non-capturing ones have exactly the written parameters and a null env.
func (fe *funcEmitter) closure(x *ast.Expr, cx exprCtx) operand {
	c := x.Closure
	var hint *types.Type
	if cx.Expected != nil && cx.Expected.Kind == types.KindFunction {
		hint = cx.Expected
	}

	paramTypes := make([]*types.Type, len(c.Params))
	paramNames := make([]string, len(c.Params))
	for i, p := range c.Params {
		paramNames[i] = p.Name
		switch {
		case p.Type != nil:
			paramTypes[i] = cx.resolve(p.Type)
		case hint != nil && i < len(hint.Args) && hint.Args[i] != nil:
			paramTypes[i] = hint.Args[i]
		default:
			paramTypes[i] = types.I32
		}
	}
	ret := cx.resolve(c.Ret)
	if ret == nil && hint != nil {
		ret = hint.Ret
	}

	captures := fe.captureList(c, paramNames)
	env := layout.ClosureEnv(captures)
	fe.s.closures++
	name := fe.fn.Name + ".closure." + strconv.Itoa(fe.s.closures)

	var params []ir.Param
	if !env.Empty() {
		params = append(params, ir.Param{Name: "env", Ty: ir.Ptr})
	}
	for i, p := range c.Params {
		params = append(params, ir.Param{Name: "p." + p.Name, Ty: fe.lowerType(paramTypes[i], x.Span)})
	}
	retLL := ir.I32
	if ret != nil {
		retLL = fe.lowerType(ret, x.Span)
	}

	child := fe.s.newFuncEmitter(name, retLL, params)
	child.inferRet = ret == nil && hint == nil
	offset := 0
	if !env.Empty() {
		offset = 1
		envTy := env.IRType()
		for i, capName := range env.Names {
			outer, _ := fe.locals.lookup(capName)
			ptr := child.fn.Load(ir.Ptr, child.fn.FieldPtr(envTy, child.fn.Param(0), i))
			child.locals.bind(capName, &Binding{
				Slot:        ptr,
				LL:          outer.LL,
				Type:        outer.Type,
				Addressable: true,
				Mutable:     outer.Mutable,
			})
		}
	}
	for i, p := range c.Params {
		child.bindParam(p.Name, i+offset, paramTypes[i])
	}

	inner := exprCtx{Subs: cx.Subs, Impl: cx.Impl, FnRet: ret}
	body := child.expr(c.Body, inner.expect(ret))
	// The return type is settled only now: a body without a value makes the
	// closure void whatever was guessed before.
	switch {
	case ret != nil:
	case child.retType != nil:
		ret = child.retType
		child.fn.Ret = fe.lowerType(ret, x.Span)
	case body.val.Valid():
		ret = body.typ
		child.fn.Ret = body.val.Ty
	default:
		child.fn.Ret = ir.Void
	}
	if !body.val.Valid() && !child.fn.Terminated() && ret != nil && !ret.IsUnit() && c.Ret == nil && child.retType == nil {
		ret = nil
		child.fn.Ret = ir.Void
	}
	child.finish(body, ret, x.Span)
	child.span.End(strconv.Itoa(len(captures)) + " captures")
	fe.s.mod.AddFunc(child.fn)

	envPtr := ir.Null()
	if !env.Empty() {
		envPtr = fe.allocEnv(env)
	}
	fat := fe.fn.InsertValue(ir.Undef(ir.Closure), ir.Global(name), 0)
	fat = fe.fn.InsertValue(fat, envPtr, 1)
	return operand{val: fat, typ: types.FuncOf(paramTypes, ret), nullEnv: env.Empty()}
}

// captureList prefers the checker's captures and falls back to a free
// variable scan; only names bound in the enclosing function qualify.
func (fe *funcEmitter) captureList(c *ast.ExprClosureData, params []string) []string {
	names := c.Captures
	if len(names) == 0 {
		names = freeVars(c.Body, params)
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if b, ok := fe.locals.lookup(n); ok && b.LL.Kind() != ir.KindVoid {
			out = append(out, n)
		}
	}
	return out
}

// allocEnv allocates one environment per evaluation of the closure
// expression and stores the address of each captured binding in it.
// Register bindings are immutable, so the closure gets a private copy and
// the enclosing function keeps reading the SSA value.
func (fe *funcEmitter) allocEnv(env layout.EnvLayout) ir.Value {
	size := env.Size(fe.s.opts.Target)
	fe.s.mod.Declare("malloc", ir.Ptr, ir.I64)
	mem := fe.fn.Call(ir.Ptr, "@malloc", []ir.Value{ir.ConstInt(ir.I64, int64(size))})
	envTy := env.IRType()
	for i, name := range env.Names {
		b, _ := fe.locals.lookup(name)
		slot := b.Slot
		if !b.Addressable {
			slot = fe.spill(b.Slot)
		}
		fe.fn.Store(slot, fe.fn.FieldPtr(envTy, mem, i))
	}
	return mem
}
