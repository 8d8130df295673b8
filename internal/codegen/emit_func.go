package codegen

import (
	"fmt"

	"vesper/internal/decl"
	"vesper/internal/diag"
	"vesper/internal/ir"
	"vesper/internal/mangle"
	"vesper/internal/mono"
	"vesper/internal/source"
	"vesper/internal/trace"
	"vesper/internal/types"
)

// funcEmitter lowers one function body. Closures get their own emitter.
type funcEmitter struct {
	s      *Session
	fn     *ir.Func
	locals *locals
	span   *trace.Span

	// inferRet is set for closures with neither a written nor an expected
	// return type. The first return statement with a value fixes retType.
	inferRet bool
	retType  *types.Type
}

func (s *Session) newFuncEmitter(name string, ret ir.Type, params []ir.Param) *funcEmitter {
	return &funcEmitter{
		s:      s,
		fn:     ir.NewFunc(name, ret, params),
		locals: newLocals(),
		span:   trace.Begin(s.tracer, trace.ScopeFunction, name, s.span.ID()),
	}
}

// funcSymbol names a non-generic free function.
func (s *Session) funcSymbol(fd *decl.FuncDecl, origin decl.Origin) string {
	if fd.Extern || fd.Body == nil {
		return fd.LinkName()
	}
	if origin.Library == "" && fd.Name == "main" {
		return "main"
	}
	prefix := ""
	switch {
	case origin.Library != "":
		prefix = mangle.Ident(origin.Library)
	case fd.Private:
		prefix = s.opts.ModulePrefix
	}
	return mangle.Func(s.opts.UnitPrefix, prefix, fd.Name, nil).String()
}

// funcRef returns the callable symbol of fd, declaring or queueing whatever
// the reference needs.
func (s *Session) funcRef(fd *decl.FuncDecl, origin decl.Origin, subs types.Subst, site mono.UseSite) string {
	switch {
	case fd.Extern || fd.Body == nil:
		return s.declareExtern(fd, subs)
	case fd.IsGeneric():
		return s.sched.RequestFunc(fd.Name, subs.Args(fd.Generics), subs, origin.Library, site)
	case origin.Library != "":
		return s.sched.RequestFunc(fd.Name, nil, nil, origin.Library, site)
	default:
		return s.funcSymbol(fd, origin)
	}
}

// declareExtern emits a declaration for a function whose body lives
// elsewhere and returns its link name.
func (s *Session) declareExtern(fd *decl.FuncDecl, subs types.Subst) string {
	name := fd.LinkName()
	if s.mod.HasFunc(name) {
		return name
	}
	params := make([]ir.Type, len(fd.Params))
	for i, p := range fd.Params {
		params[i] = s.lowerType(subs.Apply(p.Type), fd.Span)
	}
	s.mod.Declare(name, s.lowerType(subs.Apply(fd.Ret), fd.Span), params...)
	return name
}

// emitFunction lowers fd under subs as symbol. implType and m are set for
// impl methods and class statics.
func (s *Session) emitFunction(symbol string, fd *decl.FuncDecl, subs types.Subst, implType *types.Type, m *decl.MethodDecl) {
	if s.mod.HasFunc(symbol) || fd.Body == nil {
		return
	}
	cx := exprCtx{Subs: subs, Impl: implType}
	ret := cx.resolve(fd.Ret)
	cx.FnRet = ret

	var (
		params []ir.Param
		names  []string
		tys    []*types.Type
	)
	if m != nil && m.Self != decl.SelfNone && implType != nil {
		selfT := m.SelfType(implType)
		params = append(params, ir.Param{Name: "p.self", Ty: s.lowerType(selfT, fd.Span)})
		names = append(names, "self")
		tys = append(tys, selfT)
	}
	for _, p := range fd.Params {
		t := cx.resolve(p.Type)
		params = append(params, ir.Param{Name: "p." + p.Name, Ty: s.lowerType(t, fd.Span)})
		names = append(names, p.Name)
		tys = append(tys, t)
	}

	fe := s.newFuncEmitter(symbol, s.lowerType(ret, fd.Span), params)
	defer func() { fe.span.End(subs.Key()) }()
	for i, name := range names {
		fe.bindParam(name, i, tys[i])
	}
	body := fe.expr(fd.Body, cx.expect(ret))
	fe.finish(body, ret, fd.Span)
	s.mod.AddFunc(fe.fn)
}

// bindParam spills parameter i into a stack slot so it is addressable.
func (fe *funcEmitter) bindParam(name string, i int, t *types.Type) {
	v := fe.fn.Param(i)
	slot := fe.fn.Alloca(v.Ty)
	fe.fn.Store(v, slot)
	fe.locals.bind(name, &Binding{
		Slot:        slot,
		LL:          v.Ty,
		Type:        t,
		Addressable: true,
		Owned:       !fe.s.reg.IsCopy(t),
		Mutable:     true,
	})
}

// finish returns the body value unless the body already returned.
func (fe *funcEmitter) finish(body operand, ret *types.Type, sp source.Span) {
	if fe.fn.Terminated() {
		return
	}
	if ret.IsUnit() || fe.fn.Ret.IsVoid() {
		fe.fn.Return(ir.Value{})
		return
	}
	if !body.val.Valid() {
		fe.s.errorf(diag.CodegenTypeMismatch, sp, "function %s must return %s", fe.fn.Name, ret)
		fe.fn.Return(ir.Zero(fe.fn.Ret))
		return
	}
	fe.fn.Return(fe.coerce(body, ret, sp))
}

// placeholder stands in for the value of an expression that failed to lower.
func placeholder() operand {
	return operand{val: ir.ConstInt(ir.I32, 0), typ: types.I32}
}

func (fe *funcEmitter) lowerType(t *types.Type, sp source.Span) ir.Type {
	return fe.s.lowerType(t, sp)
}

// spill stores v into a fresh stack slot and returns the slot.
func (fe *funcEmitter) spill(v ir.Value) ir.Value {
	slot := fe.fn.Alloca(v.Ty)
	fe.fn.Store(v, slot)
	return slot
}

// address returns storage holding the value of op, spilling when needed.
func (fe *funcEmitter) address(op operand) ir.Value {
	if op.addressable() {
		return op.addr
	}
	if !op.val.Valid() {
		return fe.spill(ir.Zero(ir.Struct()))
	}
	return fe.spill(op.val)
}

// deadBlock opens a fresh block after a terminator so lowering can go on.
func (fe *funcEmitter) deadBlock() {
	if fe.fn.Terminated() {
		fe.fn.Label(fe.fn.NewLabel("dead"))
	}
}

func (fe *funcEmitter) useSite(sp source.Span) mono.UseSite {
	return mono.UseSite{Span: sp, Caller: fe.fn.Name}
}

func (fe *funcEmitter) note(format string, args ...any) {
	fe.fn.Comment(fmt.Sprintf(format, args...))
}
