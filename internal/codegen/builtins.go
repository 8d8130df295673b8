package codegen

import (
	"math"

	"vesper/internal/ast"
	"vesper/internal/decl"
	"vesper/internal/diag"
	"vesper/internal/ir"
	"vesper/internal/mangle"
	"vesper/internal/mono"
	"vesper/internal/source"
	"vesper/internal/types"
)

// Primitive constructors and converters callable as `Prim::name(...)`.
const (
	builtinFrom     = "from"
	builtinTryFrom  = "try_from"
	builtinZero     = "zero"
	builtinOne      = "one"
	builtinMinValue = "min_value"
	builtinMaxValue = "max_value"
	builtinDefault  = "default"
)

func isBuiltin(name string) bool {
	switch name {
	case builtinFrom, builtinTryFrom, builtinZero, builtinOne, builtinMinValue, builtinMaxValue, builtinDefault:
		return true
	}
	return false
}

// isScalar reports primitives that have numeric builtins.
func isScalar(p types.Prim) bool {
	return p.IsNumeric() || p == types.PrimBool || p == types.PrimChar
}

// builtinCall dispatches to a synthesised primitive behaviour. Converters
// are suffixed with the source primitive so that each overload gets its own
// symbol (I32_try_from_I64 vs I32_try_from_Bool).
func (fe *funcEmitter) builtinCall(p types.Prim, st *ast.ExprStaticData, x *ast.Expr, cx exprCtx) operand {
	target := types.Primitive(p)
	if !isScalar(p) {
		fe.s.errorf(diag.CodegenUnknownStaticMember, x.Span, "%s has no builtin %s", target, st.Member)
		return placeholder()
	}
	switch st.Member {
	case builtinFrom, builtinTryFrom:
		if len(st.Args) != 1 {
			fe.s.errorf(diag.CodegenArgCount, x.Span, "%s::%s takes 1 argument, got %d", target, st.Member, len(st.Args))
			return placeholder()
		}
		src := fe.expr(st.Args[0], cx.free())
		if src.typ == nil || src.typ.Kind != types.KindPrimitive || !isScalar(src.typ.Prim) {
			fe.s.errorf(diag.CodegenInvalidOperand, st.Args[0].Span, "cannot convert %s to %s", src.typ, target)
			return placeholder()
		}
		ret := target
		if st.Member == builtinTryFrom {
			ret = decl.OptionOf(target)
		}
		sym := fe.s.ensureBuiltin(st.Member, target, src.typ, x.Span)
		v := fe.fn.Call(fe.lowerType(ret, x.Span), "@"+sym, []ir.Value{src.val})
		return operand{val: v, typ: ret}
	default:
		if len(st.Args) != 0 {
			fe.s.errorf(diag.CodegenArgCount, x.Span, "%s::%s takes no arguments, got %d", target, st.Member, len(st.Args))
			return placeholder()
		}
		sym := fe.s.ensureBuiltin(st.Member, target, nil, x.Span)
		return operand{val: fe.fn.Call(primType(p), "@"+sym, nil), typ: target}
	}
}

// builtinSymbol names a behaviour, with the unit prefix when set.
func (s *Session) builtinSymbol(behaviour string, target, src *types.Type) string {
	sym := mangle.Builtin(target.Prim, behaviour, src)
	if s.opts.UnitPrefix != "" {
		sym = s.opts.UnitPrefix + "_" + sym
	}
	return sym
}

// ensureBuiltin emits the body of a primitive behaviour once and returns its
// symbol.
func (s *Session) ensureBuiltin(behaviour string, target, src *types.Type, sp source.Span) string {
	sym := s.builtinSymbol(behaviour, target, src)
	if s.sched.Generated(mono.InstFn, sym) {
		return sym
	}
	s.sched.MarkGenerated(mono.InstFn, sym)

	ret := target
	if behaviour == builtinTryFrom {
		ret = decl.OptionOf(target)
	}
	var params []ir.Param
	if src != nil {
		params = []ir.Param{{Name: "v", Ty: primType(src.Prim)}}
	}
	fe := s.newFuncEmitter(sym, s.lowerType(ret, sp), params)
	defer func() { fe.span.End(behaviour) }()
	ll := primType(target.Prim)

	switch behaviour {
	case builtinZero, builtinDefault:
		fe.fn.Return(ir.Zero(ll))
	case builtinOne:
		if target.IsFloat() {
			fe.fn.Return(ir.ConstFloat(ll, 1))
		} else {
			fe.fn.Return(ir.ConstInt(ll, 1))
		}
	case builtinMinValue:
		fe.fn.Return(limit(target.Prim, false))
	case builtinMaxValue:
		fe.fn.Return(limit(target.Prim, true))
	case builtinFrom:
		fe.fn.Return(fe.convertPrim(fe.fn.Param(0), src, target))
	case builtinTryFrom:
		fe.tryFrom(fe.fn.Param(0), src, target, ret, sp)
	}
	s.mod.AddFunc(fe.fn)
	return sym
}

// convertPrim converts between scalar primitives; Bool targets test for
// non-zero.
func (fe *funcEmitter) convertPrim(v ir.Value, from, to *types.Type) ir.Value {
	want := primType(to.Prim)
	if to.Prim == types.PrimBool && !from.IsPrim(types.PrimBool) {
		if v.Ty.IsFloat() {
			return fe.fn.FCmp("one", v, ir.ConstFloat(v.Ty, 0))
		}
		return fe.fn.ICmp("ne", v, ir.ConstInt(v.Ty, 0))
	}
	return fe.convertScalar(v, from, to, want)
}

// tryFrom returns Some(converted) when v survives the round trip through
// the target type with its sign intact, None otherwise.
func (fe *funcEmitter) tryFrom(v ir.Value, from, to, ret *types.Type, sp source.Span) {
	someL := fe.fn.NewLabel("try.some")
	noneL := fe.fn.NewLabel("try.none")
	var conv ir.Value
	switch {
	case from.IsFloat() && to.IsInteger():
		// fptosi and fptoui are only defined inside the target range; NaN
		// fails both ordered comparisons.
		lo, hi := floatBounds(to.Prim, v.Ty)
		inRange := fe.fn.Bin("and", fe.fn.FCmp("oge", v, lo), fe.fn.FCmp("olt", v, hi))
		convL := fe.fn.NewLabel("try.conv")
		fe.fn.CondBr(inRange, convL, noneL)
		fe.fn.Label(convL)
		conv = fe.convertPrim(v, from, to)
		back := fe.convertScalar(conv, to, from, v.Ty)
		fe.fn.CondBr(fe.fn.FCmp("oeq", back, v), someL, noneL)
	case from.IsInteger() && to.IsInteger():
		conv = fe.convertPrim(v, from, to)
		back := fe.convertScalar(conv, to, from, v.Ty)
		ok := fe.fn.ICmp("eq", back, v)
		if from.Prim.IsSigned() && !to.Prim.IsSigned() {
			ok = fe.fn.Bin("and", ok, fe.fn.ICmp("sge", v, ir.ConstInt(v.Ty, 0)))
		}
		if !from.Prim.IsSigned() && to.Prim.IsSigned() {
			ok = fe.fn.Bin("and", ok, fe.fn.ICmp("sge", conv, ir.ConstInt(conv.Ty, 0)))
		}
		fe.fn.CondBr(ok, someL, noneL)
	default:
		conv = fe.convertPrim(v, from, to)
		fe.fn.Br(someL)
	}

	fe.fn.Label(someL)
	some := fe.constructVariant(ret, 1, []operand{{val: conv, typ: to}}, sp)
	fe.fn.Return(some.val)

	fe.fn.Label(noneL)
	none := fe.constructVariant(ret, 0, nil, sp)
	fe.fn.Return(none.val)
}

// floatBounds returns the half-open range [lo, hi) of the integer primitive
// p as constants of the float type ft. Both bounds are powers of two and
// therefore exact.
func floatBounds(p types.Prim, ft ir.Type) (lo, hi ir.Value) {
	bits := p.Bits()
	if p.IsSigned() {
		half := math.Ldexp(1, bits-1)
		return ir.ConstFloat(ft, -half), ir.ConstFloat(ft, half)
	}
	return ir.ConstFloat(ft, 0), ir.ConstFloat(ft, math.Ldexp(1, bits))
}

// limit returns the smallest or largest value of p.
func limit(p types.Prim, upper bool) ir.Value {
	ll := primType(p)
	switch {
	case p == types.PrimBool:
		return ir.ConstInt(ll, boolInt(upper))
	case p == types.PrimChar:
		if upper {
			return ir.ConstInt(ll, 0x10FFFF)
		}
		return ir.ConstInt(ll, 0)
	case p == types.PrimF32:
		if upper {
			return ir.ConstFloat(ll, math.MaxFloat32)
		}
		return ir.ConstFloat(ll, -math.MaxFloat32)
	case p == types.PrimF64:
		if upper {
			return ir.ConstFloat(ll, math.MaxFloat64)
		}
		return ir.ConstFloat(ll, -math.MaxFloat64)
	case p.IsSigned():
		bits := p.Bits()
		if upper {
			return ir.ConstInt(ll, int64(uint64(1)<<(bits-1)-1))
		}
		return ir.ConstInt(ll, -int64(uint64(1)<<(bits-1)))
	default:
		if !upper {
			return ir.ConstInt(ll, 0)
		}
		if p.Bits() == 64 {
			return ir.ConstUint(ll, math.MaxUint64)
		}
		return ir.ConstUint(ll, uint64(1)<<p.Bits()-1)
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
