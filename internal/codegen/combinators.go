package codegen

import (
	"vesper/internal/ast"
	"vesper/internal/decl"
	"vesper/internal/diag"
	"vesper/internal/ir"
	"vesper/internal/types"
)

// combinatorKind enumerates the built-in Option/Result methods.
type combinatorKind uint8

const (
	combIsTag combinatorKind = iota
	combUnwrap
	combUnwrapOr
	combMap
)

// combinatorDef is one built-in method: its kind, argument count and the
// variant it is about (the tested tag for is_*, the success variant otherwise).
type combinatorDef struct {
	kind    combinatorKind
	args    int
	variant int
}

var combinators = map[string]map[string]combinatorDef{
	decl.OptionName: {
		"is_some":   {combIsTag, 0, 1},
		"is_none":   {combIsTag, 0, 0},
		"unwrap":    {combUnwrap, 0, 1},
		"unwrap_or": {combUnwrapOr, 1, 1},
		"map":       {combMap, 1, 1},
	},
	decl.ResultName: {
		"is_ok":     {combIsTag, 0, 0},
		"is_err":    {combIsTag, 0, 1},
		"unwrap":    {combUnwrap, 0, 0},
		"unwrap_or": {combUnwrapOr, 1, 0},
		"map":       {combMap, 1, 0},
	},
}

func combinatorFor(t *types.Type, method string) (combinatorDef, bool) {
	if t == nil || t.Kind != types.KindNamed {
		return combinatorDef{}, false
	}
	comb, ok := combinators[t.Name][method]
	return comb, ok
}

func (fe *funcEmitter) combinator(recv operand, t *types.Type, x *ast.Expr, cx exprCtx) operand {
	mc := x.Method
	comb, _ := combinatorFor(t, mc.Method)
	if len(mc.Args) != comb.args {
		fe.s.errorf(diag.CodegenArgCount, x.Span, "%s.%s takes %d arguments, got %d", t.Name, mc.Method, comb.args, len(mc.Args))
		return placeholder()
	}
	addr, _ := fe.placeOf(recv)
	tag := fe.enumTag(addr, t, x.Span)
	hit := fe.fn.ICmp("eq", tag, ir.ConstInt(ir.I32, int64(comb.variant)))
	if comb.kind == combIsTag {
		return operand{val: hit, typ: types.Bool}
	}
	good := comb.variant
	if variants, ok := fe.s.reg.EnumVariants(t); !ok || len(variants) != 2 || len(variants[good]) != 1 {
		fe.s.errorf(diag.CodegenUnknownMethod, x.Span, "%s does not have the shape of the prelude %s", t, t.Name)
		return placeholder()
	}

	switch comb.kind {
	case combUnwrap:
		okL := fe.fn.NewLabel("unwrap.ok")
		failL := fe.fn.NewLabel("unwrap.fail")
		fe.fn.CondBr(hit, okL, failL)
		fe.fn.Label(failL)
		fe.abort("called unwrap on " + t.String())
		fe.fn.Label(okL)
		return fe.variantField(addr, t, good, 0, x.Span)

	case combUnwrapOr:
		payload := fe.variantField(addr, t, good, 0, x.Span)
		def := fe.expr(mc.Args[0], cx.expect(payload.typ))
		dv := fe.coerce(def, payload.typ, mc.Args[0].Span)
		if !payload.val.Valid() {
			return operand{typ: payload.typ}
		}
		return operand{val: fe.fn.Select(hit, payload.val, dv), typ: payload.typ}

	default:
		return fe.mapCombinator(addr, t, good, hit, x, cx)
	}
}

// mapCombinator applies a function to the success payload and rebuilds the
// enum around its result; the other variant is carried over.
func (fe *funcEmitter) mapCombinator(addr ir.Value, t *types.Type, good int, hit ir.Value, x *ast.Expr, cx exprCtx) operand {
	mc := x.Method
	variants, _ := fe.s.reg.EnumVariants(t)
	payloadT := variants[good][0]
	f := fe.expr(mc.Args[0], cx.expect(types.FuncOf([]*types.Type{payloadT}, nil)))
	if f.typ == nil || f.typ.Kind != types.KindFunction || len(f.typ.Args) != 1 {
		fe.s.errorf(diag.CodegenNotCallable, mc.Args[0].Span, "map needs a one-argument function, got %s", f.typ)
		return placeholder()
	}
	mapped := f.typ.Ret
	if mapped == nil {
		mapped = types.Unit
	}
	if !payloadIsFirstGeneric(fe.s.reg, t, good) {
		fe.s.errorf(diag.CodegenUnknownMethod, x.Span, "%s.map needs the payload to be its first type parameter", t)
		return placeholder()
	}
	args := append([]*types.Type(nil), t.Args...)
	args[0] = mapped
	outT := types.Named(t.Name, args...)
	outLL := fe.lowerType(outT, x.Span)

	okL := fe.fn.NewLabel("map.ok")
	otherL := fe.fn.NewLabel("map.other")
	endL := fe.fn.NewLabel("map.end")
	fe.fn.CondBr(hit, okL, otherL)

	fe.fn.Label(okL)
	pv := fe.variantField(addr, t, good, 0, x.Span)
	var in []ir.Value
	if pv.val.Valid() {
		in = append(in, fe.coerce(pv, f.typ.Args[0], x.Span))
	}
	r := fe.invoke(f, in, x.Span)
	okV := fe.constructVariant(outT, good, []operand{r}, x.Span)
	okEnd := fe.fn.Block()
	fe.fn.Br(endL)

	fe.fn.Label(otherL)
	other := 1 - good
	var carried []operand
	if fields := variants[other]; len(fields) > 0 {
		carried = append(carried, fe.variantField(addr, t, other, 0, x.Span))
	}
	otherV := fe.constructVariant(outT, other, carried, x.Span)
	otherEnd := fe.fn.Block()
	fe.fn.Br(endL)

	fe.fn.Label(endL)
	v := fe.fn.Phi(outLL, ir.Incoming{V: okV.val, Block: okEnd}, ir.Incoming{V: otherV.val, Block: otherEnd})
	return operand{val: v, typ: outT}
}

// payloadIsFirstGeneric reports whether the single field of variant good of
// t's enum is the enum's first type parameter, so map can replace t.Args[0].
func payloadIsFirstGeneric(reg *decl.Registry, t *types.Type, good int) bool {
	ed, _, ok := reg.Enum(t.Name)
	if !ok || len(ed.Generics) == 0 || len(t.Args) != len(ed.Generics) || good >= len(ed.Variants) {
		return false
	}
	fields := ed.Variants[good].Fields
	if len(fields) != 1 {
		return false
	}
	p := fields[0]
	return p != nil && p.Kind == types.KindNamed && p.Name == ed.Generics[0] && len(p.Args) == 0
}
