package codegen

import (
	"vesper/internal/ast"
	"vesper/internal/decl"
	"vesper/internal/diag"
	"vesper/internal/ir"
	"vesper/internal/source"
	"vesper/internal/types"
)

// structLit lowers `Name<Args> { field: value, ... }`. Missing type
// arguments are inferred from the expected type and the field values.
// Class literals allocate their record on the heap.
func (fe *funcEmitter) structLit(x *ast.Expr, cx exprCtx) operand {
	sl := x.Struct
	reg := fe.s.reg
	var (
		generics []string
		decls    []decl.FieldDecl
		isClass  bool
	)
	if sd, _, ok := reg.Struct(sl.Name); ok {
		generics, decls = sd.Generics, sd.Fields
	} else if cd, _, ok := reg.Class(sl.Name); ok {
		generics, decls, isClass = cd.Generics, cd.Fields, true
	} else {
		fe.s.errorf(diag.CodegenUnknownStaticMember, x.Span, "unknown struct %s", sl.Name)
		return placeholder()
	}

	// Match literal fields to declaration order; evaluation follows the
	// literal.
	params := make([]*types.Type, len(sl.Fields))
	args := make([]*ast.Expr, len(sl.Fields))
	index := make([]int, len(sl.Fields))
	for i, f := range sl.Fields {
		index[i] = -1
		args[i] = f.Value
		for j, d := range decls {
			if d.Name == f.Name {
				index[i] = j
				params[i] = d.Type
				break
			}
		}
		if index[i] < 0 {
			fe.s.errorf(diag.CodegenUnknownField, f.Value.Span, "%s has no field %q", sl.Name, f.Name)
		}
	}
	self := fe.s.selfPattern(sl.Name, generics)
	subs, ops := fe.infer(inference{generics: generics, explicit: sl.TypeArgs, params: params, ret: self}, args, cx, x.Span)
	t := subs.Apply(self)

	if isClass {
		return fe.classLit(t, ops, index, params, subs, args, x.Span)
	}
	agg := ir.Undef(fe.lowerType(t, x.Span))
	for i, op := range ops {
		if index[i] < 0 {
			continue
		}
		ft := subs.Apply(params[i])
		if ft.IsUnit() {
			continue
		}
		agg = fe.fn.InsertValue(agg, fe.coerce(op, ft, args[i].Span), index[i])
		fe.consumeArg(args[i], op, ft)
	}
	return operand{val: agg, typ: t}
}

func (fe *funcEmitter) classLit(t *types.Type, ops []operand, index []int, params []*types.Type, subs types.Subst, args []*ast.Expr, sp source.Span) operand {
	rec := fe.s.classRecord(t, sp)
	size, err := fe.s.layout.SizeOf(recordTuple(fe, t))
	if err != nil {
		fe.s.errorf(diag.CodegenRecursiveLayout, sp, "%s: %v", t, err)
		return placeholder()
	}
	fe.s.mod.Declare("malloc", ir.Ptr, ir.I64)
	mem := fe.fn.Call(ir.Ptr, "@malloc", []ir.Value{ir.ConstInt(ir.I64, int64(size))})
	for i, op := range ops {
		if index[i] < 0 {
			continue
		}
		ft := subs.Apply(params[i])
		if ft.IsUnit() {
			continue
		}
		fe.fn.Store(fe.coerce(op, ft, args[i].Span), fe.fn.FieldPtr(rec, mem, index[i]))
		fe.consumeArg(args[i], op, ft)
	}
	return operand{val: mem, typ: t}
}

// recordTuple is the field tuple of a class, used to size its heap record.
func recordTuple(fe *funcEmitter, t *types.Type) *types.Type {
	c, _, ok := fe.s.reg.Class(t.Name)
	if !ok {
		return types.TupleOf()
	}
	subs := types.NewSubst(c.Generics, t.Args)
	fields := make([]*types.Type, len(c.Fields))
	for i, f := range c.Fields {
		fields[i] = subs.Apply(f.Type)
	}
	return types.TupleOf(fields...)
}
