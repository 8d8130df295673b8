package codegen

import (
	"vesper/internal/diag"
	"vesper/internal/ir"
	"vesper/internal/layout"
	"vesper/internal/source"
	"vesper/internal/types"
)

// constructVariant builds the enum value t with tag idx. The tag goes to
// field 0; the variant's payload record is stored over the payload slot at
// field 1, whose class guarantees it is large and aligned enough.
func (fe *funcEmitter) constructVariant(t *types.Type, idx int, vals []operand, sp source.Span) operand {
	el, err := fe.s.layout.Enum(t)
	if err != nil {
		fe.s.errorf(diag.CodegenRecursiveLayout, sp, "%s: %v", t, err)
		return placeholder()
	}
	tag, err := layout.Tag(idx)
	if err != nil {
		fe.s.errorf(diag.CodegenInvalidOperand, sp, "%s: %v", t, err)
		return placeholder()
	}
	ll := fe.lowerType(t, sp)
	slot := fe.fn.Alloca(ll)
	fe.fn.Store(ir.ConstUint(ir.I32, uint64(tag)), fe.fn.FieldPtr(ll, slot, 0))
	if !el.TagOnly() && len(vals) > 0 {
		payloadTy, fields := fe.s.variantPayloadType(t, idx, sp)
		agg := ir.Undef(payloadTy)
		for i, v := range vals {
			if i >= len(fields) || fields[i].IsUnit() || !v.val.Valid() {
				continue
			}
			agg = fe.fn.InsertValue(agg, v.val, i)
		}
		fe.fn.Store(agg, fe.fn.FieldPtr(ll, slot, 1))
	}
	return operand{val: fe.fn.Load(ll, slot), typ: t, addr: slot}
}

// enumTag reads the tag of the enum t stored at addr.
func (fe *funcEmitter) enumTag(addr ir.Value, t *types.Type, sp source.Span) ir.Value {
	return fe.fn.Load(ir.I32, fe.fn.FieldPtr(fe.lowerType(t, sp), addr, 0))
}

// variantField reads payload field j of variant idx of the enum t stored at
// addr. The tag is not checked.
func (fe *funcEmitter) variantField(addr ir.Value, t *types.Type, idx, j int, sp source.Span) operand {
	payloadTy, fields := fe.s.variantPayloadType(t, idx, sp)
	if j < 0 || j >= len(fields) {
		fe.s.errorf(diag.CodegenUnknownField, sp, "variant %d of %s has no field %d", idx, t, j)
		return placeholder()
	}
	ft := fields[j]
	if ft.IsUnit() {
		return operand{typ: ft}
	}
	payload := fe.fn.FieldPtr(fe.lowerType(t, sp), addr, 1)
	p := fe.fn.FieldPtr(payloadTy, payload, j)
	return operand{val: fe.fn.Load(fe.lowerType(ft, sp), p), typ: ft, addr: p}
}

// abort emits a call to the runtime panic hook and ends the block.
func (fe *funcEmitter) abort(msg string) {
	fe.s.mod.Declare(panicHook, ir.Void, ir.Ptr)
	fe.fn.Call(ir.Void, "@"+panicHook, []ir.Value{fe.s.mod.StringConst(msg)})
	fe.fn.Unreachable()
}

const panicHook = "vesper_panic"

