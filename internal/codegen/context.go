package codegen

import (
	"vesper/internal/ir"
	"vesper/internal/types"
)

// exprCtx is the read-only context passed down the lowering of one
// expression. Nested lowering derives a modified copy; nothing is restored
// on the way back up.
type exprCtx struct {
	// Expected is the type the enclosing construct wants, nil when free.
	Expected *types.Type
	// Subs maps the generic parameters of the function being instantiated.
	Subs types.Subst
	// Impl is the receiver type of the impl being lowered, nil outside impls.
	Impl *types.Type
	// FnRet is the declared return type of the enclosing function.
	FnRet *types.Type
}

func (c exprCtx) expect(t *types.Type) exprCtx {
	c.Expected = t
	return c
}

func (c exprCtx) free() exprCtx {
	c.Expected = nil
	return c
}

// resolve applies the function substitution and maps Self to the impl type.
func (c exprCtx) resolve(t *types.Type) *types.Type {
	if t == nil {
		return nil
	}
	if c.Impl != nil && t.Kind == types.KindNamed && t.Name == "Self" && len(t.Args) == 0 {
		return c.Impl
	}
	return c.Subs.Apply(t)
}

// operand is the result of lowering an expression.
type operand struct {
	// val is the value; invalid for Unit.
	val ir.Value
	// typ is the semantic type; nil means Unit.
	typ *types.Type
	// addr is the storage holding val when the expression is a place.
	addr ir.Value
	// place is the variable name or field path the value was read from.
	place string
	// root is the variable a field path starts at.
	root string
	// nullEnv marks a closure value whose environment is known to be null.
	nullEnv bool
}

func (o operand) addressable() bool { return o.addr.Valid() }
