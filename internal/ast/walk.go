package ast

// Children returns the direct subexpressions of e in evaluation order.
// Closure bodies are children; statements contribute their expressions.
func Children(e *Expr) []*Expr {
	if e == nil {
		return nil
	}
	var out []*Expr
	add := func(xs ...*Expr) {
		for _, x := range xs {
			if x != nil {
				out = append(out, x)
			}
		}
	}
	switch e.Kind {
	case ExprCall:
		add(e.Call.Target)
		add(e.Call.Args...)
	case ExprStaticCall, ExprPath:
		add(e.Static.Args...)
	case ExprMethodCall:
		add(e.Method.Receiver)
		add(e.Method.Args...)
	case ExprBinary:
		add(e.Binary.Left, e.Binary.Right)
	case ExprUnary:
		add(e.Unary.Operand)
	case ExprCast:
		add(e.Cast.Value)
	case ExprMember:
		add(e.Member.Target)
	case ExprTupleIndex:
		add(e.TupleIndex.Target)
	case ExprIndex:
		add(e.Index.Target, e.Index.Index)
	case ExprTuple:
		add(e.Tuple.Elements...)
	case ExprArray:
		add(e.Array.Elements...)
	case ExprStruct:
		for _, f := range e.Struct.Fields {
			add(f.Value)
		}
	case ExprClosure:
		add(e.Closure.Body)
	case ExprBlock:
		for _, s := range e.Block.Stmts {
			add(StmtExprs(s)...)
		}
		add(e.Block.Tail)
	case ExprIf:
		add(e.If.Cond, e.If.Then, e.If.Else)
	}
	return out
}

// StmtExprs returns the expressions of a statement in evaluation order.
func StmtExprs(s *Stmt) []*Expr {
	if s == nil {
		return nil
	}
	switch s.Kind {
	case StmtLet:
		return []*Expr{s.Let.Value}
	case StmtAssign:
		return []*Expr{s.Assign.Value, s.Assign.Target}
	default:
		if s.Expr == nil {
			return nil
		}
		return []*Expr{s.Expr}
	}
}

// Inspect walks e depth-first, pre-order. Returning false from fn skips the
// node's children.
func Inspect(e *Expr, fn func(*Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, c := range Children(e) {
		Inspect(c, fn)
	}
}
