package ast

import (
	"vesper/internal/types"
)

// Constructors used by the checker bridge and by tests. They leave Span
// zero; callers that track positions set it afterwards.

// Typed sets the checked type and returns e.
func (e *Expr) Typed(t *types.Type) *Expr {
	e.Type = t
	return e
}

func Ident(name string) *Expr {
	return &Expr{Kind: ExprIdent, Ident: &ExprIdentData{Name: name}}
}

func Int(v int64) *Expr {
	return &Expr{Kind: ExprLit, Lit: &ExprLiteralData{Kind: ExprLitInt, Int: v}}
}

func Float(v float64) *Expr {
	return &Expr{Kind: ExprLit, Type: types.F64, Lit: &ExprLiteralData{Kind: ExprLitFloat, Float: v}}
}

func Bool(v bool) *Expr {
	return &Expr{Kind: ExprLit, Type: types.Bool, Lit: &ExprLiteralData{Kind: ExprLitBool, Bool: v}}
}

func String(v string) *Expr {
	return &Expr{Kind: ExprLit, Type: types.Str, Lit: &ExprLiteralData{Kind: ExprLitString, Str: v}}
}

func Char(r rune) *Expr {
	return &Expr{Kind: ExprLit, Type: types.Char, Lit: &ExprLiteralData{Kind: ExprLitChar, Int: int64(r)}}
}

func Unit() *Expr {
	return &Expr{Kind: ExprLit, Type: types.Unit, Lit: &ExprLiteralData{Kind: ExprLitUnit}}
}

func Binary(op ExprBinaryOp, l, r *Expr) *Expr {
	return &Expr{Kind: ExprBinary, Binary: &ExprBinaryData{Op: op, Left: l, Right: r}}
}

func Unary(op ExprUnaryOp, x *Expr) *Expr {
	return &Expr{Kind: ExprUnary, Unary: &ExprUnaryData{Op: op, Operand: x}}
}

func Cast(v *Expr, to *types.Type) *Expr {
	return &Expr{Kind: ExprCast, Type: to, Cast: &ExprCastData{Value: v, To: to}}
}

func Call(target *Expr, args ...*Expr) *Expr {
	return &Expr{Kind: ExprCall, Call: &ExprCallData{Target: target, Args: args}}
}

func StaticCall(receiver string, typeArgs []*types.Type, member string, args ...*Expr) *Expr {
	return &Expr{Kind: ExprStaticCall, Static: &ExprStaticData{Receiver: receiver, TypeArgs: typeArgs, Member: member, Args: args}}
}

func Path(receiver string, typeArgs []*types.Type, member string) *Expr {
	return &Expr{Kind: ExprPath, Static: &ExprStaticData{Receiver: receiver, TypeArgs: typeArgs, Member: member}}
}

func MethodCall(recv *Expr, method string, args ...*Expr) *Expr {
	return &Expr{Kind: ExprMethodCall, Method: &ExprMethodCallData{Receiver: recv, Method: method, Args: args}}
}

func Member(target *Expr, field string) *Expr {
	return &Expr{Kind: ExprMember, Member: &ExprMemberData{Target: target, Field: field}}
}

func TupleIndex(target *Expr, idx int) *Expr {
	return &Expr{Kind: ExprTupleIndex, TupleIndex: &ExprTupleIndexData{Target: target, Index: idx}}
}

func Index(target, idx *Expr) *Expr {
	return &Expr{Kind: ExprIndex, Index: &ExprIndexData{Target: target, Index: idx}}
}

func Tuple(elems ...*Expr) *Expr {
	return &Expr{Kind: ExprTuple, Tuple: &ExprTupleData{Elements: elems}}
}

func Array(elems ...*Expr) *Expr {
	return &Expr{Kind: ExprArray, Array: &ExprArrayData{Elements: elems}}
}

func StructLit(name string, typeArgs []*types.Type, fields ...ExprStructField) *Expr {
	return &Expr{Kind: ExprStruct, Struct: &ExprStructData{Name: name, TypeArgs: typeArgs, Fields: fields}}
}

func Field(name string, v *Expr) ExprStructField {
	return ExprStructField{Name: name, Value: v}
}

func Closure(params []ClosureParam, ret *types.Type, body *Expr) *Expr {
	return &Expr{Kind: ExprClosure, Closure: &ExprClosureData{Params: params, Ret: ret, Body: body}}
}

func Block(tail *Expr, stmts ...*Stmt) *Expr {
	return &Expr{Kind: ExprBlock, Block: &ExprBlockData{Stmts: stmts, Tail: tail}}
}

func If(cond, then, els *Expr) *Expr {
	return &Expr{Kind: ExprIf, If: &ExprIfData{Cond: cond, Then: then, Else: els}}
}

func Let(name string, ty *types.Type, v *Expr) *Stmt {
	return &Stmt{Kind: StmtLet, Let: &StmtLetData{Name: name, Type: ty, Value: v}}
}

func LetMut(name string, ty *types.Type, v *Expr) *Stmt {
	return &Stmt{Kind: StmtLet, Let: &StmtLetData{Name: name, Mutable: true, Type: ty, Value: v}}
}

func Assign(target, v *Expr) *Stmt {
	return &Stmt{Kind: StmtAssign, Assign: &StmtAssignData{Target: target, Value: v}}
}

func ExprStmt(x *Expr) *Stmt {
	return &Stmt{Kind: StmtExpr, Expr: x}
}

func Return(x *Expr) *Stmt {
	return &Stmt{Kind: StmtReturn, Expr: x}
}
