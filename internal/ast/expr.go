// Package ast is the typed expression tree handed over by the checker.
// Every node may carry its checked type; partially checked trees (library
// replay) leave Type nil and the code generator infers what it can.
package ast

import (
	"vesper/internal/source"
	"vesper/internal/types"
)

// ExprKind enumerates the different kinds of expressions.
type ExprKind uint8

const (
	// ExprIdent represents an identifier expression.
	ExprIdent ExprKind = iota
	// ExprLit represents a literal expression.
	ExprLit
	// ExprCall represents a call of a function value or named function.
	ExprCall
	// ExprStaticCall represents `Type::member(args)`.
	ExprStaticCall
	// ExprPath represents `Type::member` without arguments (unit variants).
	ExprPath
	// ExprMethodCall represents `recv.method(args)`.
	ExprMethodCall
	ExprBinary
	ExprUnary
	ExprCast
	ExprMember
	ExprTupleIndex
	ExprIndex
	ExprTuple
	ExprArray
	ExprStruct
	ExprClosure
	ExprBlock
	ExprIf
)

func (k ExprKind) String() string {
	switch k {
	case ExprIdent:
		return "ident"
	case ExprLit:
		return "literal"
	case ExprCall:
		return "call"
	case ExprStaticCall:
		return "static call"
	case ExprPath:
		return "path"
	case ExprMethodCall:
		return "method call"
	case ExprBinary:
		return "binary"
	case ExprUnary:
		return "unary"
	case ExprCast:
		return "cast"
	case ExprMember:
		return "member"
	case ExprTupleIndex:
		return "tuple index"
	case ExprIndex:
		return "index"
	case ExprTuple:
		return "tuple"
	case ExprArray:
		return "array"
	case ExprStruct:
		return "struct literal"
	case ExprClosure:
		return "closure"
	case ExprBlock:
		return "block"
	case ExprIf:
		return "if"
	default:
		return "?"
	}
}

// Expr represents an expression node. Exactly one payload pointer matching
// Kind is set.
type Expr struct {
	Kind ExprKind    `msgpack:"k"`
	Span source.Span `msgpack:"s"`
	// Type is the checked type, nil when unknown.
	Type *types.Type `msgpack:"t,omitempty"`

	Ident      *ExprIdentData      `msgpack:"id,omitempty"`
	Lit        *ExprLiteralData    `msgpack:"lit,omitempty"`
	Call       *ExprCallData       `msgpack:"call,omitempty"`
	Static     *ExprStaticData     `msgpack:"st,omitempty"`
	Method     *ExprMethodCallData `msgpack:"mc,omitempty"`
	Binary     *ExprBinaryData     `msgpack:"bin,omitempty"`
	Unary      *ExprUnaryData      `msgpack:"un,omitempty"`
	Cast       *ExprCastData       `msgpack:"cast,omitempty"`
	Member     *ExprMemberData     `msgpack:"mem,omitempty"`
	TupleIndex *ExprTupleIndexData `msgpack:"ti,omitempty"`
	Index      *ExprIndexData      `msgpack:"ix,omitempty"`
	Tuple      *ExprTupleData      `msgpack:"tup,omitempty"`
	Array      *ExprArrayData      `msgpack:"arr,omitempty"`
	Struct     *ExprStructData     `msgpack:"sl,omitempty"`
	Closure    *ExprClosureData    `msgpack:"cl,omitempty"`
	Block      *ExprBlockData      `msgpack:"blk,omitempty"`
	If         *ExprIfData         `msgpack:"if,omitempty"`
}

// ExprBinaryOp enumerates binary operator kinds.
type ExprBinaryOp uint8

const (
	ExprBinaryAdd ExprBinaryOp = iota
	ExprBinarySub
	ExprBinaryMul
	ExprBinaryDiv
	ExprBinaryMod
	ExprBinaryBitAnd
	ExprBinaryBitOr
	ExprBinaryBitXor
	ExprBinaryShiftLeft
	ExprBinaryShiftRight
	ExprBinaryLogicalAnd
	ExprBinaryLogicalOr
	ExprBinaryEq
	ExprBinaryNotEq
	ExprBinaryLess
	ExprBinaryLessEq
	ExprBinaryGreater
	ExprBinaryGreaterEq
)

// String returns the symbol representation of a binary operator.
func (op ExprBinaryOp) String() string {
	switch op {
	case ExprBinaryAdd:
		return "+"
	case ExprBinarySub:
		return "-"
	case ExprBinaryMul:
		return "*"
	case ExprBinaryDiv:
		return "/"
	case ExprBinaryMod:
		return "%"
	case ExprBinaryBitAnd:
		return "&"
	case ExprBinaryBitOr:
		return "|"
	case ExprBinaryBitXor:
		return "^"
	case ExprBinaryShiftLeft:
		return "<<"
	case ExprBinaryShiftRight:
		return ">>"
	case ExprBinaryLogicalAnd:
		return "&&"
	case ExprBinaryLogicalOr:
		return "||"
	case ExprBinaryEq:
		return "=="
	case ExprBinaryNotEq:
		return "!="
	case ExprBinaryLess:
		return "<"
	case ExprBinaryLessEq:
		return "<="
	case ExprBinaryGreater:
		return ">"
	case ExprBinaryGreaterEq:
		return ">="
	default:
		return "?"
	}
}

// IsComparison reports whether op yields Bool from two operands.
func (op ExprBinaryOp) IsComparison() bool {
	return op >= ExprBinaryEq && op <= ExprBinaryGreaterEq
}

// ExprUnaryOp enumerates unary operator kinds.
type ExprUnaryOp uint8

const (
	ExprUnaryMinus ExprUnaryOp = iota
	ExprUnaryNot
	// ExprUnaryDeref represents the dereference operator (*).
	ExprUnaryDeref
	// ExprUnaryRef represents the reference operator (&).
	ExprUnaryRef
	// ExprUnaryRefMut represents the mutable reference operator (&mut).
	ExprUnaryRefMut
)

// String returns the symbol representation of a unary operator.
func (op ExprUnaryOp) String() string {
	switch op {
	case ExprUnaryMinus:
		return "-"
	case ExprUnaryNot:
		return "!"
	case ExprUnaryDeref:
		return "*"
	case ExprUnaryRef:
		return "&"
	case ExprUnaryRefMut:
		return "&mut"
	default:
		return "?"
	}
}

// ExprLitKind enumerates literal kinds.
type ExprLitKind uint8

const (
	ExprLitInt ExprLitKind = iota
	ExprLitFloat
	ExprLitString
	ExprLitBool
	ExprLitChar
	ExprLitUnit
)

// ExprIdentData holds identifier expression details.
type ExprIdentData struct {
	Name string `msgpack:"n"`
}

// ExprLiteralData holds literal expression details.
type ExprLiteralData struct {
	Kind  ExprLitKind `msgpack:"k"`
	Int   int64       `msgpack:"i,omitempty"`
	Float float64     `msgpack:"f,omitempty"`
	Bool  bool        `msgpack:"b,omitempty"`
	Str   string      `msgpack:"s,omitempty"`
}

// ExprCallData holds a call through a callee expression.
type ExprCallData struct {
	Target   *Expr         `msgpack:"t"`
	Args     []*Expr       `msgpack:"a,omitempty"`
	TypeArgs []*types.Type `msgpack:"ta,omitempty"`
}

// ExprStaticData holds `Receiver<TypeArgs>::Member(Args)`. Receiver is a
// type, class or module name as written.
type ExprStaticData struct {
	Receiver string        `msgpack:"r"`
	TypeArgs []*types.Type `msgpack:"ta,omitempty"`
	Member   string        `msgpack:"m"`
	Args     []*Expr       `msgpack:"a,omitempty"`
}

// ExprMethodCallData holds `Receiver.Method<TypeArgs>(Args)`.
type ExprMethodCallData struct {
	Receiver *Expr         `msgpack:"r"`
	Method   string        `msgpack:"m"`
	Args     []*Expr       `msgpack:"a,omitempty"`
	TypeArgs []*types.Type `msgpack:"ta,omitempty"`
}

// ExprBinaryData holds binary operation expression details.
type ExprBinaryData struct {
	Op    ExprBinaryOp `msgpack:"op"`
	Left  *Expr        `msgpack:"l"`
	Right *Expr        `msgpack:"r"`
}

// ExprUnaryData holds unary operation expression details.
type ExprUnaryData struct {
	Op      ExprUnaryOp `msgpack:"op"`
	Operand *Expr       `msgpack:"x"`
}

// ExprCastData holds `Value as Type`.
type ExprCastData struct {
	Value *Expr       `msgpack:"v"`
	To    *types.Type `msgpack:"to"`
}

// ExprMemberData holds member access expression details.
type ExprMemberData struct {
	Target *Expr  `msgpack:"t"`
	Field  string `msgpack:"f"`
}

// ExprTupleIndexData holds tuple index expression details.
type ExprTupleIndexData struct {
	Target *Expr `msgpack:"t"`
	Index  int   `msgpack:"i"`
}

// ExprIndexData holds index expression details.
type ExprIndexData struct {
	Target *Expr `msgpack:"t"`
	Index  *Expr `msgpack:"i"`
}

// ExprTupleData holds tuple expression details.
type ExprTupleData struct {
	Elements []*Expr `msgpack:"e"`
}

// ExprArrayData holds array literal expression details.
type ExprArrayData struct {
	Elements []*Expr `msgpack:"e"`
}

// ExprStructField represents a field in a struct literal.
type ExprStructField struct {
	Name  string `msgpack:"n"`
	Value *Expr  `msgpack:"v"`
}

// ExprStructData holds `Name<TypeArgs> { fields }`.
type ExprStructData struct {
	Name     string            `msgpack:"n"`
	TypeArgs []*types.Type     `msgpack:"ta,omitempty"`
	Fields   []ExprStructField `msgpack:"f"`
}

// ClosureParam is one closure parameter; Type is nil when not annotated.
type ClosureParam struct {
	Name string      `msgpack:"n"`
	Type *types.Type `msgpack:"t,omitempty"`
}

// ExprClosureData holds `do(params) -> Ret body`.
type ExprClosureData struct {
	Params []ClosureParam `msgpack:"p,omitempty"`
	Ret    *types.Type    `msgpack:"r,omitempty"`
	Body   *Expr          `msgpack:"b"`
	// Captures as computed by the checker; empty means unknown.
	Captures []string `msgpack:"c,omitempty"`
}

// ExprBlockData holds statements followed by an optional tail value.
type ExprBlockData struct {
	Stmts []*Stmt `msgpack:"s,omitempty"`
	Tail  *Expr   `msgpack:"t,omitempty"`
}

// ExprIfData holds `if Cond { Then } else { Else }`.
type ExprIfData struct {
	Cond *Expr `msgpack:"c"`
	Then *Expr `msgpack:"t"`
	Else *Expr `msgpack:"e,omitempty"`
}
