package ast

import (
	"vesper/internal/source"
	"vesper/internal/types"
)

type StmtKind uint8

const (
	StmtLet StmtKind = iota
	StmtAssign
	StmtExpr
	StmtReturn
)

type Stmt struct {
	Kind StmtKind    `msgpack:"k"`
	Span source.Span `msgpack:"s"`

	Let    *StmtLetData    `msgpack:"let,omitempty"`
	Assign *StmtAssignData `msgpack:"as,omitempty"`
	// Expr is the value of StmtExpr and StmtReturn (nil for a bare return).
	Expr *Expr `msgpack:"x,omitempty"`
}

// StmtLetData holds `let [mut] Name[: Type] = Value`.
type StmtLetData struct {
	Name    string      `msgpack:"n"`
	Mutable bool        `msgpack:"m,omitempty"`
	Type    *types.Type `msgpack:"t,omitempty"`
	Value   *Expr       `msgpack:"v"`
}

// StmtAssignData holds `Target = Value`.
type StmtAssignData struct {
	Target *Expr `msgpack:"t"`
	Value  *Expr `msgpack:"v"`
}
