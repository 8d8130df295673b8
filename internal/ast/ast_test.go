package ast

import (
	"testing"

	"vesper/internal/types"
)

func TestChildrenFollowEvaluationOrder(t *testing.T) {
	x := Ident("x")
	y := Ident("y")
	body := Block(
		Binary(ExprBinaryAdd, x, y),
		Let("z", types.I32, Int(1)),
	)
	var names []string
	Inspect(body, func(e *Expr) bool {
		if e.Kind == ExprIdent {
			names = append(names, e.Ident.Name)
		}
		return true
	})
	if len(names) != 2 || names[0] != "x" || names[1] != "y" {
		t.Fatalf("names = %v", names)
	}
}

func TestInspectCanSkipClosures(t *testing.T) {
	inner := Closure(nil, nil, Ident("hidden"))
	outer := Call(Ident("f"), inner, Ident("seen"))
	var names []string
	Inspect(outer, func(e *Expr) bool {
		if e.Kind == ExprClosure {
			return false
		}
		if e.Kind == ExprIdent {
			names = append(names, e.Ident.Name)
		}
		return true
	})
	if len(names) != 2 || names[0] != "f" || names[1] != "seen" {
		t.Fatalf("names = %v", names)
	}
}

func TestOperatorStrings(t *testing.T) {
	if ExprBinaryLessEq.String() != "<=" || !ExprBinaryLessEq.IsComparison() {
		t.Fatalf("<= misclassified")
	}
	if ExprBinaryAdd.IsComparison() {
		t.Fatalf("+ is not a comparison")
	}
	if ExprUnaryRefMut.String() != "&mut" {
		t.Fatalf("&mut = %q", ExprUnaryRefMut.String())
	}
}
