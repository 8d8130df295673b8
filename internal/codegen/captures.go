package codegen

import (
	"vesper/internal/ast"
)

// freeVars lists the identifiers a closure body reads from outside, in
// first-use order. Parameters and names bound by lets inside the body are
// excluded. Nested closures are not entered; they compute their own
// captures when they are lowered.
func freeVars(body *ast.Expr, params []string) []string {
	bound := make(map[string]bool, len(params))
	for _, p := range params {
		bound[p] = true
	}
	seen := make(map[string]bool)
	var out []string
	var visit func(e *ast.Expr, bound map[string]bool)
	visit = func(e *ast.Expr, bound map[string]bool) {
		if e == nil {
			return
		}
		switch e.Kind {
		case ast.ExprClosure:
			return
		case ast.ExprIdent:
			name := e.Ident.Name
			if !bound[name] && !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
			return
		case ast.ExprBlock:
			inner := make(map[string]bool, len(bound))
			for k := range bound {
				inner[k] = true
			}
			for _, st := range e.Block.Stmts {
				for _, x := range ast.StmtExprs(st) {
					visit(x, inner)
				}
				if st.Kind == ast.StmtLet {
					inner[st.Let.Name] = true
				}
			}
			visit(e.Block.Tail, inner)
			return
		}
		for _, c := range ast.Children(e) {
			visit(c, bound)
		}
	}
	visit(body, bound)
	return out
}
