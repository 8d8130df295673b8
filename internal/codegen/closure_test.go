package codegen

import (
	"strings"
	"testing"

	"vesper/internal/ast"
	"vesper/internal/decl"
	"vesper/internal/diag"
	"vesper/internal/types"
)

// hasLine reports whether a single line of text contains every part.
func hasLine(text string, parts ...string) bool {
	for _, line := range strings.Split(text, "\n") {
		ok := true
		for _, p := range parts {
			if !strings.Contains(line, p) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// funcText cuts the definition of @name out of a module listing.
func funcText(t *testing.T, text, name string) string {
	t.Helper()
	for _, chunk := range strings.SplitAfter(text, "\n}\n") {
		i := strings.Index(chunk, "define ")
		if i < 0 {
			continue
		}
		head := chunk[i:]
		if end := strings.IndexByte(head, '\n'); end >= 0 && strings.Contains(head[:end], "@"+name+"(") {
			return head
		}
	}
	t.Fatalf("no definition of @%s in:\n%s", name, text)
	return ""
}

// allocaName returns the register of the first `alloca ty` in fn.
func allocaName(t *testing.T, fn, ty string) string {
	t.Helper()
	for _, line := range strings.Split(fn, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasSuffix(line, "= alloca "+ty) {
			return strings.TrimSpace(strings.TrimSuffix(line, "= alloca "+ty))
		}
	}
	t.Fatalf("no alloca %s in:\n%s", ty, fn)
	return ""
}

func TestCaptureInOneBranchKeepsParentValue(t *testing.T) {
	x := []ast.ClosureParam{{Name: "x", Type: types.I32}}
	pick := &decl.FuncDecl{
		Name:   "pick",
		Params: []decl.Param{{Name: "c", Type: types.Bool}},
		Ret:    types.I32,
		Body: ast.Block(ast.Binary(ast.ExprBinaryAdd, ast.Ident("y"), ast.Int(1)),
			ast.Let("y", nil, ast.Binary(ast.ExprBinaryAdd, ast.Int(2), ast.Int(3))),
			ast.ExprStmt(ast.If(ast.Ident("c"),
				ast.Block(nil, ast.Let("g", nil, ast.Closure(x, nil, ast.Binary(ast.ExprBinaryAdd, ast.Ident("x"), ast.Ident("y"))))),
				nil)),
		),
	}
	s := compile(t, &decl.Unit{Name: "main", Decls: decl.Decls{Funcs: []*decl.FuncDecl{pick}}}, Options{})
	if s.Bag().HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", s.Bag().Items())
	}
	fn := funcText(t, s.Module().Text(), "pick")

	var y string
	for _, line := range strings.Split(fn, "\n") {
		if i := strings.Index(line, " = add i32 2, 3"); i >= 0 {
			y = strings.TrimSpace(line[:i])
		}
	}
	if y == "" {
		t.Fatalf("y not computed:\n%s", fn)
	}
	if !strings.Contains(fn, "add i32 "+y+", 1") {
		t.Fatalf("tail must read the SSA value %s:\n%s", y, fn)
	}
	end := strings.LastIndex(fn, "if.end.")
	if end < 0 {
		t.Fatalf("no join block:\n%s", fn)
	}
	if strings.Contains(fn[end:], "load i32") {
		t.Fatalf("join block reads a slot written only in one branch:\n%s", fn)
	}
	if !hasLine(fn, "store i32 "+y+", ptr") {
		t.Fatalf("captured value not copied for the closure:\n%s", fn)
	}
}

func TestClosureReturnType(t *testing.T) {
	x := []ast.ClosureParam{{Name: "x", Type: types.I32}}
	xUntyped := []ast.ClosureParam{{Name: "x"}}
	addOne := func() *ast.Expr { return ast.Binary(ast.ExprBinaryAdd, ast.Ident("x"), ast.Int(1)) }
	tests := []struct {
		name string
		let  *ast.Stmt
		want string
		void bool
	}{
		{"return statement", ast.Let("f", nil, ast.Closure(x, nil, ast.Block(nil, ast.Return(addOne())))),
			"define i32 @main.closure.1(i32 %p.x)", false},
		{"tail value", ast.Let("f", nil, ast.Closure(x, nil, addOne())),
			"define i32 @main.closure.1(i32 %p.x)", false},
		{"statements only", ast.Let("f", nil, ast.Closure(x, nil, ast.Block(nil, ast.Let("y", nil, addOne())))),
			"define void @main.closure.1(i32 %p.x)", true},
		{"expected result but no value", ast.Let("f", types.FuncOf([]*types.Type{types.I32}, types.I32),
			ast.Closure(xUntyped, nil, ast.Block(nil, ast.Let("y", nil, addOne())))),
			"define void @main.closure.1(i32 %p.x)", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := compile(t, mainOnly(ast.Block(nil, tt.let), decl.Decls{}), Options{})
			text := s.Module().Text()
			if !strings.Contains(text, tt.want) {
				t.Fatalf("missing %q in:\n%s", tt.want, text)
			}
			fn := funcText(t, text, "main.closure.1")
			if got := strings.Contains(fn, "ret void"); got != tt.void {
				t.Fatalf("ret void = %v, want %v:\n%s", got, tt.void, fn)
			}
		})
	}
}

func TestFatPointerCalls(t *testing.T) {
	x := []ast.ClosureParam{{Name: "x", Type: types.I32}}
	inc := &decl.FuncDecl{
		Name:   "inc",
		Params: []decl.Param{{Name: "v", Type: types.I32}},
		Ret:    types.I32,
		Body:   ast.Block(ast.Binary(ast.ExprBinaryAdd, ast.Ident("v"), ast.Int(1))),
	}
	tests := []struct {
		name  string
		body  *ast.Expr
		lines [][]string
	}{
		{
			name: "closure value",
			body: ast.Block(nil,
				ast.Let("f", nil, ast.Closure(x, nil, ast.Binary(ast.ExprBinaryAdd, ast.Ident("x"), ast.Int(1)))),
				ast.Let("r", nil, ast.Call(ast.Ident("f"), ast.Int(2))),
			),
			lines: [][]string{
				{"icmp eq ptr ", ", null"},
				{"call.env."},
				{"call.noenv."},
				{"(ptr %t", ", i32 2)"},
				{"phi i32 "},
			},
		},
		{
			name: "named function",
			body: ast.Block(nil,
				ast.Let("g", nil, ast.Ident("inc")),
				ast.Let("r", nil, ast.Call(ast.Ident("g"), ast.Int(1))),
			),
			lines: [][]string{
				{"insertvalue { ptr, ptr } undef, ptr @inc, 0"},
				{"ptr null, 1"},
				{"call.noenv."},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := compile(t, mainOnly(tt.body, decl.Decls{Funcs: []*decl.FuncDecl{inc}}), Options{})
			if s.Bag().HasErrors() {
				t.Fatalf("unexpected diagnostics: %+v", s.Bag().Items())
			}
			fn := funcText(t, s.Module().Text(), "main")
			for _, parts := range tt.lines {
				if !hasLine(fn, parts...) {
					t.Fatalf("no line with %q in:\n%s", parts, fn)
				}
			}
		})
	}
}

func TestCaptureByReferenceMutation(t *testing.T) {
	count := &decl.FuncDecl{
		Name: "count",
		Ret:  types.I32,
		Body: ast.Block(ast.Ident("n"),
			ast.LetMut("n", nil, ast.Int(0)),
			ast.Let("bump", nil, ast.Closure(nil, nil, ast.Block(nil,
				ast.Assign(ast.Ident("n"), ast.Binary(ast.ExprBinaryAdd, ast.Ident("n"), ast.Int(1))),
			))),
			ast.ExprStmt(ast.Call(ast.Ident("bump"))),
		),
	}
	s := compile(t, &decl.Unit{Name: "main", Decls: decl.Decls{Funcs: []*decl.FuncDecl{count}}}, Options{})
	if s.Bag().HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", s.Bag().Items())
	}
	text := s.Module().Text()
	if !strings.Contains(text, "define void @count.closure.1(ptr %env)") {
		t.Fatalf("closure signature:\n%s", text)
	}
	closure := funcText(t, text, "count.closure.1")
	if !hasLine(closure, "load ptr, ptr") || !hasLine(closure, "store i32 ", ", ptr %t") {
		t.Fatalf("closure must write through the captured address:\n%s", closure)
	}

	parent := funcText(t, text, "count")
	slot := allocaName(t, parent, "i32")
	if !hasLine(parent, "store ptr "+slot+", ptr") {
		t.Fatalf("environment must hold the address of n (%s):\n%s", slot, parent)
	}
	join := strings.LastIndex(parent, "call.join.")
	if join < 0 || !strings.Contains(parent[join:], "load i32, ptr "+slot) {
		t.Fatalf("n must be reloaded after the call:\n%s", parent)
	}
}

func TestThinParameterRejectsCaptures(t *testing.T) {
	thin := types.ThinFuncOf([]*types.Type{types.I32}, types.I32)
	apply := &decl.FuncDecl{
		Name:   "apply",
		Params: []decl.Param{{Name: "f", Type: thin}, {Name: "v", Type: types.I32}},
		Ret:    types.I32,
		Body:   ast.Block(ast.Call(ast.Ident("f"), ast.Ident("v"))),
	}
	inc := &decl.FuncDecl{
		Name:   "inc",
		Params: []decl.Param{{Name: "v", Type: types.I32}},
		Ret:    types.I32,
		Body:   ast.Block(ast.Binary(ast.ExprBinaryAdd, ast.Ident("v"), ast.Int(1))),
	}
	x := []ast.ClosureParam{{Name: "x", Type: types.I32}}
	tests := []struct {
		name string
		arg  *ast.Expr
		want int
	}{
		{"capturing closure", ast.Closure(x, nil, ast.Binary(ast.ExprBinaryAdd, ast.Ident("x"), ast.Ident("k"))), 1},
		{"plain closure", ast.Closure(x, nil, ast.Binary(ast.ExprBinaryAdd, ast.Ident("x"), ast.Int(1))), 0},
		{"named function", ast.Ident("inc"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := mainOnly(ast.Block(nil,
				ast.Let("k", types.I32, ast.Int(2)),
				ast.Let("r", nil, ast.Call(ast.Ident("apply"), tt.arg, ast.Int(1))),
			), decl.Decls{Funcs: []*decl.FuncDecl{apply, inc}})
			s := compile(t, u, Options{})
			if n := s.Bag().Count(diag.CodegenCapturesDropped); n != tt.want {
				t.Fatalf("CG4016 count = %d, want %d: %+v", n, tt.want, s.Bag().Items())
			}
		})
	}
}
