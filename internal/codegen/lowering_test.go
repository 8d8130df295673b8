package codegen

import (
	"strings"
	"testing"

	"vesper/internal/ast"
	"vesper/internal/decl"
	"vesper/internal/diag"
	"vesper/internal/types"
)

func TestArgumentLowering(t *testing.T) {
	sink := func(name string, p *types.Type) *decl.FuncDecl {
		return &decl.FuncDecl{Name: name, Params: []decl.Param{{Name: "v", Type: p}}, Body: ast.Block(nil)}
	}
	tests := []struct {
		name  string
		fn    *decl.FuncDecl
		lines [][]string
	}{
		{
			name: "integer widths",
			fn: &decl.FuncDecl{
				Name: "caller",
				Params: []decl.Param{
					{Name: "a", Type: types.I32},
					{Name: "b", Type: types.U8},
					{Name: "c", Type: types.I64},
				},
				Body: ast.Block(nil,
					ast.ExprStmt(ast.Call(ast.Ident("wide"), ast.Ident("a"))),
					ast.ExprStmt(ast.Call(ast.Ident("wide"), ast.Ident("b"))),
					ast.ExprStmt(ast.Call(ast.Ident("narrow"), ast.Ident("c"))),
				),
			},
			lines: [][]string{
				{"sext i32 ", " to i64"},
				{"zext i8 ", " to i64"},
				{"trunc i64 ", " to i16"},
				{"call void @narrow(i16 %t"},
			},
		},
		{
			name: "literal behind a reference",
			fn: &decl.FuncDecl{
				Name: "caller",
				Body: ast.Block(nil, ast.ExprStmt(ast.Call(ast.Ident("byref"), ast.Int(5)))),
			},
			lines: [][]string{
				{"store i32 5, ptr %t"},
				{"call void @byref(ptr %t"},
			},
		},
		{
			name: "array as slice",
			fn: &decl.FuncDecl{
				Name: "caller",
				Body: ast.Block(nil,
					ast.Let("arr", nil, ast.Array(ast.Int(1), ast.Int(2), ast.Int(3))),
					ast.ExprStmt(ast.Call(ast.Ident("sum"), ast.Unary(ast.ExprUnaryRef, ast.Ident("arr")))),
				),
			},
			lines: [][]string{
				{"alloca [3 x i32]"},
				{"insertvalue { ptr, i64 } undef, ptr %t", ", 0"},
				{"i64 3, 1"},
				{"call void @sum({ ptr, i64 } %t"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &decl.Unit{Name: "main", Decls: decl.Decls{Funcs: []*decl.FuncDecl{
				sink("wide", types.I64),
				sink("narrow", types.I16),
				sink("byref", types.RefTo(false, types.I32)),
				sink("sum", types.RefTo(false, types.SliceOf(types.I32))),
				tt.fn,
			}}}
			s := compile(t, u, Options{})
			if s.Bag().HasErrors() {
				t.Fatalf("unexpected diagnostics: %+v", s.Bag().Items())
			}
			fn := funcText(t, s.Module().Text(), "caller")
			for _, parts := range tt.lines {
				if !hasLine(fn, parts...) {
					t.Fatalf("no line with %q in:\n%s", parts, fn)
				}
			}
		})
	}
}

func TestFieldAccessThroughSharedWrappers(t *testing.T) {
	tests := []struct {
		wrapper string
		holder  string
		data    string
	}{
		{decl.RcName, "%RcBox__Point", "i32 0, i32 2"},
		{decl.ArcName, "%RcBox__Point", "i32 0, i32 2"},
		{decl.RwLockReadGuardName, "%RwLock__Point", "i32 0, i32 1"},
		{decl.RwLockWriteGuardName, "%RwLock__Point", "i32 0, i32 1"},
	}
	for _, tt := range tests {
		t.Run(tt.wrapper, func(t *testing.T) {
			u := &decl.Unit{Name: "main", Decls: decl.Decls{
				Structs: []*decl.StructDecl{point()},
				Funcs: []*decl.FuncDecl{{
					Name:   "read",
					Params: []decl.Param{{Name: "w", Type: types.Named(tt.wrapper, types.Named("Point"))}},
					Ret:    types.I32,
					Body:   ast.Block(ast.Member(ast.Ident("w"), "y")),
				}},
			}}
			s := compile(t, u, Options{})
			if s.Bag().HasErrors() {
				t.Fatalf("unexpected diagnostics: %+v", s.Bag().Items())
			}
			fn := funcText(t, s.Module().Text(), "read")
			outer := "getelementptr inbounds %" + tt.wrapper + "__Point, ptr"
			inner := "getelementptr inbounds " + tt.holder + ", ptr"
			field := "getelementptr inbounds %Point, ptr"
			if !hasLine(fn, outer, "i32 0, i32 0") {
				t.Fatalf("wrapper field not addressed:\n%s", fn)
			}
			if !hasLine(fn, inner, tt.data) {
				t.Fatalf("data field of %s not addressed:\n%s", tt.holder, fn)
			}
			if !hasLine(fn, field, "i32 0, i32 1") {
				t.Fatalf("field y not addressed:\n%s", fn)
			}
			if o, i, f := strings.Index(fn, outer), strings.Index(fn, inner), strings.Index(fn, field); o > i || i > f {
				t.Fatalf("wrapper chain walked out of order:\n%s", fn)
			}
		})
	}
}

func TestOptionCombinatorLowering(t *testing.T) {
	positive := ast.Closure([]ast.ClosureParam{{Name: "v", Type: types.I32}}, nil,
		ast.Binary(ast.ExprBinaryGreater, ast.Ident("v"), ast.Int(0)))
	tests := []struct {
		name  string
		call  *ast.Expr
		lines [][]string
	}{
		{
			name:  "unwrap_or",
			call:  ast.MethodCall(ast.Ident("o"), "unwrap_or", ast.Int(3)),
			lines: [][]string{{"select i1 ", ", i32 3"}},
		},
		{
			name: "map",
			call: ast.MethodCall(ast.Ident("o"), "map", positive),
			lines: [][]string{
				{"map.ok."},
				{"map.other."},
				{"phi %Option__Bool "},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := mainOnly(ast.Block(nil,
				ast.Let("o", decl.OptionOf(types.I32), ast.StaticCall("Option", nil, "Some", ast.Int(1))),
				ast.Let("r", nil, tt.call),
			), decl.Decls{})
			s := compile(t, u, Options{})
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

func TestMapOnNonGenericLookalike(t *testing.T) {
	option := &decl.EnumDecl{Name: "Option", Variants: []decl.VariantDecl{
		{Name: "None"},
		{Name: "Some", Fields: []*types.Type{types.I32}},
	}}
	inc := ast.Closure([]ast.ClosureParam{{Name: "v", Type: types.I32}}, nil,
		ast.Binary(ast.ExprBinaryAdd, ast.Ident("v"), ast.Int(1)))
	u := mainOnly(ast.Block(nil,
		ast.Let("o", types.Named("Option"), ast.StaticCall("Option", nil, "Some", ast.Int(1))),
		ast.Let("r", nil, ast.MethodCall(ast.Ident("o"), "map", inc)),
	), decl.Decls{Enums: []*decl.EnumDecl{option}})
	s := compile(t, u, Options{})
	if n := s.Bag().Count(diag.CodegenUnknownMethod); n != 1 {
		t.Fatalf("CG4003 count = %d, want 1: %+v", n, s.Bag().Items())
	}
}

func TestFloatTryFromChecksRangeFirst(t *testing.T) {
	tests := []struct {
		target string
		sym    string
		lo, hi string
		conv   string
	}{
		{"I32", "I32_try_from_F64", "0xC1E0000000000000", "0x41E0000000000000", "fptosi"},
		{"U8", "U8_try_from_F64", "0x0000000000000000", "0x4070000000000000", "fptoui"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			u := mainOnly(ast.Block(nil,
				ast.Let("r", nil, ast.StaticCall(tt.target, nil, "try_from", ast.Float(1e20))),
			), decl.Decls{})
			s := compile(t, u, Options{})
			if s.Bag().HasErrors() {
				t.Fatalf("unexpected diagnostics: %+v", s.Bag().Items())
			}
			fn := funcText(t, s.Module().Text(), tt.sym)
			lo := strings.Index(fn, "fcmp oge double %v, "+tt.lo)
			hi := strings.Index(fn, "fcmp olt double %v, "+tt.hi)
			if lo < 0 || hi < 0 {
				t.Fatalf("range check missing:\n%s", fn)
			}
			label := strings.Index(fn, "try.conv.")
			conv := strings.Index(fn, tt.conv+" double")
			if label < 0 || conv < 0 || conv < lo || conv < hi || conv < label {
				t.Fatalf("%s must run only after the range check:\n%s", tt.conv, fn)
			}
		})
	}
}

func TestMoveOfShadowingBinding(t *testing.T) {
	owned := &decl.StructDecl{Name: "Token", Fields: []decl.FieldDecl{{Name: "id", Type: types.I32}}}
	take := &decl.FuncDecl{
		Name:   "take",
		Params: []decl.Param{{Name: "t", Type: types.Named("Token")}},
		Body:   ast.Block(nil),
	}
	token := func(id int64) *ast.Expr {
		return ast.StructLit("Token", nil, ast.Field("id", ast.Int(id)))
	}
	takeT := func() *ast.Stmt { return ast.ExprStmt(ast.Call(ast.Ident("take"), ast.Ident("t"))) }
	u := mainOnly(ast.Block(nil,
		ast.Let("t", nil, token(1)),
		ast.ExprStmt(ast.Block(nil,
			ast.Let("t", nil, token(2)),
			takeT(),
			takeT(),
		)),
		takeT(),
	), decl.Decls{Structs: []*decl.StructDecl{owned}, Funcs: []*decl.FuncDecl{take}})
	s := compile(t, u, Options{})
	if n := s.Bag().Count(diag.CodegenUseAfterMove); n != 1 {
		t.Fatalf("CG4007 count = %d, want 1: %+v", n, s.Bag().Items())
	}
}
