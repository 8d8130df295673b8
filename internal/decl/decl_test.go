package decl

import (
	"testing"

	"vesper/internal/ast"
	"vesper/internal/types"
)

func sampleUnit() *Unit {
	T := types.Named("T")
	return &Unit{
		Name: "main",
		Decls: Decls{
			Structs: []*StructDecl{
				{Name: "Stack", Generics: []string{"T"}, Fields: []FieldDecl{
					{Name: "items", Type: types.PointerTo(true, T)},
					{Name: "len", Type: types.I64},
				}},
				{Name: "Point", Copy: true, Fields: []FieldDecl{
					{Name: "x", Type: types.I32},
					{Name: "y", Type: types.I32},
				}},
			},
			Impls: []*ImplDecl{{
				Target:   "Stack",
				Generics: []string{"T"},
				Methods: []*MethodDecl{{
					Self: SelfRefMut,
					Func: &FuncDecl{Name: "push", Params: []Param{{Name: "v", Type: T}}, Body: ast.Block(nil)},
				}},
			}},
			Funcs: []*FuncDecl{{Name: "main", Body: ast.Block(nil)}},
		},
		Imports: []*Module{{
			Path: "collections",
			Decls: Decls{
				Structs: []*StructDecl{
					{Name: "Vec", Generics: []string{"T"}, Fields: []FieldDecl{{Name: "data", Type: types.PointerTo(true, T)}}},
					{Name: "Point", Fields: []FieldDecl{{Name: "shadowed", Type: types.I8}}},
				},
				Impls: []*ImplDecl{{
					Target:   "Vec",
					Generics: []string{"T"},
					Methods:  []*MethodDecl{{Self: SelfRef, Func: &FuncDecl{Name: "len", Ret: types.I64}}},
				}},
				Funcs: []*FuncDecl{{Name: "abs", Params: []Param{{Name: "x", Type: types.I32}}, Ret: types.I32}},
			},
		}},
	}
}

func TestRegistryShadowing(t *testing.T) {
	r := NewRegistry(sampleUnit())
	p, origin, ok := r.Struct("Point")
	if !ok || origin.Library != "" || len(p.Fields) != 2 {
		t.Fatalf("local Point must shadow the imported one: %+v %+v", p, origin)
	}
	if _, origin, ok := r.Struct("Vec"); !ok || origin.Library != "collections" {
		t.Fatalf("Vec origin = %+v", origin)
	}
	if _, _, ok := r.Enum(OptionName); !ok {
		t.Fatalf("prelude Option missing")
	}
	if lib, ok := r.ImplMethodLibrary("Vec", "len"); !ok || lib != "collections" {
		t.Fatalf("Vec.len = %q, %v", lib, ok)
	}
	if _, ok := r.ImplMethodLibrary("Stack", "pop"); ok {
		t.Fatalf("Stack.pop does not exist")
	}
	if _, ok := r.ModuleFunc("collections", "abs"); !ok {
		t.Fatalf("collections::abs not found")
	}
}

func TestRegistrySubstitutesFields(t *testing.T) {
	r := NewRegistry(sampleUnit())
	fields, ok := r.StructFields(types.Named("Stack", types.Bool))
	if !ok || !types.Equal(fields[0], types.PointerTo(true, types.Bool)) {
		t.Fatalf("fields = %v", fields)
	}
	idx, ft, ok := r.Field(types.Named(RcBoxName, types.I32), "data")
	if !ok || idx != 2 || !types.Equal(ft, types.I32) {
		t.Fatalf("RcBox.data = %d %v %v", idx, ft, ok)
	}
	variants, ok := r.EnumVariants(types.Named(ResultName, types.I32, types.Str))
	if !ok || len(variants) != 2 || !types.Equal(variants[1][0], types.Str) {
		t.Fatalf("variants = %v", variants)
	}
	if n, ok := r.Arity(ResultName); !ok || n != 2 {
		t.Fatalf("Arity(Result) = %d", n)
	}
}

func TestIsCopy(t *testing.T) {
	r := NewRegistry(sampleUnit())
	tests := []struct {
		ty   *types.Type
		want bool
	}{
		{types.I32, true},
		{types.Named("Point"), true},
		{types.Named("Stack", types.I32), false},
		{types.RefTo(false, types.Named("Stack", types.I32)), true},
		{OptionOf(types.I32), false},
		{types.FuncOf(nil, nil), false},
		{types.ThinFuncOf(nil, nil), true},
	}
	for _, tt := range tests {
		if got := r.IsCopy(tt.ty); got != tt.want {
			t.Errorf("IsCopy(%s) = %v, want %v", tt.ty, got, tt.want)
		}
	}
}

func TestUnitEncodeDecode(t *testing.T) {
	u := sampleUnit()
	data, err := u.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Name != "main" || len(got.Imports) != 1 || got.Imports[0].Path != "collections" {
		t.Fatalf("decoded unit = %+v", got)
	}
	push := got.Decls.Impls[0].Methods[0]
	if push.Self != SelfRefMut || !types.Equal(push.Func.Params[0].Type, types.Named("T")) {
		t.Fatalf("push = %+v", push.Func)
	}
	again, err := got.Encode()
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if Hash(again) != Hash(data) {
		t.Fatalf("encoding is not deterministic")
	}
	if _, err := Decode([]byte{0xc0}); err == nil {
		t.Fatalf("nil payload must fail schema check")
	}
}
