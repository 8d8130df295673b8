package types

import "testing"

func TestPrimitivesAreShared(t *testing.T) {
	if Primitive(PrimI32) != I32 {
		t.Fatalf("expected shared I32 descriptor")
	}
	p, ok := ParsePrim("U16")
	if !ok || p != PrimU16 {
		t.Fatalf("ParsePrim(U16) = %v, %v", p, ok)
	}
	if _, ok := ParsePrim("Point"); ok {
		t.Fatalf("Point must not parse as primitive")
	}
}

func TestEqualIsStructural(t *testing.T) {
	a := Named("Pair", I32, RefTo(true, Named("Box", I64)))
	b := Named("Pair", I32, RefTo(true, Named("Box", I64)))
	if !Equal(a, b) {
		t.Fatalf("structurally equal types reported unequal")
	}
	c := Named("Pair", I32, RefTo(false, Named("Box", I64)))
	if Equal(a, c) {
		t.Fatalf("mutability must affect identity")
	}
	if Equal(FuncOf([]*Type{I32}, I32), ThinFuncOf([]*Type{I32}, I32)) {
		t.Fatalf("thin and fat function types must differ")
	}
}

func TestStringRendersSourceSyntax(t *testing.T) {
	tests := []struct {
		ty   *Type
		want string
	}{
		{Named("Map", Str, RefTo(true, I32)), "Map<Str, &mut I32>"},
		{ArrayOf(U8, 4), "[U8; 4]"},
		{SliceOf(Bool), "[Bool]"},
		{TupleOf(I32, F64), "(I32, F64)"},
		{FuncOf([]*Type{I32}, nil), "do(I32) -> Unit"},
		{PointerTo(false, Class("Node")), "*Node"},
	}
	for _, tt := range tests {
		if got := tt.ty.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestSubstApply(t *testing.T) {
	generic := Named("Stack", RefTo(false, Named("T")), SliceOf(Named("U")))
	s := NewSubst([]string{"T", "U"}, []*Type{I32, Bool})
	got := s.Apply(generic)
	want := Named("Stack", RefTo(false, I32), SliceOf(Bool))
	if !Equal(got, want) {
		t.Fatalf("Apply = %s, want %s", got, want)
	}
	if Mentions(got, []string{"T", "U"}) {
		t.Fatalf("substituted type still mentions params")
	}
	untouched := Named("Point")
	if s.Apply(untouched) != untouched {
		t.Fatalf("Apply must share unchanged types")
	}
}

func TestUnifyBindsParams(t *testing.T) {
	pattern := FuncOf([]*Type{Named("Option", Named("T"))}, Named("U"))
	actual := FuncOf([]*Type{Named("Option", I64)}, Str)
	out := Subst{}
	Unify(pattern, actual, []string{"T", "U"}, out)
	if !Equal(out["T"], I64) || !Equal(out["U"], Str) {
		t.Fatalf("unexpected bindings: %s", out.Key())
	}

	out = Subst{"T": Bool}
	Unify(Named("T"), I32, []string{"T"}, out)
	if !Equal(out["T"], Bool) {
		t.Fatalf("existing binding overwritten: %s", out.Key())
	}
}

func TestParseSourceSyntax(t *testing.T) {
	tests := []string{
		"I32",
		"Map<Str, &mut I32>",
		"[U8; 4]",
		"[Bool]",
		"(I32, F64)",
		"do(I32) -> I32",
		"fn(I32, I64) -> Bool",
		"*mut Node",
		"Option<Result<I32, Str>>",
	}
	for _, in := range tests {
		ty, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if got := ty.String(); got != in {
			t.Errorf("Parse(%q).String() = %q", in, got)
		}
	}
	if _, err := Parse("Map<I32"); err == nil {
		t.Fatalf("expected error for unterminated argument list")
	}
}
