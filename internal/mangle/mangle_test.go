package mangle

import (
	"testing"

	"vesper/internal/types"
)

func arities(m map[string]int) ArityFunc {
	return func(name string) (int, bool) {
		n, ok := m[name]
		return n, ok
	}
}

func sampleTypes() []*types.Type {
	return []*types.Type{
		types.I32,
		types.I64,
		types.Bool,
		types.Str,
		types.PointerTo(false, types.I32),
		types.PointerTo(true, types.I32),
		types.RefTo(false, types.I32),
		types.RefTo(true, types.I32),
		types.Named("Point"),
		types.Named("Stack", types.I32),
		types.Named("Stack", types.I64),
		types.Named("Stack", types.Named("Stack", types.I32)),
		types.Named("Pair", types.I32, types.I64),
		types.Named("Pair", types.Named("Box", types.I32), types.I64),
		types.Named("Pair", types.I64, types.Named("Box", types.I32)),
		types.TupleOf(types.I32, types.Bool),
		types.TupleOf(types.TupleOf(types.I32), types.Bool),
		types.ArrayOf(types.U8, 4),
		types.ArrayOf(types.U8, 8),
		types.SliceOf(types.U8),
		types.FuncOf([]*types.Type{types.I32}, types.I32),
		types.ThinFuncOf([]*types.Type{types.I32}, types.I32),
		types.FuncOf(nil, nil),
	}
}

var sampleArity = arities(map[string]int{"Point": 0, "Stack": 1, "Pair": 2, "Box": 1})

func TestMangleDeterministic(t *testing.T) {
	for _, ty := range sampleTypes() {
		if a, b := Mangle(ty), Mangle(ty); a != b {
			t.Fatalf("Mangle(%s) not stable: %q vs %q", ty, a, b)
		}
	}
	a := Mangle(types.Named("Map", types.Str, types.I32))
	b := Mangle(types.Named("Map", types.Str, types.I32))
	if a != b {
		t.Fatalf("equal structures mangled differently: %q vs %q", a, b)
	}
}

func TestMangleInjective(t *testing.T) {
	seen := make(map[string]*types.Type)
	for _, ty := range sampleTypes() {
		name := Mangle(ty)
		if prev, ok := seen[name]; ok {
			t.Fatalf("collision: %s and %s both mangle to %q", prev, ty, name)
		}
		seen[name] = ty
	}
}

func TestMangleExamples(t *testing.T) {
	tests := []struct {
		ty   *types.Type
		want string
	}{
		{types.I32, "I32"},
		{types.Named("Stack", types.I32), "Stack__I32"},
		{types.Named("Pair", types.Named("Box", types.I32), types.RefTo(true, types.Str)), "Pair__Box__I32__RefMut__Str"},
		{types.TupleOf(types.I32, types.Bool), "Tup2__I32__Bool"},
		{types.FuncOf([]*types.Type{types.I32}, nil), "Fn1__I32__Unit"},
	}
	for _, tt := range tests {
		if got := Mangle(tt.ty); got != tt.want {
			t.Errorf("Mangle(%s) = %q, want %q", tt.ty, got, tt.want)
		}
	}
}

func TestUnmangleRoundTrip(t *testing.T) {
	for _, ty := range sampleTypes() {
		got, ok := Unmangle(Mangle(ty), sampleArity)
		if !ok {
			t.Fatalf("Unmangle(%q) failed", Mangle(ty))
		}
		if !types.Equal(got, ty) {
			t.Fatalf("round trip of %s produced %s", ty, got)
		}
	}
}

func TestUnmangleWithoutOracleHandlesOneLevel(t *testing.T) {
	got, ok := Unmangle("Stack__I32", nil)
	if !ok || !types.Equal(got, types.Named("Stack", types.I32)) {
		t.Fatalf("Unmangle(Stack__I32) = %s, %v", got, ok)
	}
	got, ok = Unmangle("Pair__I32__Str", nil)
	if !ok || !types.Equal(got, types.Named("Pair", types.I32, types.Str)) {
		t.Fatalf("Unmangle(Pair__I32__Str) = %s, %v", got, ok)
	}
}

func TestUnmangleDegradesToOpaqueName(t *testing.T) {
	for _, in := range []string{"Tup3__I32", "Ptr", "Stack____I32", ""} {
		got, ok := Unmangle(in, sampleArity)
		if ok {
			t.Fatalf("Unmangle(%q) unexpectedly succeeded: %s", in, got)
		}
		if got == nil || got.Kind != types.KindNamed || got.Name != in || len(got.Args) != 0 {
			t.Fatalf("Unmangle(%q) fallback = %#v", in, got)
		}
	}
}

func TestSymbolNaming(t *testing.T) {
	stack := types.Named("Stack", types.I32)
	if got := Method("", "", stack, "push").String(); got != "Stack__I32_push" {
		t.Fatalf("method symbol = %q", got)
	}
	if got := Method("u1", "lib", stack, "push").String(); got != "u1_lib_Stack__I32_push" {
		t.Fatalf("prefixed method symbol = %q", got)
	}
	if got := Func("", "main", "identity", []*types.Type{types.Bool}).String(); got != "main_identity__Bool" {
		t.Fatalf("func symbol = %q", got)
	}
	if a, b := Builtin(types.PrimI32, "try_from", types.I64), Builtin(types.PrimI32, "try_from", types.Bool); a == b {
		t.Fatalf("builtin overloads collide: %q", a)
	}
}

func TestIdentNormalizesUnicode(t *testing.T) {
	composed := "Caf\u00e9"
	decomposed := "Cafe\u0301"
	if Mangle(types.Named(composed)) != Mangle(types.Named(decomposed)) {
		t.Fatalf("canonically equal names mangled differently")
	}
}
