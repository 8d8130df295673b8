package ir

import (
	"strings"
	"testing"
)

func TestTypeRendering(t *testing.T) {
	tests := []struct {
		ty   Type
		want string
	}{
		{Void, "void"},
		{I32, "i32"},
		{Ptr, "ptr"},
		{Closure, "{ ptr, ptr }"},
		{Struct(I32, Array(2, I64)), "{ i32, [2 x i64] }"},
		{Named("Stack__I32"), "%Stack__I32"},
	}
	for _, tt := range tests {
		if got := tt.ty.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	if !Struct(Ptr, Ptr).Equal(Closure) {
		t.Fatalf("structurally equal types must compare equal")
	}
}

func TestFuncHoistsAllocas(t *testing.T) {
	f := NewFunc("add1", I32, []Param{{Name: "x", Ty: I32}})
	sum := f.Bin("add", f.Param(0), ConstInt(I32, 1))
	slot := f.Alloca(I32)
	f.Store(sum, slot)
	f.Return(f.Load(I32, slot))
	out := f.String()
	entry := strings.Index(out, "entry:")
	alloca := strings.Index(out, "alloca i32")
	add := strings.Index(out, "add i32 %x, 1")
	if entry < 0 || alloca < 0 || add < 0 || !(entry < alloca && alloca < add) {
		t.Fatalf("unexpected layout:\n%s", out)
	}
	if !strings.Contains(out, "define i32 @add1(i32 %x)") {
		t.Fatalf("bad header:\n%s", out)
	}
}

func TestModuleDedup(t *testing.T) {
	m := NewModule("x86_64-unknown-linux-gnu")
	if !m.DefineType("Maybe__I32", Struct(I32, I32)) || m.DefineType("Maybe__I32", Struct(I32)) {
		t.Fatalf("type definitions must be deduplicated")
	}
	a := m.StringConst("hi")
	b := m.StringConst("hi")
	if a.Ref != b.Ref {
		t.Fatalf("string constants must be deduplicated")
	}
	m.Declare("malloc", Ptr, I64)
	m.Declare("malloc", Ptr, I64)
	if !m.AddFunc(NewFunc("f", Void, nil)) || m.AddFunc(NewFunc("f", Void, nil)) {
		t.Fatalf("functions must be unique by name")
	}
	text := m.Text()
	if strings.Count(text, "declare ptr @malloc(i64)") != 1 {
		t.Fatalf("declaration duplicated:\n%s", text)
	}
	if strings.Count(text, "define void @f()") != 1 {
		t.Fatalf("function duplicated:\n%s", text)
	}
	if !strings.Contains(text, `c"hi\00"`) {
		t.Fatalf("string constant missing:\n%s", text)
	}
}
