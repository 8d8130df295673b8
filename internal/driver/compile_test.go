package driver_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vesper/internal/ast"
	"vesper/internal/codegen"
	"vesper/internal/decl"
	"vesper/internal/diag"
	"vesper/internal/driver"
	"vesper/internal/types"
)

func unit(name string, ret int64) *decl.Unit {
	return &decl.Unit{Name: name, Decls: decl.Decls{Funcs: []*decl.FuncDecl{
		{Name: "answer", Ret: types.I32, Body: ast.Block(ast.Int(ret))},
	}}}
}

func writeUnit(t *testing.T, dir string, u *decl.Unit) string {
	t.Helper()
	path := filepath.Join(dir, u.Name+".vu")
	if err := decl.WriteFile(path, u); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestCompileKeepsInputOrder(t *testing.T) {
	inputs := []driver.Input{
		{Unit: unit("a", 1)},
		{Unit: unit("b", 2)},
		{Unit: unit("c", 3)},
	}
	done := make(chan string, len(inputs))
	results, err := driver.Compile(context.Background(), inputs, driver.Options{
		Jobs:       2,
		OnUnitDone: func(r driver.Result) { done <- r.Unit },
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	close(done)
	if n := len(done); n != len(inputs) {
		t.Fatalf("OnUnitDone called %d times", n)
	}
	for i, want := range []string{"a", "b", "c"} {
		r := results[i]
		if r.Unit != want {
			t.Fatalf("results[%d].Unit = %q, want %q", i, r.Unit, want)
		}
		if r.Failed() {
			t.Fatalf("%s failed: %v %+v", want, r.Err, r.Bag.Items())
		}
		if !strings.Contains(r.IR, "define i32 @answer()") {
			t.Fatalf("%s: missing answer:\n%s", want, r.IR)
		}
	}
	if !strings.Contains(results[2].IR, "ret i32 3") {
		t.Fatalf("unit c compiled with the wrong body:\n%s", results[2].IR)
	}
}

func TestCompileFilesUsesDiskCache(t *testing.T) {
	dir := t.TempDir()
	path := writeUnit(t, dir, unit("cached", 7))
	cache, err := driver.OpenDiskCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("OpenDiskCache: %v", err)
	}
	opts := driver.Options{Cache: cache}

	first, err := driver.CompileFiles(context.Background(), []string{path}, opts)
	if err != nil {
		t.Fatalf("CompileFiles: %v", err)
	}
	if first[0].Cached {
		t.Fatalf("first compile must miss the cache")
	}
	second, err := driver.CompileFiles(context.Background(), []string{path}, opts)
	if err != nil {
		t.Fatalf("CompileFiles: %v", err)
	}
	if !second[0].Cached {
		t.Fatalf("second compile must hit the cache")
	}
	if first[0].IR != second[0].IR {
		t.Fatalf("cached IR differs")
	}

	opts.Codegen = codegen.Options{UnitPrefix: "u2"}
	third, err := driver.CompileFiles(context.Background(), []string{path}, opts)
	if err != nil {
		t.Fatalf("CompileFiles: %v", err)
	}
	if third[0].Cached {
		t.Fatalf("changed options must miss the cache")
	}
}

func TestCachedDiagnosticsSurvive(t *testing.T) {
	u := &decl.Unit{Name: "broken", Decls: decl.Decls{Funcs: []*decl.FuncDecl{
		{Name: "main", Body: ast.Block(nil, ast.Let("a", nil, ast.Ident("missing")))},
	}}}
	cache, err := driver.OpenDiskCache(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDiskCache: %v", err)
	}
	opts := driver.Options{Cache: cache}
	for round := 0; round < 2; round++ {
		results, err := driver.Compile(context.Background(), []driver.Input{{Unit: u}}, opts)
		if err != nil {
			t.Fatalf("Compile: %v", err)
		}
		r := results[0]
		if r.Cached != (round == 1) {
			t.Fatalf("round %d: Cached = %v", round, r.Cached)
		}
		if n := r.Bag.Count(diag.CodegenUnknownVariable); n != 1 {
			t.Fatalf("round %d: CG4001 count = %d", round, n)
		}
		if !r.Failed() {
			t.Fatalf("round %d: unit with errors must be reported as failed", round)
		}
	}
}

func TestCompileReportsDecodeFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.vu")
	if err := os.WriteFile(path, []byte("not a unit"), 0o644); err != nil {
		t.Fatal(err)
	}
	results, err := driver.CompileFiles(context.Background(), []string{path}, driver.Options{})
	if err != nil {
		t.Fatalf("decode failures are per unit, got %v", err)
	}
	r := results[0]
	if r.Err == nil || r.Bag.Count(diag.DriverUnitDecode) != 1 {
		t.Fatalf("expected decode failure, got err=%v diags=%+v", r.Err, r.Bag.Items())
	}
}

func TestCompileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := driver.Compile(ctx, []driver.Input{{Unit: unit("x", 1)}}, driver.Options{})
	if err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func TestTimingsAppendInfo(t *testing.T) {
	results, err := driver.Compile(context.Background(), []driver.Input{{Unit: unit("t", 1)}}, driver.Options{Timings: true})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if n := results[0].Bag.Count(diag.DriverInfo); n != 1 {
		t.Fatalf("DriverInfo count = %d", n)
	}
	if results[0].Failed() {
		t.Fatalf("info diagnostics must not fail the unit")
	}
}
