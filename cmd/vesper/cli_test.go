package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vesper/internal/ast"
	"vesper/internal/codegen"
	"vesper/internal/decl"
	"vesper/internal/driver"
	"vesper/internal/types"
)

func TestLayoutRows(t *testing.T) {
	u := &decl.Unit{Name: "main", Decls: decl.Decls{
		Structs: []*decl.StructDecl{
			{Name: "Point", Fields: []decl.FieldDecl{{Name: "x", Type: types.I32}, {Name: "y", Type: types.I32}}},
			{Name: "Loop", Fields: []decl.FieldDecl{{Name: "next", Type: types.Named("Loop")}}},
		},
		Enums: []*decl.EnumDecl{{Name: "Shape", Variants: []decl.VariantDecl{
			{Name: "Dot"},
			{Name: "At", Fields: []*types.Type{types.Named("Point")}},
		}}},
	}}
	s := codegen.NewSession(u, codegen.Options{})
	ts := append(unitTypes(u), types.Named("Option", types.I64))
	rows := layoutRows(s.Layout(), s.Registry(), ts)

	byType := make(map[string]layoutRow, len(rows))
	for _, r := range rows {
		byType[r.Type] = r
	}
	if r := byType["Point"]; r.Kind != "struct" || r.Size != 8 || r.Align != 4 {
		t.Fatalf("Point = %+v", r)
	}
	if r := byType["Shape"]; r.Kind != "enum" || r.Payload != "inline-64" || r.Size != 12 {
		t.Fatalf("Shape = %+v", r)
	}
	if r := byType["Loop"]; r.Error == "" {
		t.Fatalf("recursive struct must report an error: %+v", r)
	}
	if r := byType["Option<I64>"]; r.Payload != "inline-64" || r.Symbol != "Option__I64" {
		t.Fatalf("Option<I64> = %+v", r)
	}

	var buf bytes.Buffer
	renderLayoutTable(&buf, rows)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(rows)+1 || !strings.HasPrefix(lines[0], "TYPE") {
		t.Fatalf("table:\n%s", buf.String())
	}
	col := strings.Index(lines[0], "KIND")
	for _, l := range lines[1:] {
		if len(l) <= col || l[col-1] != ' ' {
			t.Fatalf("misaligned row %q", l)
		}
	}
}

func TestWriteIRDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	results := []driver.Result{
		{Path: "a/one.vu", Unit: "one", IR: "; one\n"},
		{Path: "two.vu", Unit: "two", IR: "; two\n"},
		{Path: "bad.vu", Unit: "bad", Err: os.ErrNotExist},
	}
	if err := writeIR(nil, dir, results); err != nil {
		t.Fatalf("writeIR: %v", err)
	}
	for name, want := range map[string]string{"one.ll": "; one\n", "two.ll": "; two\n"} {
		got, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil || string(got) != want {
			t.Fatalf("%s = %q, %v", name, got, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "bad.ll")); err == nil {
		t.Fatalf("failed units must not be written")
	}

	var stdout bytes.Buffer
	if err := writeIR(&stdout, "-", results); err != nil {
		t.Fatalf("writeIR: %v", err)
	}
	if stdout.String() != "; one\n; two\n" {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestEmitCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	u := &decl.Unit{Name: "demo", Decls: decl.Decls{Funcs: []*decl.FuncDecl{
		{Name: "main", Body: ast.Block(nil, ast.Let("x", nil, ast.Int(1)))},
	}}}
	unitPath := filepath.Join(dir, "demo.vu")
	if err := decl.WriteFile(unitPath, u); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	out := filepath.Join(dir, "demo.ll")
	config := filepath.Join(dir, "vesper.toml")
	if err := os.WriteFile(config, []byte("[codegen]\nmodule_prefix = \"demo\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stderr bytes.Buffer
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"emit", "--config", config, "--progress", "off", "-o", out, unitPath})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("emit: %v\n%s", err, stderr.String())
	}
	ir, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(ir), "define void @main()") {
		t.Fatalf("emitted IR:\n%s", ir)
	}
}

func TestVersionJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := renderVersionJSON(&buf, versionInfo{Version: "1.2.3"}, true); err != nil {
		t.Fatalf("renderVersionJSON: %v", err)
	}
	var payload versionPayload
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload.Tool != "vesper" || payload.Version != "1.2.3" || payload.GitCommit != "unknown" {
		t.Fatalf("payload = %+v", payload)
	}
}
