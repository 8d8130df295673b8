package driver

import (
	"os"
	"path/filepath"
	"testing"

	"vesper/internal/codegen"
	"vesper/internal/decl"
	"vesper/internal/diag"
	"vesper/internal/source"
)

func TestDiskCacheRoundTrip(t *testing.T) {
	c, err := OpenDiskCache(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDiskCache: %v", err)
	}
	var key Key
	key[0] = 1

	var miss CachePayload
	if ok, err := c.Get(key, &miss); ok || err != nil {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.CodegenUseAfterMove, source.Span{File: 1, Start: 4, End: 9}, "use of moved value").
		WithNote(source.Span{File: 1, Start: 0, End: 2}, "value moved here"))
	in := &CachePayload{Unit: "u", IR: "define void @main() {\n}\n", Diags: packDiags(bag), Failed: true}
	if err := c.Put(key, in); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var out CachePayload
	ok, err := c.Get(key, &out)
	if !ok || err != nil {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if out.IR != in.IR || !out.Failed || out.Unit != "u" {
		t.Fatalf("payload mismatch: %+v", out)
	}
	got := unpackDiags(out.Diags, 10).Items()
	if len(got) != 1 {
		t.Fatalf("diags = %+v", got)
	}
	d := got[0]
	if d.Code != diag.CodegenUseAfterMove || d.Severity != diag.SevError || d.Primary.Start != 4 {
		t.Fatalf("diagnostic mismatch: %+v", d)
	}
	if len(d.Notes) != 1 || d.Notes[0].Msg != "value moved here" {
		t.Fatalf("notes mismatch: %+v", d.Notes)
	}

	entries, err := os.ReadDir(filepath.Join(c.Dir(), "units"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}

	if err := c.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if ok, _ := c.Get(key, &out); ok {
		t.Fatalf("DropAll must invalidate entries")
	}
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *DiskCache
	if err := c.Put(Key{}, &CachePayload{}); err != nil {
		t.Fatalf("Put on nil cache: %v", err)
	}
	var out CachePayload
	if ok, err := c.Get(Key{}, &out); ok || err != nil {
		t.Fatalf("Get on nil cache: ok=%v err=%v", ok, err)
	}
}

func TestCombineKeyDependsOnOptions(t *testing.T) {
	var d decl.Digest
	base := combineKey(d, codegen.Options{})
	tests := []codegen.Options{
		{ModulePrefix: "m"},
		{UnitPrefix: "u"},
		{StrictInference: true},
		{MaxDiagnostics: 5},
	}
	for _, o := range tests {
		if combineKey(d, o) == base {
			t.Fatalf("options %+v do not change the key", o)
		}
	}
	if combineKey(d, codegen.Options{ModulePrefix: "ab"}) == combineKey(d, codegen.Options{ModulePrefix: "a", UnitPrefix: "b"}) {
		t.Fatalf("adjacent fields must not collide")
	}
	d[0] = 1
	if combineKey(d, codegen.Options{}) == base {
		t.Fatalf("unit digest does not change the key")
	}
}
