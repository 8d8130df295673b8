package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), `
[codegen]
module_prefix = "app"
inference = "Strict"
max_diagnostics = 7

[cache]
enabled = false
`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfg, err := Load(nested)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Codegen.ModulePrefix != "app" || cfg.Codegen.Inference != InferenceStrict || cfg.Codegen.MaxDiagnostics != 7 {
		t.Fatalf("codegen = %+v", cfg.Codegen)
	}
	if cfg.Codegen.TargetTriple != Default().Codegen.TargetTriple {
		t.Fatalf("unset keys must keep defaults, got %q", cfg.Codegen.TargetTriple)
	}
	if cfg.Cache.Enabled {
		t.Fatalf("cache should be disabled")
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Path != "" || cfg.Codegen.Inference != InferenceWarn {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name, content, want string
	}{
		{"policy", "[codegen]\ninference = \"guess\"\n", "inference"},
		{"unknown", "[codegen]\nbogus = 1\n", "unknown keys"},
		{"syntax", "[codegen\n", "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			writeFile(t, path, tt.content)
			_, err := LoadFile(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestCacheDirHonoursXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := Default().CacheDir()
	if err != nil || dir != filepath.Join("/tmp/xdg", "vesper") {
		t.Fatalf("CacheDir = %q, %v", dir, err)
	}
}
