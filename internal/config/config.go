// Package config loads vesper.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the project configuration file looked up from the working
// directory upwards.
const FileName = "vesper.toml"

// Inference policies for generic arguments that fall back to a placeholder.
const (
	InferenceWarn   = "warn"
	InferenceStrict = "strict"
)

// Config mirrors vesper.toml.
type Config struct {
	Codegen CodegenConfig `toml:"codegen"`
	Trace   TraceConfig   `toml:"trace"`
	Cache   CacheConfig   `toml:"cache"`

	// Path of the file the values were read from; empty for defaults.
	Path string `toml:"-"`
}

type CodegenConfig struct {
	ModulePrefix   string `toml:"module_prefix"`
	UnitPrefix     string `toml:"unit_prefix"`
	TargetTriple   string `toml:"target_triple"`
	Inference      string `toml:"inference"`
	MaxDiagnostics int    `toml:"max_diagnostics"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Codegen: CodegenConfig{
			ModulePrefix:   "main",
			TargetTriple:   "x86_64-unknown-linux-gnu",
			Inference:      InferenceWarn,
			MaxDiagnostics: 100,
		},
		Trace: TraceConfig{Level: "off", Output: "-"},
		Cache: CacheConfig{Enabled: true},
	}
}

// Find walks up from startDir to locate vesper.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load finds and decodes vesper.toml starting at startDir. Missing files
// yield Default().
func Load(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile decodes path over the defaults and validates the result.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("codegen", "inference") {
		cfg.Codegen.Inference = strings.ToLower(strings.TrimSpace(cfg.Codegen.Inference))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated values.
func (c Config) Validate() error {
	switch c.Codegen.Inference {
	case InferenceWarn, InferenceStrict:
	default:
		return fmt.Errorf("[codegen].inference must be %q or %q, got %q", InferenceWarn, InferenceStrict, c.Codegen.Inference)
	}
	if c.Codegen.MaxDiagnostics < 0 {
		return fmt.Errorf("[codegen].max_diagnostics must not be negative")
	}
	return nil
}

// CacheDir resolves the cache directory, defaulting to $XDG_CACHE_HOME/vesper.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "vesper"), nil
}
