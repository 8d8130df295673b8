package driver

import (
	"crypto/sha256"
	"strconv"

	"vesper/internal/codegen"
	"vesper/internal/decl"
)

// cacheKeyVersion changes whenever lowering changes the text produced for an
// unchanged unit.
const cacheKeyVersion = "vesper-ir-1"

// combineKey: H(version || unit digest || option fields). Fields are length
// prefixed so that adjacent values cannot run into each other.
func combineKey(unit decl.Digest, opts codegen.Options) Key {
	h := sha256.New()
	write := func(s string) {
		_, _ = h.Write([]byte(strconv.Itoa(len(s))))
		_, _ = h.Write([]byte{':'})
		_, _ = h.Write([]byte(s))
	}
	write(cacheKeyVersion)
	_, _ = h.Write(unit[:])
	write(opts.ModulePrefix)
	write(opts.UnitPrefix)
	write(opts.Target.Triple)
	write(strconv.FormatBool(opts.StrictInference))
	write(strconv.Itoa(opts.MaxDiagnostics))
	var out Key
	copy(out[:], h.Sum(nil))
	return out
}
