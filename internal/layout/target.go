package layout

// Target describes the ABI target triple and its pointer properties.
//
// Only 64-bit targets are modelled; enum payload words are always i64.
type Target struct {
	Triple   string // e.g. "x86_64-unknown-linux-gnu"
	PtrSize  int    // bytes
	PtrAlign int    // bytes
}

// DefaultTriple is used when the configuration does not name one.
const DefaultTriple = "x86_64-unknown-linux-gnu"

func X86_64LinuxGNU() Target {
	return Target{
		Triple:   DefaultTriple,
		PtrSize:  8,
		PtrAlign: 8,
	}
}

// ForTriple returns the pointer properties of a 64-bit triple.
func ForTriple(triple string) Target {
	t := X86_64LinuxGNU()
	if triple != "" {
		t.Triple = triple
	}
	return t
}
