package decl

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"vesper/internal/source"
)

// unitSchemaVersion is bumped whenever the encoded Unit shape changes.
const unitSchemaVersion uint16 = 1

// File names a source file referenced by spans.
type File struct {
	ID   source.FileID `msgpack:"id"`
	Path string        `msgpack:"p"`
}

// Module is an imported module: its qualified path, declarations and source
// text (kept for diagnostics of instantiated library bodies).
type Module struct {
	Path   string `msgpack:"path"`
	Decls  Decls  `msgpack:"d"`
	Source string `msgpack:"src,omitempty"`
}

// Unit is one translation unit as handed over by the checker.
type Unit struct {
	Schema  uint16    `msgpack:"schema"`
	Name    string    `msgpack:"name"`
	Files   []File    `msgpack:"files,omitempty"`
	Decls   Decls     `msgpack:"d"`
	Imports []*Module `msgpack:"imports,omitempty"`
}

// FilePaths maps file IDs to paths for diagnostic rendering.
func (u *Unit) FilePaths() map[source.FileID]string {
	out := make(map[source.FileID]string, len(u.Files))
	for _, f := range u.Files {
		out[f.ID] = f.Path
	}
	return out
}

// Encode serializes the unit with msgpack.
func (u *Unit) Encode() ([]byte, error) {
	if u.Schema == 0 {
		u.Schema = unitSchemaVersion
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(u); err != nil {
		return nil, fmt.Errorf("encode unit %q: %w", u.Name, err)
	}
	return buf.Bytes(), nil
}

// Decode parses a msgpack-encoded unit.
func Decode(data []byte) (*Unit, error) {
	var u Unit
	if err := msgpack.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("decode unit: %w", err)
	}
	if u.Schema != unitSchemaVersion {
		return nil, fmt.Errorf("decode unit %q: schema %d, want %d", u.Name, u.Schema, unitSchemaVersion)
	}
	return &u, nil
}

// ReadFile loads a `.vu` unit file.
func ReadFile(path string) (*Unit, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	u, err := Decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return u, data, nil
}

// WriteFile stores u at path.
func WriteFile(path string, u *Unit) error {
	data, err := u.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Digest is a content hash of an encoded unit.
type Digest [32]byte

// Hash returns the digest of an encoded unit.
func Hash(encoded []byte) Digest {
	return sha256.Sum256(encoded)
}
