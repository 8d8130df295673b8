package driver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"vesper/internal/diag"
	"vesper/internal/source"
)

// Current schema version - increment when CachePayload format changes
const cacheSchemaVersion uint16 = 1

// Key identifies a cached compilation: unit content plus the options that
// influence the emitted text.
type Key [32]byte

func (k Key) String() string { return hex.EncodeToString(k[:]) }

// DiskCache stores emitted IR per Key on disk.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// CachePayload is one cached unit result.
type CachePayload struct {
	Schema uint16       `msgpack:"schema"`
	Unit   string       `msgpack:"unit"`
	IR     string       `msgpack:"ir"`
	Diags  []cachedDiag `msgpack:"diags,omitempty"`
	// Failed units are cached too so that a broken unit is not recompiled
	// until its content or options change.
	Failed bool `msgpack:"failed,omitempty"`
}

type cachedNote struct {
	Span source.Span `msgpack:"s"`
	Msg  string      `msgpack:"m"`
}

// cachedDiag keeps Code and Severity as raw integers: their text forms are
// for humans and do not round-trip.
type cachedDiag struct {
	Severity uint8        `msgpack:"sev"`
	Code     uint16       `msgpack:"code"`
	Message  string       `msgpack:"msg"`
	Primary  source.Span  `msgpack:"at"`
	Notes    []cachedNote `msgpack:"notes,omitempty"`
}

// OpenDiskCache creates dir if needed and returns a cache rooted there.
func OpenDiskCache(dir string) (*DiskCache, error) {
	if dir == "" {
		return nil, errors.New("cache directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir is the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key Key) string {
	return filepath.Join(c.dir, "units", key.String()+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key Key, payload *CachePayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	payload.Schema = cacheSchemaVersion
	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// atomic replace
	return os.Rename(tmp, p)
}

// Get reads and deserializes a payload. Entries written by another schema
// are treated as misses.
func (c *DiskCache) Get(key Key, out *CachePayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("cache entry %s: %w", key, err)
	}
	if out.Schema != cacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

func packDiags(bag *diag.Bag) []cachedDiag {
	if bag == nil || bag.Len() == 0 {
		return nil
	}
	out := make([]cachedDiag, 0, bag.Len())
	for _, d := range bag.Items() {
		cd := cachedDiag{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			Primary:  d.Primary,
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, cachedNote{Span: n.Span, Msg: n.Msg})
		}
		out = append(out, cd)
	}
	return out
}

func unpackDiags(ds []cachedDiag, limit int) *diag.Bag {
	bag := diag.NewBag(limit)
	for _, cd := range ds {
		d := diag.New(diag.Severity(cd.Severity), diag.Code(cd.Code), cd.Primary, cd.Message)
		for _, n := range cd.Notes {
			d = d.WithNote(n.Span, n.Msg)
		}
		bag.Add(d)
	}
	return bag
}
