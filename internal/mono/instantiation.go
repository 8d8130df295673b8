package mono

import (
	"fmt"

	"vesper/internal/source"
	"vesper/internal/types"
)

// InstantiationKind identifies the kind of entity being instantiated.
type InstantiationKind uint8

const (
	// InstType represents a struct or enum instantiation (type definition only).
	InstType InstantiationKind = iota
	// InstImplMethod represents a method of a generic impl.
	InstImplMethod
	// InstFn represents a generic free function instantiation.
	InstFn
)

func (k InstantiationKind) String() string {
	switch k {
	case InstType:
		return "type"
	case InstImplMethod:
		return "method"
	case InstFn:
		return "fn"
	default:
		return fmt.Sprintf("InstantiationKind(%d)", k)
	}
}

// UseSite records a location where an instantiation occurs.
type UseSite struct {
	Span   source.Span
	Caller string
	Note   string
}

// PendingInstantiation is one unit of monomorphization work. It is created
// the first time its Key is requested and consumed exactly once.
type PendingInstantiation struct {
	Kind InstantiationKind
	// Key is the mangled type name or the emitted symbol.
	Key string
	// Base is the generic type or function name.
	Base   string
	Method string
	Type   *types.Type
	Args   []*types.Type
	Subs   types.Subst
	// Library names the imported module the declaration came from; empty
	// for local declarations.
	Library string
	Site    UseSite
}

// IsLibrary reports whether the declaration lives in an imported module.
func (p PendingInstantiation) IsLibrary() bool { return p.Library != "" }

// InstEntry captures one instantiation and every site that asked for it.
type InstEntry struct {
	Kind     InstantiationKind
	Key      string
	TypeArgs []*types.Type
	UseSites []UseSite
}

// InstantiationMap tracks all generic instantiations of a session in
// first-request order.
type InstantiationMap struct {
	Entries map[string]*InstEntry
	order   []string
}

// NewInstantiationMap creates a new empty InstantiationMap.
func NewInstantiationMap() *InstantiationMap {
	return &InstantiationMap{Entries: make(map[string]*InstEntry)}
}

// Record registers a use of key at a specific site.
func (m *InstantiationMap) Record(kind InstantiationKind, key string, typeArgs []*types.Type, site UseSite) {
	if m == nil || key == "" {
		return
	}
	if m.Entries == nil {
		m.Entries = make(map[string]*InstEntry)
	}
	entry := m.Entries[key]
	if entry == nil {
		entry = &InstEntry{
			Kind:     kind,
			Key:      key,
			TypeArgs: typeArgs,
		}
		m.Entries[key] = entry
		m.order = append(m.order, key)
	}

	if site != (UseSite{}) {
		for _, existing := range entry.UseSites {
			if existing == site {
				return
			}
		}
		entry.UseSites = append(entry.UseSites, site)
	}
}

// Ordered returns entries in first-request order.
func (m *InstantiationMap) Ordered() []*InstEntry {
	if m == nil {
		return nil
	}
	out := make([]*InstEntry, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.Entries[k])
	}
	return out
}
