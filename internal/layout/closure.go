package layout

import (
	"vesper/internal/ir"
)

// EnvLayout is the flat record of a closure environment: one pointer slot per
// captured name, in capture order.
type EnvLayout struct {
	Names []string
	index map[string]int
}

// ClosureEnv builds the environment layout for the given capture order.
// Duplicate names keep their first slot.
func ClosureEnv(names []string) EnvLayout {
	l := EnvLayout{index: make(map[string]int, len(names))}
	for _, n := range names {
		if _, ok := l.index[n]; ok {
			continue
		}
		l.index[n] = len(l.Names)
		l.Names = append(l.Names, n)
	}
	return l
}

// Empty reports whether the closure captures nothing.
func (l EnvLayout) Empty() bool { return len(l.Names) == 0 }

// Slot returns the field index of a captured name.
func (l EnvLayout) Slot(name string) (int, bool) {
	i, ok := l.index[name]
	return i, ok
}

// Size is the allocation size in bytes for the target.
func (l EnvLayout) Size(target Target) int {
	ptr := target.PtrSize
	if ptr <= 0 {
		ptr = 8
	}
	return ptr * len(l.Names)
}

// IRType is { ptr, ptr, ... }.
func (l EnvLayout) IRType() ir.Type {
	fields := make([]ir.Type, len(l.Names))
	for i := range fields {
		fields[i] = ir.Ptr
	}
	return ir.Struct(fields...)
}
