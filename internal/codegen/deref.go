package codegen

import (
	"vesper/internal/decl"
	"vesper/internal/diag"
	"vesper/internal/ir"
	"vesper/internal/source"
	"vesper/internal/types"
)

// SmartPointerShape is the closed set of wrappers that expose the value they
// hold to field and method access.
type SmartPointerShape uint8

const (
	ShapeNone SmartPointerShape = iota
	// ShapeOwning is Box<T>: { ptr: *mut T }.
	ShapeOwning
	// ShapeRefCounted is Rc<T> and Arc<T>: { block: *mut RcBox<T> } with the
	// value in RcBox.data.
	ShapeRefCounted
	// ShapeMutexGuard is MutexGuard<T>: { mutex: *mut Mutex<T> }.
	ShapeMutexGuard
	ShapeRwLockReadGuard
	ShapeRwLockWriteGuard
)

func (s SmartPointerShape) String() string {
	switch s {
	case ShapeOwning:
		return "owning"
	case ShapeRefCounted:
		return "ref-counted"
	case ShapeMutexGuard:
		return "mutex-guard"
	case ShapeRwLockReadGuard:
		return "rwlock-read-guard"
	case ShapeRwLockWriteGuard:
		return "rwlock-write-guard"
	default:
		return "none"
	}
}

// maxDerefDepth bounds wrapper chains such as Rc<MutexGuard<Box<T>>>.
const maxDerefDepth = 8

// ShapeOf classifies t. Only the prelude wrappers with exactly one type
// argument qualify.
func ShapeOf(t *types.Type) SmartPointerShape {
	if t == nil || t.Kind != types.KindNamed || len(t.Args) != 1 {
		return ShapeNone
	}
	switch t.Name {
	case decl.BoxName:
		return ShapeOwning
	case decl.RcName, decl.ArcName:
		return ShapeRefCounted
	case decl.MutexGuardName:
		return ShapeMutexGuard
	case decl.RwLockReadGuardName:
		return ShapeRwLockReadGuard
	case decl.RwLockWriteGuardName:
		return ShapeRwLockWriteGuard
	default:
		return ShapeNone
	}
}

// DerefTarget reports the type a wrapper exposes.
func DerefTarget(t *types.Type) (*types.Type, bool) {
	if ShapeOf(t) == ShapeNone {
		return nil, false
	}
	return t.Args[0], true
}

// fieldPath is the indirection chain of a shape: load the pointer stored in
// field outer of the wrapper; when holder is set, the value is field inner
// of the pointed-to holder record, otherwise the pointer addresses it.
type fieldPath struct {
	outer string
	inner string
}

func (s SmartPointerShape) path() fieldPath {
	switch s {
	case ShapeOwning:
		return fieldPath{outer: "ptr"}
	case ShapeRefCounted:
		return fieldPath{outer: "block", inner: "data"}
	case ShapeMutexGuard:
		return fieldPath{outer: "mutex", inner: "data"}
	case ShapeRwLockReadGuard, ShapeRwLockWriteGuard:
		return fieldPath{outer: "lock", inner: "data"}
	case ShapeNone:
		return fieldPath{}
	}
	panic("codegen: unhandled smart pointer shape " + s.String())
}

// resolveFieldPath walks the chain of the wrapper t stored at base and
// returns the address of the wrapped value.
func (fe *funcEmitter) resolveFieldPath(shape SmartPointerShape, t *types.Type, base ir.Value, sp source.Span) ir.Value {
	path := shape.path()
	reg := fe.s.reg
	idx, outerT, ok := reg.Field(t, path.outer)
	if !ok {
		fe.s.errorf(diag.CodegenUnknownField, sp, "%s has no field %q", t, path.outer)
		return base
	}
	slot := fe.fn.FieldPtr(fe.lowerType(t, sp), base, idx)
	ptr := fe.fn.Load(ir.Ptr, slot)
	if path.inner == "" {
		return ptr
	}
	holder, _ := outerT.Deref()
	hidx, _, ok := reg.Field(holder, path.inner)
	if !ok {
		fe.s.errorf(diag.CodegenUnknownField, sp, "%s has no field %q", holder, path.inner)
		return ptr
	}
	return fe.fn.FieldPtr(fe.lowerType(holder, sp), ptr, hidx)
}
