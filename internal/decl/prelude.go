package decl

import "vesper/internal/types"

// Names of prelude declarations the code generator gives special meaning.
const (
	OptionName           = "Option"
	ResultName           = "Result"
	BoxName              = "Box"
	RcName               = "Rc"
	ArcName              = "Arc"
	RcBoxName            = "RcBox"
	MutexName            = "Mutex"
	MutexGuardName       = "MutexGuard"
	RwLockName           = "RwLock"
	RwLockReadGuardName  = "RwLockReadGuard"
	RwLockWriteGuardName = "RwLockWriteGuard"
)

func param(name string) *types.Type { return types.Named(name) }

// Prelude returns the always-visible declarations: Option, Result and the
// smart pointer and lock wrappers with their fixed field layouts.
func Prelude() *Decls {
	T := param("T")
	E := param("E")
	ptrTo := func(t *types.Type) *types.Type { return types.PointerTo(true, t) }
	handle := ptrTo(types.U8)
	return &Decls{
		Enums: []*EnumDecl{
			{Name: OptionName, Generics: []string{"T"}, Variants: []VariantDecl{
				{Name: "None"},
				{Name: "Some", Fields: []*types.Type{T}},
			}},
			{Name: ResultName, Generics: []string{"T", "E"}, Variants: []VariantDecl{
				{Name: "Ok", Fields: []*types.Type{T}},
				{Name: "Err", Fields: []*types.Type{E}},
			}},
		},
		Structs: []*StructDecl{
			{Name: BoxName, Generics: []string{"T"}, Fields: []FieldDecl{{Name: "ptr", Type: ptrTo(T)}}},
			{Name: RcName, Generics: []string{"T"}, Fields: []FieldDecl{{Name: "block", Type: ptrTo(types.Named(RcBoxName, T))}}},
			{Name: ArcName, Generics: []string{"T"}, Fields: []FieldDecl{{Name: "block", Type: ptrTo(types.Named(RcBoxName, T))}}},
			{Name: RcBoxName, Generics: []string{"T"}, Fields: []FieldDecl{
				{Name: "strong", Type: types.I64},
				{Name: "weak", Type: types.I64},
				{Name: "data", Type: T},
			}},
			{Name: MutexName, Generics: []string{"T"}, Fields: []FieldDecl{
				{Name: "handle", Type: handle},
				{Name: "data", Type: T},
			}},
			{Name: MutexGuardName, Generics: []string{"T"}, Fields: []FieldDecl{{Name: "mutex", Type: ptrTo(types.Named(MutexName, T))}}},
			{Name: RwLockName, Generics: []string{"T"}, Fields: []FieldDecl{
				{Name: "handle", Type: handle},
				{Name: "data", Type: T},
			}},
			{Name: RwLockReadGuardName, Generics: []string{"T"}, Fields: []FieldDecl{{Name: "lock", Type: ptrTo(types.Named(RwLockName, T))}}},
			{Name: RwLockWriteGuardName, Generics: []string{"T"}, Fields: []FieldDecl{{Name: "lock", Type: ptrTo(types.Named(RwLockName, T))}}},
		},
	}
}

// OptionOf returns Option<t>.
func OptionOf(t *types.Type) *types.Type { return types.Named(OptionName, t) }
