package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Param is a function parameter.
type Param struct {
	Name string
	Ty   Type
}

// Func accumulates the body of one function definition. Instructions are
// appended in evaluation order; allocas are hoisted into the entry block.
type Func struct {
	Name   string
	Ret    Type
	Params []Param

	allocas    strings.Builder
	body       strings.Builder
	tmp        int
	labels     int
	block      string
	terminated bool
}

// NewFunc starts a function definition.
func NewFunc(name string, ret Type, params []Param) *Func {
	return &Func{Name: name, Ret: ret, Params: params, block: "entry"}
}

// Param returns the i-th parameter as an operand.
func (f *Func) Param(i int) Value {
	p := f.Params[i]
	return Value{Ref: "%" + p.Name, Ty: p.Ty}
}

func (f *Func) nextTemp() string {
	f.tmp++
	return "%t" + strconv.Itoa(f.tmp)
}

// NewLabel reserves a unique block label with the given prefix.
func (f *Func) NewLabel(prefix string) string {
	f.labels++
	return prefix + "." + strconv.Itoa(f.labels)
}

// Block returns the label of the block currently being filled.
func (f *Func) Block() string { return f.block }

// Terminated reports whether the current block already ends in a terminator.
func (f *Func) Terminated() bool { return f.terminated }

func (f *Func) emit(format string, args ...any) {
	f.body.WriteString("  ")
	fmt.Fprintf(&f.body, format, args...)
	f.body.WriteByte('\n')
}

// Comment writes an IR comment line.
func (f *Func) Comment(text string) {
	f.emit("; %s", text)
}

// Label opens a new basic block.
func (f *Func) Label(name string) {
	fmt.Fprintf(&f.body, "%s:\n", name)
	f.block = name
	f.terminated = false
}

// Alloca reserves a stack slot in the entry block.
func (f *Func) Alloca(ty Type) Value {
	name := f.nextTemp()
	fmt.Fprintf(&f.allocas, "  %s = alloca %s\n", name, ty)
	return Value{Ref: name, Ty: Ptr}
}

// Load reads a value of type ty from ptr.
func (f *Func) Load(ty Type, ptr Value) Value {
	name := f.nextTemp()
	f.emit("%s = load %s, ptr %s", name, ty, ptr.Ref)
	return Value{Ref: name, Ty: ty}
}

// Store writes v to ptr.
func (f *Func) Store(v, ptr Value) {
	f.emit("store %s, ptr %s", v, ptr.Ref)
}

// FieldPtr addresses field idx of an aggregate of type agg stored at ptr.
func (f *Func) FieldPtr(agg Type, ptr Value, idx int) Value {
	name := f.nextTemp()
	f.emit("%s = getelementptr inbounds %s, ptr %s, i32 0, i32 %d", name, agg, ptr.Ref, idx)
	return Value{Ref: name, Ty: Ptr}
}

// ElemPtr addresses element idx of a buffer of elem values starting at ptr.
func (f *Func) ElemPtr(elem Type, ptr, idx Value) Value {
	name := f.nextTemp()
	f.emit("%s = getelementptr inbounds %s, ptr %s, %s", name, elem, ptr.Ref, idx)
	return Value{Ref: name, Ty: Ptr}
}

// Bin emits a two-operand arithmetic/bitwise instruction.
func (f *Func) Bin(op string, a, b Value) Value {
	name := f.nextTemp()
	f.emit("%s = %s %s, %s", name, op, a, b.Ref)
	return Value{Ref: name, Ty: a.Ty}
}

// ICmp emits an integer/pointer comparison.
func (f *Func) ICmp(pred string, a, b Value) Value {
	name := f.nextTemp()
	f.emit("%s = icmp %s %s, %s", name, pred, a, b.Ref)
	return Value{Ref: name, Ty: I1}
}

// FCmp emits a floating-point comparison.
func (f *Func) FCmp(pred string, a, b Value) Value {
	name := f.nextTemp()
	f.emit("%s = fcmp %s %s, %s", name, pred, a, b.Ref)
	return Value{Ref: name, Ty: I1}
}

// Cast emits a conversion such as sext/zext/trunc/sitofp.
func (f *Func) Cast(op string, v Value, to Type) Value {
	name := f.nextTemp()
	f.emit("%s = %s %s to %s", name, op, v, to)
	return Value{Ref: name, Ty: to}
}

// Select emits a conditional value choice.
func (f *Func) Select(cond, a, b Value) Value {
	name := f.nextTemp()
	f.emit("%s = select %s, %s, %s", name, cond, a, b)
	return Value{Ref: name, Ty: a.Ty}
}

// Call emits a call; for void callees the returned Value is invalid.
func (f *Func) Call(ret Type, callee string, args []Value) Value {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	if ret.IsVoid() {
		f.emit("call void %s(%s)", callee, strings.Join(parts, ", "))
		return Value{}
	}
	name := f.nextTemp()
	f.emit("%s = call %s %s(%s)", name, ret, callee, strings.Join(parts, ", "))
	return Value{Ref: name, Ty: ret}
}

// ExtractValue reads field idx out of an aggregate value.
func (f *Func) ExtractValue(agg Value, idx int, fieldTy Type) Value {
	name := f.nextTemp()
	f.emit("%s = extractvalue %s, %d", name, agg, idx)
	return Value{Ref: name, Ty: fieldTy}
}

// InsertValue writes elt into field idx of an aggregate value.
func (f *Func) InsertValue(agg, elt Value, idx int) Value {
	name := f.nextTemp()
	f.emit("%s = insertvalue %s, %s, %d", name, agg, elt, idx)
	return Value{Ref: name, Ty: agg.Ty}
}

// Incoming is one phi edge.
type Incoming struct {
	V     Value
	Block string
}

// Phi merges values flowing in from predecessor blocks.
func (f *Func) Phi(ty Type, in ...Incoming) Value {
	name := f.nextTemp()
	parts := make([]string, 0, len(in))
	for _, e := range in {
		parts = append(parts, fmt.Sprintf("[ %s, %%%s ]", e.V.Ref, e.Block))
	}
	f.emit("%s = phi %s %s", name, ty, strings.Join(parts, ", "))
	return Value{Ref: name, Ty: ty}
}

// Br emits an unconditional branch.
func (f *Func) Br(label string) {
	f.emit("br label %%%s", label)
	f.terminated = true
}

// CondBr emits a conditional branch.
func (f *Func) CondBr(cond Value, then, els string) {
	f.emit("br %s, label %%%s, label %%%s", cond, then, els)
	f.terminated = true
}

// Return returns v; an invalid v returns void.
func (f *Func) Return(v Value) {
	if !v.Valid() || f.Ret.IsVoid() {
		f.emit("ret void")
	} else {
		f.emit("ret %s", v)
	}
	f.terminated = true
}

// Unreachable terminates the current block.
func (f *Func) Unreachable() {
	f.emit("unreachable")
	f.terminated = true
}

// String renders the complete definition.
func (f *Func) String() string {
	var b strings.Builder
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = fmt.Sprintf("%s %%%s", p.Ty, p.Name)
	}
	fmt.Fprintf(&b, "define %s @%s(%s) {\n", f.Ret, f.Name, strings.Join(params, ", "))
	b.WriteString("entry:\n")
	b.WriteString(f.allocas.String())
	b.WriteString(f.body.String())
	if !f.terminated {
		if f.Ret.IsVoid() {
			b.WriteString("  ret void\n")
		} else {
			b.WriteString("  unreachable\n")
		}
	}
	b.WriteString("}\n")
	return b.String()
}
