package mangle

import (
	"strconv"
	"strings"

	"vesper/internal/types"
)

// ArityFunc reports the number of generic parameters declared for name.
// ok=false means the name is unknown to the caller.
type ArityFunc func(name string) (n int, ok bool)

// Unmangle reconstructs a type from its mangled form. This is the single
// best-effort boundary of the package: when the text cannot be decoded
// completely, the whole input degrades to an opaque named type without
// arguments and ok is false. The returned type is never nil.
//
// Without an arity oracle, an unknown leading name takes every remaining
// token as one argument each, which is exact for one level of nesting.
func Unmangle(s string, arity ArityFunc) (*types.Type, bool) {
	if s == "" {
		return types.Named(s), false
	}
	p := &unmangler{toks: strings.Split(s, Sep), arity: arity}
	t, ok := p.parse(true)
	if !ok || p.pos != len(p.toks) {
		return types.Named(s), false
	}
	return t, true
}

type unmangler struct {
	toks  []string
	pos   int
	arity ArityFunc
}

func (p *unmangler) next() (string, bool) {
	if p.pos >= len(p.toks) {
		return "", false
	}
	tok := p.toks[p.pos]
	p.pos++
	return tok, tok != ""
}

func (p *unmangler) parse(top bool) (*types.Type, bool) {
	tok, ok := p.next()
	if !ok {
		return nil, false
	}
	if prim, ok := types.ParsePrim(tok); ok {
		return types.Primitive(prim), true
	}
	switch tok {
	case tokPtr, tokPtrMut, tokRef, tokRefMut, tokSlice:
		elem, ok := p.parse(false)
		if !ok {
			return nil, false
		}
		switch tok {
		case tokPtr:
			return types.PointerTo(false, elem), true
		case tokPtrMut:
			return types.PointerTo(true, elem), true
		case tokRef:
			return types.RefTo(false, elem), true
		case tokRefMut:
			return types.RefTo(true, elem), true
		default:
			return types.SliceOf(elem), true
		}
	}
	if n, ok := counted(tok, tokTuple); ok {
		elems, ok := p.parseN(n)
		if !ok {
			return nil, false
		}
		return types.TupleOf(elems...), true
	}
	if n, ok := counted(tok, tokArray); ok {
		elem, ok := p.parse(false)
		if !ok {
			return nil, false
		}
		return types.ArrayOf(elem, n), true
	}
	if n, ok := counted(tok, tokThinFn); ok {
		return p.parseFn(n, true)
	}
	if n, ok := counted(tok, tokFn); ok {
		return p.parseFn(n, false)
	}

	n, known := 0, false
	if p.arity != nil {
		n, known = p.arity(tok)
	}
	if !known && top {
		n = len(p.toks) - p.pos
	}
	args, ok := p.parseN(n)
	if !ok {
		return nil, false
	}
	return types.Named(tok, args...), true
}

func (p *unmangler) parseN(n int) ([]*types.Type, bool) {
	out := make([]*types.Type, 0, n)
	for range n {
		t, ok := p.parse(false)
		if !ok {
			return nil, false
		}
		out = append(out, t)
	}
	return out, true
}

func (p *unmangler) parseFn(n int, thin bool) (*types.Type, bool) {
	params, ok := p.parseN(n)
	if !ok {
		return nil, false
	}
	ret, ok := p.parse(false)
	if !ok {
		return nil, false
	}
	if ret.IsPrim(types.PrimUnit) {
		ret = nil
	}
	if thin {
		return types.ThinFuncOf(params, ret), true
	}
	return types.FuncOf(params, ret), true
}

// counted matches tokens like "Tup2" and returns the trailing count.
func counted(tok, prefix string) (int, bool) {
	rest, ok := strings.CutPrefix(tok, prefix)
	if !ok || rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}
