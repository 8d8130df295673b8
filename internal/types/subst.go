package types

import (
	"slices"
	"strings"
)

// Subst maps generic parameter names to concrete types.
// A generic parameter is written as a Named type without arguments.
type Subst map[string]*Type

// NewSubst zips parameter names with arguments; missing arguments are skipped.
func NewSubst(params []string, args []*Type) Subst {
	if len(params) == 0 {
		return nil
	}
	s := make(Subst, len(params))
	for i, p := range params {
		if i < len(args) && args[i] != nil {
			s[p] = args[i]
		}
	}
	return s
}

// With returns a copy of s extended by other; entries of other win.
func (s Subst) With(other Subst) Subst {
	if len(other) == 0 {
		return s
	}
	out := make(Subst, len(s)+len(other))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Args returns the substituted argument list for params, in order.
func (s Subst) Args(params []string) []*Type {
	out := make([]*Type, len(params))
	for i, p := range params {
		out[i] = s[p]
	}
	return out
}

// Complete reports whether every parameter is bound.
func (s Subst) Complete(params []string) bool {
	for _, p := range params {
		if s[p] == nil {
			return false
		}
	}
	return true
}

// Key renders the substitution deterministically, used in trace output.
func (s Subst) Key() string {
	if len(s) == 0 {
		return ""
	}
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(s[k].String())
	}
	return b.String()
}

// Apply substitutes generic parameters inside t. Unchanged subtrees are shared.
func (s Subst) Apply(t *Type) *Type {
	if t == nil || len(s) == 0 {
		return t
	}
	switch t.Kind {
	case KindNamed:
		if len(t.Args) == 0 {
			if repl, ok := s[t.Name]; ok && repl != nil {
				return repl
			}
			return t
		}
		args, changed := s.applyList(t.Args)
		if !changed {
			return t
		}
		return &Type{Kind: KindNamed, Name: t.Name, Args: args}
	case KindClass:
		args, changed := s.applyList(t.Args)
		if !changed {
			return t
		}
		return &Type{Kind: KindClass, Name: t.Name, Args: args}
	case KindPointer, KindReference, KindArray, KindSlice:
		elem := s.Apply(t.Elem)
		if elem == t.Elem {
			return t
		}
		clone := *t
		clone.Elem = elem
		return &clone
	case KindTuple:
		args, changed := s.applyList(t.Args)
		if !changed {
			return t
		}
		return &Type{Kind: KindTuple, Args: args}
	case KindFunction:
		params, changed := s.applyList(t.Args)
		ret := s.Apply(t.Ret)
		if !changed && ret == t.Ret {
			return t
		}
		return &Type{Kind: KindFunction, Thin: t.Thin, Args: params, Ret: ret}
	default:
		return t
	}
}

func (s Subst) applyList(list []*Type) ([]*Type, bool) {
	out := make([]*Type, len(list))
	changed := false
	for i, a := range list {
		out[i] = s.Apply(a)
		changed = changed || out[i] != a
	}
	return out, changed
}

// Unify matches pattern (which may mention params) against a concrete type and
// records bindings into out. Existing bindings are never overwritten.
func Unify(pattern, actual *Type, params []string, out Subst) {
	if pattern == nil || actual == nil || out == nil {
		return
	}
	if pattern.Kind == KindNamed && len(pattern.Args) == 0 && slices.Contains(params, pattern.Name) {
		if _, bound := out[pattern.Name]; !bound {
			out[pattern.Name] = actual
		}
		return
	}
	// auto-borrow: a T parameter may receive &T and vice versa
	if pattern.Kind == KindReference && actual.Kind != KindReference {
		Unify(pattern.Elem, actual, params, out)
		return
	}
	if pattern.Kind != actual.Kind {
		return
	}
	switch pattern.Kind {
	case KindNamed, KindClass:
		if pattern.Name != actual.Name || len(pattern.Args) != len(actual.Args) {
			return
		}
		for i := range pattern.Args {
			Unify(pattern.Args[i], actual.Args[i], params, out)
		}
	case KindPointer, KindReference, KindArray, KindSlice:
		Unify(pattern.Elem, actual.Elem, params, out)
	case KindTuple:
		for i := range pattern.Args {
			if i < len(actual.Args) {
				Unify(pattern.Args[i], actual.Args[i], params, out)
			}
		}
	case KindFunction:
		for i := range pattern.Args {
			if i < len(actual.Args) {
				Unify(pattern.Args[i], actual.Args[i], params, out)
			}
		}
		Unify(pattern.Ret, actual.Ret, params, out)
	}
}

// Mentions reports whether t still refers to any of params.
func Mentions(t *Type, params []string) bool {
	if t == nil || len(params) == 0 {
		return false
	}
	switch t.Kind {
	case KindNamed:
		if len(t.Args) == 0 {
			return slices.Contains(params, t.Name)
		}
		return slices.ContainsFunc(t.Args, func(a *Type) bool { return Mentions(a, params) })
	case KindClass, KindTuple:
		return slices.ContainsFunc(t.Args, func(a *Type) bool { return Mentions(a, params) })
	case KindPointer, KindReference, KindArray, KindSlice:
		return Mentions(t.Elem, params)
	case KindFunction:
		return Mentions(t.Ret, params) || slices.ContainsFunc(t.Args, func(a *Type) bool { return Mentions(a, params) })
	}
	return false
}
