package mono

import (
	"context"
	"errors"
	"strings"
	"testing"

	"vesper/internal/source"
	"vesper/internal/types"
)

type fakeDecls map[string]string // "Type.method" -> library

func (f fakeDecls) ImplMethodLibrary(typeName, method string) (string, bool) {
	lib, ok := f[typeName+"."+method]
	return lib, ok
}

func site(n uint32) UseSite {
	return UseSite{Span: source.Span{Start: n, End: n + 1}, Caller: "main"}
}

func TestImplMethodRequestedTwiceQueuesOnce(t *testing.T) {
	s := NewScheduler(fakeDecls{"Stack.push": ""}, Options{})
	stack := types.Named("Stack", types.I32)
	subs := types.Subst{"T": types.I32}

	first, ok := s.RequestImplMethod(stack, "push", nil, subs, site(1))
	if !ok || first != "Stack__I32_push" {
		t.Fatalf("first request = %q, %v", first, ok)
	}
	second, ok := s.RequestImplMethod(types.Named("Stack", types.I32), "push", nil, subs, site(2))
	if !ok || second != first {
		t.Fatalf("second request = %q, %v", second, ok)
	}
	if s.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", s.Pending())
	}
	if uses := len(s.Map.Entries[first].UseSites); uses != 2 {
		t.Fatalf("use sites = %d, want 2", uses)
	}
}

func TestMissingImplMethodIsNotAnError(t *testing.T) {
	s := NewScheduler(fakeDecls{}, Options{})
	if sym, ok := s.RequestImplMethod(types.Named("Stack", types.I32), "pop", nil, nil, UseSite{}); ok || sym != "" {
		t.Fatalf("expected no result, got %q", sym)
	}
	if s.Pending() != 0 {
		t.Fatalf("nothing should be queued")
	}
}

func TestLibraryMethodsArePrefixed(t *testing.T) {
	s := NewScheduler(fakeDecls{"Vec.len": "collections"}, Options{Unit: "u1"})
	sym, ok := s.RequestImplMethod(types.Named("Vec", types.Str), "len", nil, nil, UseSite{})
	if !ok || sym != "u1_collections_Vec__Str_len" {
		t.Fatalf("symbol = %q", sym)
	}
	p, _ := s.Next()
	if !p.IsLibrary() || p.Library != "collections" {
		t.Fatalf("pending record lost library: %+v", p)
	}
}

func TestSelfReferentialTypeDoesNotRecurse(t *testing.T) {
	s := NewScheduler(nil, Options{})
	node := []*types.Type{types.I32}
	var emitted []string
	err := s.Drain(context.Background(), func(PendingInstantiation) error { return nil })
	if err != nil {
		t.Fatalf("Drain on empty queue: %v", err)
	}

	s.RequestInstantiation("Node", node, UseSite{})
	err = s.Drain(context.Background(), func(p PendingInstantiation) error {
		emitted = append(emitted, p.Key)
		// Laying out Node<I32> asks for Node<I32> again and for Maybe<Node<I32>>.
		if again := s.RequestInstantiation("Node", node, UseSite{}); again != p.Key && p.Base == "Node" {
			t.Fatalf("re-entrant request returned %q", again)
		}
		if p.Base == "Node" {
			s.RequestInstantiation("Maybe", []*types.Type{types.Named("Node", node...)}, UseSite{})
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	want := []string{"Node__I32", "Maybe__Node__I32"}
	if strings.Join(emitted, ",") != strings.Join(want, ",") {
		t.Fatalf("emitted %v, want %v", emitted, want)
	}
}

func TestAtMostOneRecordPerKey(t *testing.T) {
	s := NewScheduler(nil, Options{Prefix: "main"})
	for i := 0; i < 5; i++ {
		s.RequestFunc("identity", []*types.Type{types.Bool}, types.Subst{"T": types.Bool}, "", UseSite{})
		s.RequestFunc("identity", []*types.Type{types.I32}, types.Subst{"T": types.I32}, "", UseSite{})
		s.RequestInstantiation("Pair", []*types.Type{types.I32, types.Str}, UseSite{})
	}
	seen := map[string]int{}
	for {
		p, ok := s.Next()
		if !ok {
			break
		}
		seen[p.Key]++
	}
	if len(seen) != 3 {
		t.Fatalf("records = %v", seen)
	}
	for k, n := range seen {
		if n != 1 {
			t.Fatalf("%s queued %d times", k, n)
		}
	}
	if !s.Generated(InstFn, "main_identity__Bool") {
		t.Fatalf("generated set lost main_identity__Bool")
	}
}

func TestMarkGeneratedSuppressesQueue(t *testing.T) {
	s := NewScheduler(nil, Options{})
	s.MarkGenerated(InstType, "Maybe__I32")
	if name := s.RequestInstantiation("Maybe", []*types.Type{types.I32}, UseSite{}); name != "Maybe__I32" {
		t.Fatalf("name = %q", name)
	}
	if s.Pending() != 0 {
		t.Fatalf("marked key must not be queued")
	}
}

func TestDrainStopsOnError(t *testing.T) {
	s := NewScheduler(nil, Options{})
	s.RequestInstantiation("A", []*types.Type{types.I8}, UseSite{})
	s.RequestInstantiation("B", []*types.Type{types.I8}, UseSite{})
	boom := errors.New("boom")
	err := s.Drain(context.Background(), func(PendingInstantiation) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if s.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", s.Pending())
	}
}

func TestDump(t *testing.T) {
	s := NewScheduler(fakeDecls{"Stack.push": ""}, Options{})
	s.RequestImplMethod(types.Named("Stack", types.I32), "push", nil, nil, site(3))
	var b strings.Builder
	if err := Dump(&b, s.Map); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if !strings.Contains(b.String(), "Stack__I32_push [I32] uses=1") {
		t.Fatalf("dump = %q", b.String())
	}
}
