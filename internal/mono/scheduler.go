// Package mono implements the instantiation scheduler: every generic type,
// impl method and free function is requested by mangled key and queued for
// emission at most once per session.
//
// The mangled key is inserted into the generated set before the pending
// record is enqueued. A request made while its own instantiation is in
// progress (a self-referential node type, a method calling itself) therefore
// observes "already generated" and returns the name without recursing.
package mono

import (
	"context"
	"strconv"

	"vesper/internal/mangle"
	"vesper/internal/trace"
	"vesper/internal/types"
)

// Declarations answers whether a generic declaration exists.
type Declarations interface {
	// ImplMethodLibrary reports whether typeName has an impl method named
	// method, and the imported module it was found in (empty when local).
	ImplMethodLibrary(typeName, method string) (library string, ok bool)
}

// Options configures symbol naming and tracing.
type Options struct {
	// Unit is the per-compilation-unit disambiguation prefix.
	Unit string
	// Prefix qualifies generic free functions of the current module.
	Prefix string
	Tracer trace.Tracer
	// Parent is the trace span the scheduler events attach to.
	Parent uint64
}

// Scheduler is the cooperative work-list of pending instantiations. It is
// not safe for concurrent use; the generated sets only ever grow.
type Scheduler struct {
	opts  Options
	decls Declarations

	types   map[string]struct{}
	methods map[string]struct{}
	funcs   map[string]struct{}

	queue []PendingInstantiation
	head  int

	Map *InstantiationMap
}

// NewScheduler creates an empty scheduler.
func NewScheduler(decls Declarations, opts Options) *Scheduler {
	if opts.Tracer == nil {
		opts.Tracer = trace.Nop
	}
	return &Scheduler{
		opts:    opts,
		decls:   decls,
		types:   make(map[string]struct{}),
		methods: make(map[string]struct{}),
		funcs:   make(map[string]struct{}),
		Map:     NewInstantiationMap(),
	}
}

// RequestInstantiation returns the mangled name of base<args...>, queueing
// its type definition the first time it is seen.
func (s *Scheduler) RequestInstantiation(base string, args []*types.Type, site UseSite) string {
	t := types.Named(base, args...)
	key := mangle.TypeName(t)
	s.Map.Record(InstType, key, t.Args, site)
	if _, ok := s.types[key]; ok {
		return key
	}
	s.types[key] = struct{}{}
	s.enqueue(PendingInstantiation{
		Kind: InstType,
		Key:  key,
		Base: base,
		Type: t,
		Args: t.Args,
		Site: site,
	})
	return key
}

// RequestImplMethod returns the symbol of method on the instantiation t,
// queueing its body the first time. methodArgs instantiates the method's own
// type parameters and is appended to the symbol. ok is false when no impl
// anywhere declares the method; the caller decides whether that is fatal.
func (s *Scheduler) RequestImplMethod(t *types.Type, method string, methodArgs []*types.Type, subs types.Subst, site UseSite) (symbol string, ok bool) {
	if t == nil {
		return "", false
	}
	library := ""
	if s.decls != nil {
		lib, found := s.decls.ImplMethodLibrary(t.Name, method)
		if !found {
			return "", false
		}
		library = lib
	}
	prefix := ""
	if library != "" {
		prefix = mangle.Ident(library)
	}
	symbol = mangle.Method(s.opts.Unit, prefix, t, method).String() + mangle.Args(methodArgs)
	s.Map.Record(InstImplMethod, symbol, append(append([]*types.Type(nil), t.Args...), methodArgs...), site)
	if _, done := s.methods[symbol]; done {
		return symbol, true
	}
	s.methods[symbol] = struct{}{}
	s.enqueue(PendingInstantiation{
		Kind:    InstImplMethod,
		Key:     symbol,
		Base:    t.Name,
		Method:  method,
		Type:    t,
		Args:    methodArgs,
		Subs:    subs,
		Library: library,
		Site:    site,
	})
	return symbol, true
}

// RequestFunc returns the symbol of the generic free function name<args...>.
func (s *Scheduler) RequestFunc(name string, args []*types.Type, subs types.Subst, library string, site UseSite) string {
	prefix := s.opts.Prefix
	if library != "" {
		prefix = mangle.Ident(library)
	}
	symbol := mangle.Func(s.opts.Unit, prefix, name, args).String()
	s.Map.Record(InstFn, symbol, args, site)
	if _, done := s.funcs[symbol]; done {
		return symbol
	}
	s.funcs[symbol] = struct{}{}
	s.enqueue(PendingInstantiation{
		Kind:    InstFn,
		Key:     symbol,
		Base:    name,
		Args:    args,
		Subs:    subs,
		Library: library,
		Site:    site,
	})
	return symbol
}

// MarkGenerated records a symbol emitted outside the queue so later requests
// for it are no-ops.
func (s *Scheduler) MarkGenerated(kind InstantiationKind, key string) {
	switch kind {
	case InstType:
		s.types[key] = struct{}{}
	case InstImplMethod:
		s.methods[key] = struct{}{}
	default:
		s.funcs[key] = struct{}{}
	}
}

// Generated reports whether key was ever requested or marked.
func (s *Scheduler) Generated(kind InstantiationKind, key string) bool {
	var ok bool
	switch kind {
	case InstType:
		_, ok = s.types[key]
	case InstImplMethod:
		_, ok = s.methods[key]
	default:
		_, ok = s.funcs[key]
	}
	return ok
}

func (s *Scheduler) enqueue(p PendingInstantiation) {
	s.queue = append(s.queue, p)
	trace.Point(s.opts.Tracer, trace.ScopeInstantiation, "enqueue", p.Key, s.opts.Parent, map[string]string{
		"kind":    p.Kind.String(),
		"pending": strconv.Itoa(s.Pending()),
	})
}

// Pending returns the number of records not yet consumed.
func (s *Scheduler) Pending() int {
	return len(s.queue) - s.head
}

// Next pops the oldest pending record.
func (s *Scheduler) Next() (PendingInstantiation, bool) {
	if s.head >= len(s.queue) {
		return PendingInstantiation{}, false
	}
	p := s.queue[s.head]
	s.queue[s.head] = PendingInstantiation{}
	s.head++
	if s.head == len(s.queue) {
		s.queue = s.queue[:0]
		s.head = 0
	}
	return p, true
}

// Drain pops records until the queue is empty, calling emit for each. emit
// may request further instantiations; they are drained in the same loop.
func (s *Scheduler) Drain(ctx context.Context, emit func(PendingInstantiation) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, ok := s.Next()
		if !ok {
			return nil
		}
		trace.Point(s.opts.Tracer, trace.ScopeInstantiation, "drain", p.Key, s.opts.Parent, map[string]string{
			"kind": p.Kind.String(),
		})
		if err := emit(p); err != nil {
			return err
		}
	}
}
