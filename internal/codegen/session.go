// Package codegen lowers typed expression trees into IR text.
//
// One Session owns every piece of mutable state of a translation unit: the
// output module, the generated-symbol sets and pending-instantiation queue,
// the layout cache and the diagnostics bag. Nothing is global, so sessions
// for different units may run in parallel.
package codegen

import (
	"context"
	"errors"
	"fmt"

	"vesper/internal/decl"
	"vesper/internal/diag"
	"vesper/internal/ir"
	"vesper/internal/layout"
	"vesper/internal/mangle"
	"vesper/internal/mono"
	"vesper/internal/source"
	"vesper/internal/trace"
	"vesper/internal/types"
)

// ErrMissingBody is returned when a queued instantiation has no declaration
// to instantiate.
var ErrMissingBody = errors.New("instantiation has no declaration")

// Options configures a Session.
type Options struct {
	// ModulePrefix qualifies private functions and generic instantiations.
	ModulePrefix string
	// UnitPrefix disambiguates symbols of independently compiled units.
	UnitPrefix string
	Target     layout.Target
	// StrictInference turns placeholder generic arguments into errors.
	StrictInference bool
	MaxDiagnostics  int
	Tracer          trace.Tracer
	// Parent is the trace span of the caller (driver), 0 for none.
	Parent uint64
}

// Session is the code generation state of one translation unit.
type Session struct {
	opts   Options
	unit   *decl.Unit
	reg    *decl.Registry
	mod    *ir.Module
	layout *layout.LayoutEngine
	sched  *mono.Scheduler
	bag    *diag.Bag
	rep    diag.Reporter
	tracer trace.Tracer
	span   *trace.Span

	closures int
}

// NewSession prepares a session for u.
func NewSession(u *decl.Unit, opts Options) *Session {
	if opts.Target.PtrSize == 0 {
		opts.Target = layout.X86_64LinuxGNU()
	}
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = 100
	}
	if opts.Tracer == nil {
		opts.Tracer = trace.Nop
	}
	reg := decl.NewRegistry(u)
	bag := diag.NewBag(opts.MaxDiagnostics)
	name := "<unit>"
	if u != nil && u.Name != "" {
		name = u.Name
	}
	span := trace.Begin(opts.Tracer, trace.ScopeUnit, name, opts.Parent)
	s := &Session{
		opts:   opts,
		unit:   u,
		reg:    reg,
		mod:    ir.NewModule(opts.Target.Triple),
		layout: layout.New(opts.Target, reg),
		bag:    bag,
		rep:    diag.NewDedupReporter(diag.BagReporter{Bag: bag}),
		tracer: opts.Tracer,
		span:   span,
	}
	s.sched = mono.NewScheduler(reg, mono.Options{
		Unit:   opts.UnitPrefix,
		Prefix: opts.ModulePrefix,
		Tracer: opts.Tracer,
		Parent: span.ID(),
	})
	return s
}

// Module returns the IR produced so far.
func (s *Session) Module() *ir.Module { return s.mod }

// Bag returns the accumulated diagnostics.
func (s *Session) Bag() *diag.Bag { return s.bag }

// Scheduler exposes the instantiation queue.
func (s *Session) Scheduler() *mono.Scheduler { return s.sched }

// Layout exposes the layout engine of the session.
func (s *Session) Layout() *layout.LayoutEngine { return s.layout }

// Registry exposes the declaration registry.
func (s *Session) Registry() *decl.Registry { return s.reg }

// Unmangle decodes a mangled type name using the unit's declarations as the
// arity oracle. Names that cannot be decoded degrade to an opaque named type
// and a CG4011 warning.
func (s *Session) Unmangle(name string, sp source.Span) *types.Type {
	t, ok := mangle.Unmangle(name, s.reg.Arity)
	if !ok {
		s.warnf(diag.CodegenUnmangleFallback, sp, "cannot decode type name %q, treating it as opaque", name)
	}
	return t
}

func (s *Session) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	diag.ReportError(s.rep, code, sp, fmt.Sprintf(format, args...)).Emit()
}

func (s *Session) warnf(code diag.Code, sp source.Span, format string, args ...any) {
	diag.ReportWarning(s.rep, code, sp, fmt.Sprintf(format, args...)).Emit()
}

// CompileUnit lowers every non-generic function and impl method of the unit
// and drains the instantiation queue.
func (s *Session) CompileUnit(ctx context.Context) error {
	defer func() {
		s.span.End(fmt.Sprintf("funcs=%d diags=%d", len(s.mod.Funcs()), s.bag.Len()))
	}()
	if s.unit == nil {
		return nil
	}
	for _, fd := range s.unit.Decls.Funcs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if fd.IsGeneric() {
			continue
		}
		if fd.Extern || fd.Body == nil {
			s.declareExtern(fd, nil)
			continue
		}
		s.emitFunction(s.funcSymbol(fd, decl.Origin{}), fd, nil, nil, nil)
	}
	for _, im := range s.unit.Decls.Impls {
		if len(im.Generics) > 0 {
			continue
		}
		target := types.Named(im.Target)
		for _, m := range im.Methods {
			if m.Func == nil || m.Func.IsGeneric() {
				continue
			}
			s.sched.RequestImplMethod(target, m.Func.Name, nil, nil, mono.UseSite{Note: "unit"})
		}
	}
	for _, c := range s.unit.Decls.Classes {
		if len(c.Generics) > 0 {
			continue
		}
		for _, m := range c.Statics {
			if m.IsGeneric() || m.Body == nil {
				continue
			}
			s.sched.RequestImplMethod(types.Class(c.Name), m.Name, nil, nil, mono.UseSite{Note: "unit"})
		}
	}
	return s.Drain(ctx)
}

// Drain emits pending instantiations until the queue is empty.
func (s *Session) Drain(ctx context.Context) error {
	return s.sched.Drain(ctx, s.emitPending)
}

func (s *Session) emitPending(p mono.PendingInstantiation) error {
	switch p.Kind {
	case mono.InstType:
		s.emitTypeDef(p.Type, p.Site.Span)
		return nil
	case mono.InstImplMethod:
		im, m, _, ok := s.reg.ImplMethod(p.Base, p.Method)
		if !ok || m.Func.Body == nil {
			s.errorf(diag.CodegenMissingBody, p.Site.Span, "no body for %s", p.Key)
			return fmt.Errorf("%s: %w", p.Key, ErrMissingBody)
		}
		subs := types.NewSubst(im.Generics, p.Type.Args).With(p.Subs)
		s.emitFunction(p.Key, m.Func, subs, p.Type, m)
		return nil
	case mono.InstFn:
		fd, ok := s.lookupFunc(p.Library, p.Base)
		if !ok || fd.Body == nil {
			s.errorf(diag.CodegenMissingBody, p.Site.Span, "no body for %s", p.Key)
			return fmt.Errorf("%s: %w", p.Key, ErrMissingBody)
		}
		s.emitFunction(p.Key, fd, p.Subs, nil, nil)
		return nil
	default:
		return fmt.Errorf("unknown instantiation kind %v", p.Kind)
	}
}

func (s *Session) lookupFunc(library, name string) (*decl.FuncDecl, bool) {
	if library != "" {
		if fd, ok := s.reg.ModuleFunc(library, name); ok {
			return fd, true
		}
	}
	fd, _, ok := s.reg.Func(name)
	return fd, ok
}
