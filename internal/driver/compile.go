// Package driver compiles translation units: it reads `.vu` unit files, runs
// one codegen session per unit in parallel and caches the emitted IR on disk.
package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"vesper/internal/codegen"
	"vesper/internal/decl"
	"vesper/internal/diag"
	"vesper/internal/source"
	"vesper/internal/trace"
)

// Options configures Compile.
type Options struct {
	Codegen codegen.Options
	// Jobs bounds parallel sessions; <= 0 means GOMAXPROCS.
	Jobs  int
	Cache *DiskCache
	// Timings attaches a DriverInfo diagnostic with the unit's wall time.
	Timings bool
	// OnUnitDone is called once per unit, from the unit's goroutine.
	OnUnitDone func(Result)
}

// Result is the outcome of one unit. Bag is never nil.
type Result struct {
	Path   string
	Unit   string
	IR     string
	Bag    *diag.Bag
	Files  map[source.FileID]string
	Cached bool
	// Err is an infrastructure failure (IO, decoding); diagnostics live in Bag.
	Err error
}

// Failed reports whether the unit produced no usable IR.
func (r Result) Failed() bool {
	return r.Err != nil || (r.Bag != nil && r.Bag.HasErrors())
}

// Input is a unit to compile, either already decoded or as a file path.
type Input struct {
	Path string
	Unit *decl.Unit
	// Encoded is the unit's wire form; when empty it is re-encoded for hashing.
	Encoded []byte
}

// CompileFiles reads and compiles every unit file in paths.
func CompileFiles(ctx context.Context, paths []string, opts Options) ([]Result, error) {
	inputs := make([]Input, len(paths))
	for i, p := range paths {
		inputs[i] = Input{Path: p}
	}
	return Compile(ctx, inputs, opts)
}

// Compile runs one session per input. Results keep the order of inputs.
// The returned error is non-nil only on cancellation; per-unit failures are
// reported in each Result.
func Compile(ctx context.Context, inputs []Input, opts Options) ([]Result, error) {
	tracer := opts.Codegen.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	span := trace.Begin(tracer, trace.ScopeDriver, "compile", opts.Codegen.Parent)
	defer span.End(strconv.Itoa(len(inputs)) + " units")

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]Result, len(inputs))
	if len(inputs) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(inputs)))
	for i, in := range inputs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			// each goroutine owns results[i]
			uopts := opts
			uopts.Codegen.Parent = span.ID()
			results[i] = compileOne(gctx, in, uopts)
			if opts.OnUnitDone != nil {
				opts.OnUnitDone(results[i])
			}
			if errors.Is(results[i].Err, context.Canceled) || errors.Is(results[i].Err, context.DeadlineExceeded) {
				return results[i].Err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func compileOne(ctx context.Context, in Input, opts Options) Result {
	start := time.Now()
	res := Result{Path: in.Path}
	limit := opts.Codegen.MaxDiagnostics
	if limit <= 0 {
		limit = 100
	}

	u, encoded, err := load(in)
	if err != nil {
		res.Bag = diag.NewBag(limit)
		res.Bag.Add(diag.NewError(diag.DriverUnitDecode, source.Span{}, err.Error()))
		res.Err = err
		return res
	}
	res.Unit = u.Name
	res.Files = u.FilePaths()

	key := combineKey(decl.Hash(encoded), opts.Codegen)
	var cached CachePayload
	hit, cacheErr := opts.Cache.Get(key, &cached)
	if hit {
		res.IR = cached.IR
		res.Bag = unpackDiags(cached.Diags, limit)
		res.Cached = true
		appendTiming(res.Bag, opts.Timings, time.Since(start), true)
		return res
	}

	s := codegen.NewSession(u, opts.Codegen)
	if err := s.CompileUnit(ctx); err != nil && !errors.Is(err, codegen.ErrMissingBody) {
		res.Bag = s.Bag()
		res.Err = fmt.Errorf("unit %q: %w", u.Name, err)
		return res
	}
	res.Bag = s.Bag()
	res.IR = s.Module().Text()

	// a failed read still lets us write a fresh entry
	if cacheErr != nil {
		res.Bag.Add(diag.New(diag.SevWarning, diag.DriverCacheFailed, source.Span{}, cacheErr.Error()))
	}
	if opts.Cache != nil {
		payload := &CachePayload{
			Unit:   u.Name,
			IR:     res.IR,
			Diags:  packDiags(s.Bag()),
			Failed: s.Bag().HasErrors(),
		}
		if err := opts.Cache.Put(key, payload); err != nil {
			res.Bag.Add(diag.New(diag.SevWarning, diag.DriverCacheFailed, source.Span{}, "cache write: "+err.Error()))
		}
	}
	appendTiming(res.Bag, opts.Timings, time.Since(start), false)
	return res
}

func load(in Input) (*decl.Unit, []byte, error) {
	if in.Unit != nil {
		if len(in.Encoded) > 0 {
			return in.Unit, in.Encoded, nil
		}
		data, err := in.Unit.Encode()
		if err != nil {
			return nil, nil, err
		}
		return in.Unit, data, nil
	}
	if in.Path == "" {
		return nil, nil, errors.New("input has neither a unit nor a path")
	}
	return decl.ReadFile(in.Path)
}

func appendTiming(bag *diag.Bag, enabled bool, elapsed time.Duration, cached bool) {
	if !enabled || bag == nil {
		return
	}
	msg := fmt.Sprintf("timings (unit): total %.2f ms", float64(elapsed.Microseconds())/1000)
	if cached {
		msg += " (cached)"
	}
	entry := diag.New(diag.SevInfo, diag.DriverInfo, source.Span{}, msg)
	if bag.Add(entry) {
		return
	}
	overflow := diag.NewBag(bag.Len() + 1)
	overflow.Add(entry)
	bag.Merge(overflow)
}
