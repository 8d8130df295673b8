package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vesper/internal/codegen"
	"vesper/internal/config"
	"vesper/internal/layout"
	"vesper/internal/prof"
	"vesper/internal/trace"
)

// settings merges vesper.toml with the persistent flags.
type settings struct {
	cfg     config.Config
	color   bool
	quiet   bool
	timings bool
	tracer  trace.Tracer
}

// loadSettings reads the configuration, opens the tracer and starts any
// requested profilers. The returned cleanup is never nil.
func loadSettings(cmd *cobra.Command) (*settings, func(), error) {
	noop := func() {}
	flags := cmd.Root().PersistentFlags()

	path, err := flags.GetString("config")
	if err != nil {
		return nil, noop, fmt.Errorf("failed to get config flag: %w", err)
	}
	var cfg config.Config
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return nil, noop, err
	}

	if maxDiags, err := flags.GetInt("max-diagnostics"); err == nil && maxDiags > 0 {
		cfg.Codegen.MaxDiagnostics = maxDiags
	}
	colorFlag, err := flags.GetString("color")
	if err != nil {
		return nil, noop, fmt.Errorf("failed to get color flag: %w", err)
	}
	colorMode, err := readMode("color", colorFlag)
	if err != nil {
		return nil, noop, err
	}
	quiet, _ := flags.GetBool("quiet")
	timings, _ := flags.GetBool("timings")

	s := &settings{
		cfg:     cfg,
		color:   colorMode.enabled(os.Stderr),
		quiet:   quiet,
		timings: timings,
	}
	stopTrace, err := s.setupTracing(cmd)
	if err != nil {
		return nil, noop, err
	}
	stopProf, err := setupProfiling(cmd)
	if err != nil {
		stopTrace()
		return nil, noop, err
	}
	return s, func() {
		stopProf()
		stopTrace()
	}, nil
}

// setupProfiling starts the profilers named by the profiling flags. The
// returned stop function writes the heap profile last.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	flags := cmd.Root().PersistentFlags()
	var p prof.Paths
	var err error
	if p.CPU, err = flags.GetString("cpu-profile"); err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if p.Mem, err = flags.GetString("mem-profile"); err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if p.Trace, err = flags.GetString("runtime-trace"); err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	if !p.Active() {
		return func() {}, nil
	}
	session, err := prof.Start(p)
	if err != nil {
		return nil, fmt.Errorf("failed to start profiling: %w", err)
	}
	return func() {
		if err := session.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "profiling: %v\n", err)
		}
	}, nil
}

// setupTracing lets --trace / --trace-level override the [trace] section.
func (s *settings) setupTracing(cmd *cobra.Command) (func(), error) {
	flags := cmd.Root().PersistentFlags()
	output, err := flags.GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	formatStr, err := flags.GetString("trace-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	if output == "" {
		output = s.cfg.Trace.Output
	}
	if levelStr == "" {
		levelStr = s.cfg.Trace.Level
		// an explicit output without a level means "trace something"
		if flags.Changed("trace") && (levelStr == "" || levelStr == "off") {
			levelStr = "phase"
		}
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}
	tracer, err := trace.New(trace.Config{Level: level, Format: format, OutputPath: output})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	s.tracer = tracer
	return func() {
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}, nil
}

func (s *settings) codegenOptions() codegen.Options {
	return codegen.Options{
		ModulePrefix:    s.cfg.Codegen.ModulePrefix,
		UnitPrefix:      s.cfg.Codegen.UnitPrefix,
		Target:          layout.ForTriple(s.cfg.Codegen.TargetTriple),
		StrictInference: s.cfg.Codegen.Inference == config.InferenceStrict,
		MaxDiagnostics:  s.cfg.Codegen.MaxDiagnostics,
		Tracer:          s.tracer,
	}
}
