package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"vesper/internal/config"
	"vesper/internal/diagfmt"
	"vesper/internal/driver"
)

var emitCmd = &cobra.Command{
	Use:   "emit [flags] <unit.vu>...",
	Short: "Lower translation units to IR text",
	Long: `Lower one or more checked translation units to textual IR.
Units are compiled in parallel, one session each; results are cached on disk
keyed by unit content and codegen options.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEmit,
}

func init() {
	emitCmd.Flags().StringP("output", "o", "-", "output file, or directory when several units are given (- for stdout)")
	emitCmd.Flags().Int("jobs", 0, "max parallel sessions (0=auto)")
	emitCmd.Flags().String("diag-format", "pretty", "diagnostic format (pretty|yaml)")
	emitCmd.Flags().Bool("no-cache", false, "disable the IR disk cache")
	emitCmd.Flags().Bool("drop-cache", false, "invalidate the IR disk cache before compiling")
	emitCmd.Flags().String("progress", "auto", "show a progress bar for several units (auto|on|off)")
	emitCmd.Flags().Bool("strict", false, "treat generic inference fallbacks as errors")
	emitCmd.Flags().String("module-prefix", "", "override [codegen].module_prefix")
	emitCmd.Flags().String("unit-prefix", "", "override [codegen].unit_prefix")
}

func runEmit(cmd *cobra.Command, args []string) error {
	s, cleanup, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	flags := cmd.Flags()
	output, _ := flags.GetString("output")
	jobs, _ := flags.GetInt("jobs")
	diagFormat, _ := flags.GetString("diag-format")
	noCache, _ := flags.GetBool("no-cache")
	dropCache, _ := flags.GetBool("drop-cache")
	progressFlag, _ := flags.GetString("progress")
	strict, _ := flags.GetBool("strict")

	diagFormat = strings.ToLower(diagFormat)
	switch diagFormat {
	case "pretty", "yaml":
	default:
		return fmt.Errorf("unsupported diagnostic format %q (must be pretty or yaml)", diagFormat)
	}
	progressMode, err := readMode("progress", progressFlag)
	if err != nil {
		return err
	}
	if strict {
		s.cfg.Codegen.Inference = config.InferenceStrict
	}
	if v, _ := flags.GetString("module-prefix"); flags.Changed("module-prefix") {
		s.cfg.Codegen.ModulePrefix = v
	}
	if v, _ := flags.GetString("unit-prefix"); flags.Changed("unit-prefix") {
		s.cfg.Codegen.UnitPrefix = v
	}

	opts := driver.Options{
		Codegen: s.codegenOptions(),
		Jobs:    jobs,
		Timings: s.timings,
	}
	if s.cfg.Cache.Enabled && !noCache {
		dir, err := s.cfg.CacheDir()
		if err != nil {
			return fmt.Errorf("failed to resolve cache directory: %w", err)
		}
		cache, err := driver.OpenDiskCache(dir)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		if dropCache {
			if err := cache.DropAll(); err != nil {
				return fmt.Errorf("failed to drop cache: %w", err)
			}
		}
		opts.Cache = cache
	}

	if len(args) > 1 && !s.quiet && progressMode.enabled(os.Stderr) {
		bar := progressbar.Default(int64(len(args)), "emit")
		defer bar.Close()
		opts.OnUnitDone = func(driver.Result) { _ = bar.Add(1) }
	}

	results, err := driver.CompileFiles(cmd.Context(), args, opts)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
		if err := reportDiagnostics(cmd.ErrOrStderr(), r, diagFormat, s.color); err != nil {
			return err
		}
	}
	if err := writeIR(cmd.OutOrStdout(), output, results); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d units failed", failed, len(results))
	}
	return nil
}

func reportDiagnostics(w io.Writer, r driver.Result, format string, color bool) error {
	if r.Bag == nil || r.Bag.Len() == 0 {
		return nil
	}
	r.Bag.Sort()
	if format == "yaml" {
		return diagfmt.YAML(w, r.Bag)
	}
	if r.Path != "" {
		fmt.Fprintf(w, "== %s\n", r.Path)
	}
	diagfmt.Pretty(w, r.Bag, diagfmt.PrettyOpts{Color: color, ShowNotes: true, Files: r.Files})
	return nil
}

// writeIR writes successful units. With several units a non-stdout output
// is a directory receiving one <unit>.ll per input.
func writeIR(stdout io.Writer, output string, results []driver.Result) error {
	if output == "-" || output == "" {
		for _, r := range results {
			if r.Failed() {
				continue
			}
			if _, err := io.WriteString(stdout, r.IR); err != nil {
				return err
			}
		}
		return nil
	}
	if len(results) == 1 {
		if results[0].Failed() {
			return nil
		}
		return os.WriteFile(output, []byte(results[0].IR), 0o644)
	}
	if err := os.MkdirAll(output, 0o755); err != nil {
		return err
	}
	for _, r := range results {
		if r.Failed() {
			continue
		}
		if err := os.WriteFile(filepath.Join(output, irFileName(r)), []byte(r.IR), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func irFileName(r driver.Result) string {
	base := strings.TrimSuffix(filepath.Base(r.Path), filepath.Ext(r.Path))
	if base == "" || base == "." {
		base = r.Unit
	}
	return base + ".ll"
}
