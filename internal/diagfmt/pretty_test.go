package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"vesper/internal/diag"
	"vesper/internal/source"
)

func sampleBag() *diag.Bag {
	bag := diag.NewBag(10)
	r := diag.BagReporter{Bag: bag}
	diag.ReportError(r, diag.CodegenUnknownVariable, source.Span{File: 1, Start: 4, End: 5}, "unknown variable `y`").
		WithNote(source.Span{File: 1, Start: 0, End: 2}, "closure starts here").
		Emit()
	diag.ReportWarning(r, diag.CodegenInferenceFallback, source.Span{File: 2, Start: 9, End: 12}, "defaulted T to I32").Emit()
	return bag
}

func TestPrettyPlain(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, sampleBag(), PrettyOpts{ShowNotes: true, Files: map[source.FileID]string{1: "main.vsp"}})
	out := buf.String()
	for _, want := range []string{
		"main.vsp:4-5: ERROR CG4001: unknown variable `y`",
		"note: main.vsp:0-2: closure starts here",
		"file#2:9-12: WARNING CG4010: defaulted T to I32",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestYAMLReport(t *testing.T) {
	var buf bytes.Buffer
	if err := YAML(&buf, sampleBag()); err != nil {
		t.Fatalf("YAML: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"errors: 1", "warnings: 1", "code: CG4001", "severity: ERROR"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}
