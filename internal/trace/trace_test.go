package trace

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltersScopes(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)
	sp := Begin(tr, ScopeUnit, "unit:main", 0)
	Point(tr, ScopeInstantiation, "enqueue", "Stack__I32", sp.ID(), nil)
	sp.End("ok")
	out := buf.String()
	if !strings.Contains(out, "unit:main") {
		t.Fatalf("unit span missing:\n%s", out)
	}
	if strings.Contains(out, "enqueue") {
		t.Fatalf("instantiation event must be filtered at phase level:\n%s", out)
	}
}

func TestNDJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	Point(tr, ScopeInstantiation, "enqueue", "Stack__I32", 0, map[string]string{"kind": "type"})
	line := buf.String()
	for _, want := range []string{`"kind":"point"`, `"scope":"instantiation"`, `"detail":"Stack__I32"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %s in %s", want, line)
		}
	}
}

func TestParseLevel(t *testing.T) {
	if lvl, err := ParseLevel("DETAIL"); err != nil || lvl != LevelDetail {
		t.Fatalf("ParseLevel = %v, %v", lvl, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error")
	}
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("off level must produce disabled tracer")
	}
}
