package diagfmt

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"

	"vesper/internal/diag"
	"vesper/internal/source"
)

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<start>-<end>: <SEV> <CODE>: <Message>
// затем Notes с отступом.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) {
	if bag == nil {
		return
	}
	sevColor := map[diag.Severity]*color.Color{
		diag.SevError:   color.New(color.FgRed, color.Bold),
		diag.SevWarning: color.New(color.FgYellow, color.Bold),
		diag.SevInfo:    color.New(color.FgCyan),
	}
	codeColor := color.New(color.Faint)
	for _, c := range sevColor {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	if opts.Color {
		codeColor.EnableColor()
	} else {
		codeColor.DisableColor()
	}

	for _, d := range bag.Items() {
		sev := sevColor[d.Severity]
		if sev == nil {
			sev = color.New()
		}
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			location(opts, d.Primary),
			sev.Sprint(d.Severity.String()),
			codeColor.Sprint(d.Code.ID()),
			d.Message,
		)
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  note: %s: %s\n", location(opts, n.Span), n.Msg)
		}
	}
	if dropped := bag.Dropped(); dropped > 0 {
		fmt.Fprintf(w, "... %d more diagnostics suppressed\n", dropped)
	}
}

func location(opts PrettyOpts, sp source.Span) string {
	return fmt.Sprintf("%s:%d-%d", opts.fileName(sp.File), sp.Start, sp.End)
}

func itoa(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
