package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"vesper/internal/codegen"
	"vesper/internal/decl"
	"vesper/internal/layout"
	"vesper/internal/mangle"
	"vesper/internal/types"
)

var layoutCmd = &cobra.Command{
	Use:   "layout [flags] [unit.vu]",
	Short: "Show sizes and enum payload classes",
	Long: `Show the static layout of every non-generic struct and enum of a unit,
plus any instantiation named with --type (e.g. --type 'Option<I64>').`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLayout,
}

func init() {
	layoutCmd.Flags().String("format", "table", "output format (table|yaml)")
	layoutCmd.Flags().StringArray("type", nil, "additional type to lay out (repeatable)")
}

type layoutRow struct {
	Type    string `yaml:"type"`
	Symbol  string `yaml:"symbol"`
	Kind    string `yaml:"kind"`
	Size    int    `yaml:"size"`
	Align   int    `yaml:"align"`
	Payload string `yaml:"payload,omitempty"`
	Words   int    `yaml:"words,omitempty"`
	Error   string `yaml:"error,omitempty"`
}

func runLayout(cmd *cobra.Command, args []string) error {
	s, cleanup, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	format, _ := cmd.Flags().GetString("format")
	format = strings.ToLower(format)
	switch format {
	case "table", "yaml":
	default:
		return fmt.Errorf("unsupported format %q (must be table or yaml)", format)
	}
	extra, _ := cmd.Flags().GetStringArray("type")
	if len(args) == 0 && len(extra) == 0 {
		return fmt.Errorf("nothing to lay out: pass a unit file or --type")
	}

	var u *decl.Unit
	if len(args) == 1 {
		if u, _, err = decl.ReadFile(args[0]); err != nil {
			return err
		}
	}
	var ts []*types.Type
	if u != nil {
		ts = unitTypes(u)
	}
	for _, text := range extra {
		t, err := types.Parse(text)
		if err != nil {
			return fmt.Errorf("--type %q: %w", text, err)
		}
		ts = append(ts, t)
	}

	session := codegen.NewSession(u, s.codegenOptions())
	rows := layoutRows(session.Layout(), session.Registry(), ts)
	if format == "yaml" {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	}
	renderLayoutTable(cmd.OutOrStdout(), rows)
	return nil
}

// unitTypes lists the unit's own non-generic structs and enums by name.
func unitTypes(u *decl.Unit) []*types.Type {
	var out []*types.Type
	for _, st := range u.Decls.Structs {
		if len(st.Generics) == 0 {
			out = append(out, types.Named(st.Name))
		}
	}
	for _, en := range u.Decls.Enums {
		if len(en.Generics) == 0 {
			out = append(out, types.Named(en.Name))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func layoutRows(engine *layout.LayoutEngine, reg *decl.Registry, ts []*types.Type) []layoutRow {
	rows := make([]layoutRow, 0, len(ts))
	for _, t := range ts {
		row := layoutRow{Type: t.String(), Symbol: mangle.Mangle(t), Kind: t.Kind.String()}
		isEnum := false
		if t.Kind == types.KindNamed {
			if _, _, ok := reg.Enum(t.Name); ok {
				isEnum = true
				row.Kind = "enum"
			} else if _, _, ok := reg.Struct(t.Name); ok {
				row.Kind = "struct"
			}
		}
		if isEnum {
			el, err := engine.Enum(t)
			if err != nil {
				row.Error = err.Error()
				rows = append(rows, row)
				continue
			}
			row.Size, row.Align = el.Size(), el.Align()
			row.Payload = el.Class.String()
			row.Words = el.Words
			rows = append(rows, row)
			continue
		}
		l, err := engine.LayoutOf(t)
		if err != nil {
			row.Error = err.Error()
		} else {
			row.Size, row.Align = l.Size, l.Align
		}
		rows = append(rows, row)
	}
	return rows
}

func renderLayoutTable(w io.Writer, rows []layoutRow) {
	header := []string{"TYPE", "KIND", "SIZE", "ALIGN", "PAYLOAD", "SYMBOL"}
	cells := make([][]string, 0, len(rows)+1)
	cells = append(cells, header)
	for _, r := range rows {
		payload := r.Payload
		if r.Words > 0 {
			payload += " x" + strconv.Itoa(r.Words)
		}
		size, align := strconv.Itoa(r.Size), strconv.Itoa(r.Align)
		if r.Error != "" {
			size, align, payload = "-", "-", r.Error
		}
		cells = append(cells, []string{r.Type, r.Kind, size, align, payload, r.Symbol})
	}
	widths := make([]int, len(header))
	for _, row := range cells {
		for i, c := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(c))
		}
	}
	for _, row := range cells {
		var b strings.Builder
		for i, c := range row {
			if i == len(row)-1 {
				b.WriteString(c)
				break
			}
			b.WriteString(runewidth.FillRight(c, widths[i]))
			b.WriteString("  ")
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}
