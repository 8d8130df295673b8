package mono

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes one line per instantiation in request order:
//
//	method Stack__I32_push [I32] uses=2
func Dump(w io.Writer, m *InstantiationMap) error {
	if w == nil || m == nil {
		return nil
	}
	for _, e := range m.Ordered() {
		args := make([]string, len(e.TypeArgs))
		for i, a := range e.TypeArgs {
			args[i] = a.String()
		}
		if _, err := fmt.Fprintf(w, "%-6s %s [%s] uses=%d\n", e.Kind, e.Key, strings.Join(args, ", "), len(e.UseSites)); err != nil {
			return err
		}
	}
	return nil
}
