package diagfmt

import "vesper/internal/source"

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	ShowNotes bool
	// Files maps file ids to display paths; missing ids print as file#N.
	Files map[source.FileID]string
}

func (o PrettyOpts) fileName(id source.FileID) string {
	if name, ok := o.Files[id]; ok && name != "" {
		return name
	}
	return "file#" + itoa(uint32(id))
}
