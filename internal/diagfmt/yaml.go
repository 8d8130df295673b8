package diagfmt

import (
	"io"

	"gopkg.in/yaml.v3"

	"vesper/internal/diag"
)

type yamlReport struct {
	Errors      int               `yaml:"errors"`
	Warnings    int               `yaml:"warnings"`
	Diagnostics []diag.Diagnostic `yaml:"diagnostics"`
}

// YAML writes the bag as a YAML document for tooling consumption.
func YAML(w io.Writer, bag *diag.Bag) error {
	report := yamlReport{Diagnostics: []diag.Diagnostic{}}
	if bag != nil {
		report.Diagnostics = bag.Items()
		for _, d := range bag.Items() {
			switch d.Severity {
			case diag.SevError:
				report.Errors++
			case diag.SevWarning:
				report.Warnings++
			}
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}
