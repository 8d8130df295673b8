package diag

import (
	"vesper/internal/source"
)

type Note struct {
	Span source.Span `msgpack:"span" yaml:"span"`
	Msg  string      `msgpack:"msg" yaml:"msg"`
}

type Diagnostic struct {
	Severity Severity    `msgpack:"sev" yaml:"severity"`
	Code     Code        `msgpack:"code" yaml:"code"`
	Message  string      `msgpack:"msg" yaml:"message"`
	Primary  source.Span `msgpack:"primary" yaml:"primary"`
	Notes    []Note      `msgpack:"notes,omitempty" yaml:"notes,omitempty"`
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}
