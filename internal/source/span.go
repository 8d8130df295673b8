package source

import (
	"fmt"
)

// FileID identifies a source file of the translation unit.
type FileID uint32

// Span is a half-open byte range inside one file.
type Span struct {
	File  FileID `msgpack:"f"`
	Start uint32 `msgpack:"s"` // в байтах включительно
	End   uint32 `msgpack:"e"` // в байтах не включительно
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Cover returns the smallest span containing both s and other.
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}
