package source

import (
	"fmt"
)

// Span is a half-open byte range inside one file.
type Span struct {
	File  FileID
	Start uint32 // в байтах включительно
	End   uint32 // в байтах не включительно
}

// NoSpan is the location of findings without a source position.
var NoSpan = Span{File: NoFile}

// IsValid reports whether the span points into a file.
func (s Span) IsValid() bool {
	return s.File != NoFile
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Cover returns the smallest span holding both s and other.
// Spans from different files are not merged.
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

// Text returns the bytes covered by the span.
func (s Span) Text(f *File) string {
	if f == nil || s.End > uint32(len(f.Content)) || s.Start > s.End {
		return ""
	}
	return string(f.Content[s.Start:s.End])
}
