package diag

import (
	"luabundle/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

type FixEdit struct {
	Span    source.Span
	NewText string
}

type Fix struct {
	Title string
	Edits []FixEdit
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}

// WithFix returns a copy of d with a fix made of the given edits.
func (d Diagnostic) WithFix(title string, edits ...FixEdit) Diagnostic {
	d.Fixes = append(append([]Fix(nil), d.Fixes...), Fix{Title: title, Edits: edits})
	return d
}

// HasSpan reports whether the diagnostic points into a source file.
// Диагностики без файла (например, отсутствующий entry) используют source.NoSpan.
func (d Diagnostic) HasSpan() bool {
	return d.Primary.IsValid()
}
