package diag

import (
	"testing"

	"luabundle/internal/source"
)

func TestCodeIDs(t *testing.T) {
	cases := []struct {
		code Code
		want string
	}{
		{ResMissingModule, "RES1001"},
		{ResBadReference, "RES1002"},
		{ParLex, "PAR2001"},
		{ParAssetDecode, "PAR2002"},
		{ParSyntax, "PAR2003"},
		{GraCycle, "GRA3001"},
		{ScnDynamicRequire, "SCN4001"},
		{RewShadowed, "REW4002"},
		{AstEmptyGlyph, "AST4003"},
		{IOWriteFailed, "IO5001"},
		{UnknownCode, "E0000"},
	}
	for _, tc := range cases {
		if got := tc.code.ID(); got != tc.want {
			t.Errorf("Code(%d).ID() = %q, want %q", tc.code, got, tc.want)
		}
	}
	if Code(9999).Title() != codeDescription[UnknownCode] {
		t.Error("unknown code must fall back to the generic title")
	}
}

func TestBagLimitSortDedup(t *testing.T) {
	b := NewBag(2)
	sp := func(start uint32) source.Span { return source.Span{File: 0, Start: start, End: start + 1} }
	if !b.Add(Diagnostic{Severity: SevWarning, Code: ScnDynamicRequire, Primary: sp(10), Message: "dynamic"}) {
		t.Fatal("first diagnostic rejected")
	}
	b.Add(Diagnostic{Severity: SevError, Code: ParLex, Primary: sp(2)})
	if b.Add(Diagnostic{Severity: SevWarning, Code: ScnDynamicRequire, Primary: sp(10), Message: "dynamic"}) {
		t.Fatal("bag accepted a duplicate")
	}
	if b.Add(Diagnostic{Severity: SevInfo, Primary: sp(0)}) {
		t.Fatal("bag accepted a diagnostic over its limit")
	}
	if b.Len() != 2 || b.Dropped() != 1 {
		t.Fatalf("Len = %d, Dropped = %d, want 2 and 1", b.Len(), b.Dropped())
	}
	if !b.HasErrors() || !b.HasWarnings() {
		t.Fatal("expected errors and warnings")
	}

	b.Sort()
	if b.Items()[0].Code != ParLex {
		t.Fatalf("expected PAR2001 first, got %s", b.Items()[0].Code.ID())
	}
}

func TestBagKeepsDistinctMessagesAtSameSpan(t *testing.T) {
	b := NewBag(0)
	sp := source.Span{File: 0, Start: 1, End: 4}
	b.Add(Diagnostic{Severity: SevError, Code: ResMissingModule, Primary: sp, Message: "module 'a' not found"})
	b.Add(Diagnostic{Severity: SevError, Code: ResMissingModule, Primary: sp, Message: "module 'b' not found"})
	b.Add(Diagnostic{Severity: SevError, Code: ResBadReference, Primary: sp, Message: "module 'a' not found"})
	if b.Len() != 3 || b.Dropped() != 0 {
		t.Fatalf("Len = %d, Dropped = %d, want 3 and 0", b.Len(), b.Dropped())
	}
}

func TestMultiReporterDedupsPerBag(t *testing.T) {
	first, second := NewBag(10), NewBag(10)
	r := MultiReporter{BagReporter{Bag: first}, BagReporter{Bag: second}}
	sp := source.Span{File: 0, Start: 1, End: 4}

	ReportWarning(r, RewShadowed, sp, "shadowed").WithNote(sp, "here").Emit()
	ReportWarning(r, RewShadowed, sp, "shadowed").Emit()

	if first.Len() != 1 || second.Len() != 1 {
		t.Fatalf("expected one diagnostic per bag, got %d and %d", first.Len(), second.Len())
	}
	if len(first.Items()[0].Notes) != 1 {
		t.Fatal("note was lost")
	}
}

func TestSeverityLabels(t *testing.T) {
	if SevError.String() != "error" || SevWarning.String() != "warning" || SevInfo.String() != "info" {
		t.Fatal("unexpected severity labels")
	}
	if !SevError.Fatal() || SevWarning.Fatal() {
		t.Fatal("only errors are fatal")
	}
}

func TestFormatShortDiagnostics(t *testing.T) {
	fs := source.NewFileSetWithBase("/workspace")
	file := fs.Add("/workspace/src/a.lua", []byte("local b = require(x)\nreturn b\n"), 0)

	diags := []Diagnostic{
		{
			Severity: SevWarning,
			Code:     ScnDynamicRequire,
			Message:  "dynamic require\nleft untouched",
			Primary:  source.Span{File: file, Start: 10, End: 17},
		},
		{
			Severity: SevError,
			Code:     ResMissingModule,
			Message:  "module 'c' not found",
			Primary:  source.NoSpan,
		},
	}

	want := "error RES1001 module 'c' not found\n" +
		"warning SCN4001 src/a.lua:1:11 dynamic require left untouched"
	if got := FormatShortDiagnostics(diags, fs, false); got != want {
		t.Fatalf("unexpected output:\nwant:\n%s\n\ngot:\n%s", want, got)
	}
}

func TestWithNoteDoesNotAlias(t *testing.T) {
	base := NewError(ResMissingModule, source.NoSpan, "missing")
	base.Notes = make([]Note, 1, 2)
	base.Notes[0] = Note{Span: source.NoSpan, Msg: "tried a.lua"}
	left := base.WithNote(source.NoSpan, "left")
	right := base.WithNote(source.NoSpan, "right")
	if left.Notes[1].Msg != "left" || right.Notes[1].Msg != "right" {
		t.Fatalf("notes alias: %v / %v", left.Notes, right.Notes)
	}
	if base.HasSpan() || base.Severity != SevError {
		t.Fatalf("unexpected diagnostic %+v", base)
	}
}
