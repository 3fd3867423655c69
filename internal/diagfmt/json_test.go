package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"luabundle/internal/diag"
	"luabundle/internal/lexer"
	"luabundle/internal/source"
)

func decodeJSON(t *testing.T, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	t.Helper()
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, opts); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput: %s", err, buf.String())
	}
	return output
}

func TestJSONBasic(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.lua", []byte("local a = 1\nlocal s = 'x\n"))
	bag := bagWith(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.ParLex,
		Primary:  source.Span{File: fileID, Start: 22, End: 24},
		Message:  "unfinished string",
	})

	output := decodeJSON(t, bag, fs, JSONOpts{IncludePositions: true, PathMode: PathModeBasename})
	if output.Count != 1 || len(output.Diagnostics) != 1 {
		t.Fatalf("Expected 1 diagnostic, got %+v", output)
	}
	d := output.Diagnostics[0]
	if d.Severity != "error" || d.Code != "PAR2001" || d.Title != diag.ParLex.Title() {
		t.Errorf("unexpected header %+v", d)
	}
	if d.Location == nil || d.Location.File != "test.lua" || d.Location.StartLine != 2 || d.Location.StartCol != 11 {
		t.Errorf("unexpected location %+v", d.Location)
	}
}

func TestJSONWithoutSpanOmitsLocation(t *testing.T) {
	bag := bagWith(diag.Diagnostic{Severity: diag.SevError, Code: diag.ResMissingModule, Primary: source.NoSpan, Message: "missing"})
	var buf bytes.Buffer
	if err := JSON(&buf, bag, source.NewFileSet(), JSONOpts{IncludePositions: true}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if strings.Contains(buf.String(), "location") {
		t.Fatalf("location must be omitted:\n%s", buf.String())
	}
}

func TestJSONWithNotesAndFixes(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("a.lua", []byte("require \"b\"\n"))
	d := diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.RewShadowed,
		Primary:  source.Span{File: fileID, Start: 0, End: 11},
		Message:  "shadowed",
		Notes:    []diag.Note{{Span: source.Span{File: fileID, Start: 8, End: 11}, Msg: "here"}},
	}.WithFix("quote", diag.FixEdit{Span: source.Span{File: fileID, Start: 8, End: 11}, NewText: "'b.lua'"})

	opts := JSONOpts{IncludeNotes: true, IncludeFixes: true, IncludePreviews: true}
	output := decodeJSON(t, bagWith(d), fs, opts)
	got := output.Diagnostics[0]
	if len(got.Notes) != 1 || got.Notes[0].Message != "here" || got.Notes[0].Location.StartByte != 8 {
		t.Fatalf("notes = %+v", got.Notes)
	}
	if len(got.Fixes) != 1 || len(got.Fixes[0].Edits) != 1 {
		t.Fatalf("fixes = %+v", got.Fixes)
	}
	edit := got.Fixes[0].Edits[0]
	if edit.NewText != "'b.lua'" || len(edit.AfterLines) != 1 || edit.AfterLines[0] != "require 'b.lua'" {
		t.Fatalf("edit = %+v", edit)
	}

	trimmed := decodeJSON(t, bagWith(d), fs, JSONOpts{})
	if trimmed.Diagnostics[0].Notes != nil || trimmed.Diagnostics[0].Fixes != nil {
		t.Fatal("notes and fixes must be omitted by default")
	}
}

func TestJSONMaxLimit(t *testing.T) {
	var ds []diag.Diagnostic
	for i := range 5 {
		ds = append(ds, diag.Diagnostic{Severity: diag.SevWarning, Code: diag.ScnDynamicRequire, Primary: source.NoSpan, Message: strings.Repeat("x", i+1)})
	}
	output := decodeJSON(t, bagWith(ds...), source.NewFileSet(), JSONOpts{Max: 2})
	if output.Count != 2 {
		t.Fatalf("Count = %d, want 2", output.Count)
	}
}

func TestFormatTokensJSON(t *testing.T) {
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("t.lua", []byte("-- c\nrequire 'a\\tb'")))
	toks := lexer.New(f, lexer.Options{}).All()

	var buf bytes.Buffer
	if err := FormatTokensJSON(&buf, toks, fs); err != nil {
		t.Fatalf("FormatTokensJSON: %v", err)
	}
	var out []TokenOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("tokens = %+v", out)
	}
	if out[0].Kind != "Ident" || out[0].Line != 2 || len(out[0].Leading) != 2 {
		t.Errorf("first token = %+v", out[0])
	}
	if out[1].Value == nil || *out[1].Value != "a\tb" {
		t.Errorf("string token = %+v", out[1])
	}

	buf.Reset()
	if err := FormatTokensPretty(&buf, toks, fs); err != nil {
		t.Fatalf("FormatTokensPretty: %v", err)
	}
	if !strings.Contains(buf.String(), `= "a\tb"`) {
		t.Errorf("pretty tokens:\n%s", buf.String())
	}
}
