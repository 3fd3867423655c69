package bundle

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"luabundle/internal/asset"
	"luabundle/internal/cache"
	"luabundle/internal/diag"
	"luabundle/internal/project"
	runtimeembed "luabundle/runtime"
)

func writeFile(t *testing.T, root, rel, data string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func writePNG(t *testing.T, root, rel string, w, h int, black image.Point) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.White)
		}
	}
	img.Set(black.X, black.Y, color.Black)
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func newTestBuilder(root string) (*Builder, *diag.Bag) {
	bag := diag.NewBag(100)
	b := NewBuilder(Config{
		Resolver: project.NewResolver(root, nil),
		Reporter: diag.BagReporter{Bag: bag},
	})
	return b, bag
}

func buildBundle(t *testing.T, root, entry string) string {
	t.Helper()
	b, _ := newTestBuilder(root)
	g, err := b.Build(entry)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	out, err := Assemble(g, AssembleOptions{})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return string(out)
}

func TestEndToEndDependenciesFirst(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.lua", "local b = require(\"b\")\nreturn b + 1\n")
	writeFile(t, root, "b.lua", "return 41\n")

	got := buildBundle(t, root, "a")
	want := runtimeembed.Prelude() +
		"define('b.lua', function()\nreturn 41\nend)\n" +
		"define('a.lua', function()\nlocal b = require('b.lua')\nreturn b + 1\nend)\n" +
		"require('a.lua')\n"
	if got != want {
		t.Fatalf("bundle mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestMissingModuleNamesPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.lua", "local b = require('b')\n")
	writeFile(t, root, "b.lua", "return require 'c'\n")

	b, _ := newTestBuilder(root)
	_, err := b.Build("a")
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
	if resErr.Ref != "c" || resErr.Path != "c.lua" || resErr.From != "b.lua" {
		t.Fatalf("unexpected error fields: %+v", resErr)
	}
	if !strings.Contains(err.Error(), `"c"`) {
		t.Fatalf("message does not name c: %v", err)
	}
	if !resErr.Span.IsValid() {
		t.Fatal("expected span of the require expression")
	}
	d, ok := Diagnose(err)
	if !ok || d.Code != diag.ResMissingModule {
		t.Fatalf("Diagnose = %+v, %v", d, ok)
	}
}

func TestCycleReportsChain(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.lua", "require('b')\n")
	writeFile(t, root, "b.lua", "require('a')\n")

	b, _ := newTestBuilder(root)
	_, err := b.Build("a")
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected CycleError, got %v", err)
	}
	want := []string{"a.lua", "b.lua", "a.lua"}
	if !slices.Equal(cycle.Chain, want) {
		t.Fatalf("chain = %v, want %v", cycle.Chain, want)
	}
	if !strings.Contains(err.Error(), "a.lua -> b.lua -> a.lua") {
		t.Fatalf("message = %v", err)
	}
}

func TestSingleDefinitionPerID(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.lua", "require('left')\nrequire('right')\nrequire \"shared\"\n")
	writeFile(t, root, "left.lua", "return require('shared')\n")
	writeFile(t, root, "right.lua", "return require('shared')\n")
	writeFile(t, root, "shared.lua", "return {}\n")

	out := buildBundle(t, root, "main")
	for _, id := range []string{"main.lua", "left.lua", "right.lua", "shared.lua"} {
		if n := strings.Count(out, "define('"+id+"'"); n != 1 {
			t.Errorf("%s defined %d times", id, n)
		}
	}
	if strings.Index(out, "define('shared.lua'") > strings.Index(out, "define('left.lua'") {
		t.Error("dependency must be defined before its dependant")
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.lua", "local u = require('aspe.util')\nlocal i = require('icons/1.png')\n")
	writeFile(t, root, "aspe/util.lua", "return { x = 1 }\r\n")
	writePNG(t, root, "icons/1.png", 3, 2, image.Pt(1, 1))

	first := buildBundle(t, root, "main")
	second := buildBundle(t, root, "main")
	if first != second {
		t.Fatal("two builds of the same tree differ")
	}
	if !strings.Contains(first, "define('icons/1.png', function()\nreturn {{0,0,0},{0,1,0}}\nend)\n") {
		t.Fatalf("raster block missing:\n%s", first)
	}
	if !strings.Contains(first, "return { x = 1 }\r\nend)") {
		t.Fatal("CRLF line endings were not preserved")
	}
}

func TestRewriteFidelityAndCompleteness(t *testing.T) {
	text := "-- header\nlocal a = require ( \"b\" )\nlocal c = require ( \"b\" ) .. require'd'\n\n\n"
	m := &Module{
		ID:   "x.lua",
		Kind: project.ModuleKindSource,
		Source: &SourceUnit{
			Text: []byte(text),
			Refs: []Reference{
				{Text: `require ( "b" )`, Count: 2, Target: "b.lua"},
				{Text: `require'd'`, Count: 1, Target: "d.lua"},
			},
		},
	}
	got, stats := Rewrite(m)
	want := "-- header\nlocal a = require('b.lua')\nlocal c = require('b.lua') .. require('d.lua')\n\n\n"
	if got != want {
		t.Fatalf("Rewrite = %q, want %q", got, want)
	}
	if stats.Replaced != 3 || len(stats.Shadowed) != 0 {
		t.Fatalf("stats = %+v", stats)
	}

	m.Source.Refs = nil
	if got, _ := Rewrite(m); got != text {
		t.Fatal("module without references must be unchanged")
	}
}

func TestRewriteReportsShadowedText(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.lua", "local b = require('b')\n-- require('b') in a comment\n")
	writeFile(t, root, "b.lua", "return 1\n")

	b, bag := newTestBuilder(root)
	g, err := b.Build("a")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	out, err := Assemble(g, AssembleOptions{Reporter: diag.BagReporter{Bag: bag}})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !strings.Contains(string(out), "-- require('b.lua') in a comment") {
		t.Fatal("comment occurrence is rewritten as well")
	}
	var found bool
	for _, d := range bag.Items() {
		if d.Code == diag.RewShadowed {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s warning, got %+v", diag.RewShadowed.ID(), bag.Items())
	}
}

func TestScanForms(t *testing.T) {
	tests := []struct {
		src   string
		texts []string
		warn  bool
	}{
		{"require 'a'", []string{"require 'a'"}, false},
		{"require [[a]]", []string{"require [[a]]"}, false},
		{"require ( \"a\" )", []string{"require ( \"a\" )"}, false},
		{"x.require('a') x:require('a')", nil, false},
		{"local function require(x) end", nil, false},
		{"local require = require", nil, true},
		{"require(name)", nil, true},
		{"-- require('a')\nlocal s = \"require('a')\"", nil, false},
		{"require('a') require('a') require 'a'", []string{"require('a')", "require 'a'"}, false},
	}
	for _, tt := range tests {
		b, bag := newTestBuilder(t.TempDir())
		id := b.files.AddVirtual("t.lua", []byte(tt.src))
		refs, err := Scan(b.files.Get(id), diag.BagReporter{Bag: bag})
		if err != nil {
			t.Fatalf("%q: Scan: %v", tt.src, err)
		}
		var texts []string
		for _, r := range refs {
			texts = append(texts, r.Text)
		}
		if !slices.Equal(texts, tt.texts) {
			t.Errorf("%q: refs = %q, want %q", tt.src, texts, tt.texts)
		}
		if bag.HasWarnings() != tt.warn {
			t.Errorf("%q: warnings = %v, want %v", tt.src, bag.Items(), tt.warn)
		}
	}
}

func TestScanMergesOccurrenceCount(t *testing.T) {
	b, _ := newTestBuilder(t.TempDir())
	id := b.files.AddVirtual("t.lua", []byte("require('a')\nrequire('a')\nrequire('a')"))
	refs, err := Scan(b.files.Get(id), nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(refs) != 1 || refs[0].Count != 3 || refs[0].Arg != "a" {
		t.Fatalf("refs = %+v", refs)
	}
}

func TestLexErrorIsParseError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.lua", "local s = 'unterminated\n")

	b, _ := newTestBuilder(root)
	_, err := b.Build("a")
	var pe *ParseError
	if !errors.As(err, &pe) || !errors.Is(err, ErrLex) {
		t.Fatalf("expected lexical ParseError, got %v", err)
	}
	if pe.ID != "a.lua" || pe.Code != diag.ParLex {
		t.Fatalf("ParseError = %+v", pe)
	}
}

func TestBadReferenceError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.lua", "require('../outside')\n")

	b, _ := newTestBuilder(root)
	_, err := b.Build("a")
	var refErr *ReferenceError
	if !errors.As(err, &refErr) || !errors.Is(err, project.ErrBadReference) {
		t.Fatalf("expected ReferenceError, got %v", err)
	}
	if d, _ := Diagnose(err); d.Code != diag.ResBadReference {
		t.Fatalf("code = %v", d.Code)
	}
}

func TestShebangIsCommentedOut(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.lua", "#!/usr/bin/env lua\nprint(1)\n")
	out := buildBundle(t, root, "main")
	if !strings.Contains(out, "define('main.lua', function()\n--#!/usr/bin/env lua\nprint(1)\nend)\n") {
		t.Fatalf("shebang not commented:\n%s", out)
	}
}

func TestGlyphIdentityDistinctness(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "fonts/go.ttf", string(goregular.TTF))
	writeFile(t, root, "main.lua", strings.Join([]string{
		"local a12 = require('fonts/go.ttf@A,12')",
		"local a24 = require('fonts/go.ttf@A,24')",
		"local b12 = require('fonts/go.ttf@B,12')",
		"local sp = require('fonts/go.ttf@ ,12')",
		"",
	}, "\n"))

	b, bag := newTestBuilder(root)
	g, err := b.Build("main")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ids := g.Modules.IDs()
	want := []string{"fonts/go.ttf@A,12", "fonts/go.ttf@A,24", "fonts/go.ttf@B,12", "fonts/go.ttf@ ,12", "main.lua"}
	if !slices.Equal(ids, want) {
		t.Fatalf("ids = %q, want %q", ids, want)
	}
	a12, _ := g.Modules.Get("fonts/go.ttf@A,12")
	a24, _ := g.Modules.Get("fonts/go.ttf@A,24")
	if a12.Pixels.Height >= a24.Pixels.Height {
		t.Fatalf("A at 24pt (%d rows) must be taller than at 12pt (%d rows)", a24.Pixels.Height, a12.Pixels.Height)
	}
	sp, _ := g.Modules.Get("fonts/go.ttf@ ,12")
	if !sp.Pixels.Empty() {
		t.Fatal("space glyph must be empty")
	}
	var warned bool
	for _, d := range bag.Items() {
		warned = warned || d.Code == diag.AstEmptyGlyph
	}
	if !warned {
		t.Fatal("expected empty glyph warning")
	}

	out, err := Assemble(g, AssembleOptions{})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !strings.Contains(string(out), "define('fonts/go.ttf@ ,12', function()\nreturn {}\nend)\n") {
		t.Fatal("empty glyph literal missing")
	}
}

func TestMissingGlyphIsParseError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "fonts/go.ttf", string(goregular.TTF))
	writeFile(t, root, "main.lua", "require('fonts/go.ttf@\U0001F600,12')\n")

	b, _ := newTestBuilder(root)
	_, err := b.Build("main")
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Code != diag.ParAssetDecode {
		t.Fatalf("expected asset ParseError, got %v", err)
	}
}

func TestRasterSetUsesDiskCache(t *testing.T) {
	root := t.TempDir()
	writePNG(t, root, "icons/10.png", 3, 1, image.Pt(1, 0))
	writePNG(t, root, "icons/2.png", 3, 1, image.Pt(2, 0))
	writeFile(t, root, "main.lua", "local icons = require('icons/')\n")

	dc, err := cache.OpenAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	build := func() string {
		b := NewBuilder(Config{Resolver: project.NewResolver(root, nil), Assets: dc})
		g, err := b.Build("main")
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		out, err := Assemble(g, AssembleOptions{})
		if err != nil {
			t.Fatalf("Assemble: %v", err)
		}
		return string(out)
	}

	first := build()
	if !strings.Contains(first, "define('icons/', function()\nreturn {{{0,0,1}},{{0,1,0}}}\nend)\n") {
		t.Fatalf("raster set literal missing or out of order:\n%s", first)
	}
	entries, err := filepath.Glob(filepath.Join(dc.Dir(), "assets", "*.mp"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("cache entries = %v, %v", entries, err)
	}
	if second := build(); second != first {
		t.Fatal("cached build differs")
	}
}

func TestObserverEvents(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.lua", "require('b')\n")
	writeFile(t, root, "b.lua", "return 1\n")

	var got []string
	b := NewBuilder(Config{
		Resolver: project.NewResolver(root, nil),
		Observer: func(ev Event) { got = append(got, ev.Kind.String()+" "+ev.ID) },
	})
	if _, err := b.Build("a"); err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []string{"queued a.lua", "parsed a.lua", "queued b.lua", "parsed b.lua", "done b.lua", "done a.lua"}
	if !slices.Equal(got, want) {
		t.Fatalf("events = %q, want %q", got, want)
	}
}

func TestGraphMetas(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.lua", "require('b')\nrequire('c')\n")
	writeFile(t, root, "b.lua", "require('c')\n")
	writeFile(t, root, "c.lua", "return 1\n")

	b, _ := newTestBuilder(root)
	g, err := b.Build("a")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	metas := g.Metas()
	if len(metas) != 3 {
		t.Fatalf("metas = %+v", metas)
	}
	last := metas[len(metas)-1]
	if last.ID != "a.lua" || len(last.Imports) != 2 || last.Imports[0].ID != "b.lua" {
		t.Fatalf("entry meta = %+v", last)
	}
	if last.ContentHash.IsZero() || !last.Span.IsValid() {
		t.Fatal("source meta must carry hash and span")
	}
}

func TestLuaQuoteAndMatrixLiteral(t *testing.T) {
	quotes := map[string]string{
		"b.lua":       `'b.lua'`,
		`it's`:        `'it\'s'`,
		`a\b`:         `'a\\b'`,
		"x\ny":        `'x\ny'`,
		"\x01" + "2":  `'\0012'`,
		"fonts/f@é,1": `'fonts/f@é,1'`,
	}
	for in, want := range quotes {
		if got := LuaQuote(in); got != want {
			t.Errorf("LuaQuote(%q) = %s, want %s", in, got, want)
		}
	}

	m := asset.Matrix{Width: 2, Height: 2, Cells: []uint8{0, 1, 1, 0}}
	if got := MatrixLiteral(m); got != "{{0,1},{1,0}}" {
		t.Errorf("MatrixLiteral = %s", got)
	}
	if got := MatrixLiteral(asset.Matrix{}); got != "{}" {
		t.Errorf("empty MatrixLiteral = %s", got)
	}
}
