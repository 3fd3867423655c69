package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"fortio.org/safecast"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"luabundle/internal/diag"
	"luabundle/internal/source"
)

const tabWidth = 4

type palette struct {
	err, warn, info, note, path, gutter, caret, add, del func(a ...any) string
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan, color.Bold),
		note:   mk(color.FgBlue, color.Bold),
		path:   mk(color.Bold),
		gutter: mk(color.FgBlue),
		caret:  mk(color.FgGreen, color.Bold),
		add:    mk(color.FgGreen),
		del:    mk(color.FgRed),
	}
}

func (p palette) severity(s diag.Severity) string {
	label := strings.ToUpper(s.String())
	switch s {
	case diag.SevError:
		return p.err(label)
	case diag.SevWarning:
		return p.warn(label)
	default:
		return p.info(label)
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes и Fixes.
// Диагностики без Span печатаются одной строкой без пути.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, &d, fs, opts, p)
	}
	if n := bag.Dropped(); n > 0 {
		fmt.Fprintf(w, "\n%s\n", p.note(fmt.Sprintf("... %d more diagnostics omitted (raise --max-diagnostics)", n)))
	}
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) {
	file := spanFile(fs, d.Primary)
	if file == nil {
		fmt.Fprintf(w, "%s %s: %s\n", p.severity(d.Severity), d.Code.ID(), d.Message)
	} else {
		start, _ := fs.Resolve(d.Primary)
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			p.path(fmt.Sprintf("%s:%d:%d", formatPath(file, fs, opts.PathMode), start.Line, start.Col)),
			p.severity(d.Severity), d.Code.ID(), d.Message)
		writeSnippet(w, fs, file, d.Primary, int(opts.Context), p)
	}

	if opts.ShowNotes {
		for _, n := range d.Notes {
			if nf := spanFile(fs, n.Span); nf != nil {
				start, _ := fs.Resolve(n.Span)
				fmt.Fprintf(w, "  %s %s:%d:%d: %s\n", p.note("note:"), formatPath(nf, fs, opts.PathMode), start.Line, start.Col, n.Msg)
			} else {
				fmt.Fprintf(w, "  %s %s\n", p.note("note:"), n.Msg)
			}
		}
	}

	if opts.ShowFixes {
		for i, fix := range d.Fixes {
			fmt.Fprintf(w, "  %s %s\n", p.note(fmt.Sprintf("fix #%d:", i+1)), fix.Title)
			for _, edit := range fix.Edits {
				ef := spanFile(fs, edit.Span)
				if ef == nil {
					continue
				}
				start, _ := fs.Resolve(edit.Span)
				fmt.Fprintf(w, "    edit %s:%d:%d apply=%q\n", formatPath(ef, fs, opts.PathMode), start.Line, start.Col, edit.NewText)
				if !opts.ShowPreview {
					continue
				}
				preview, err := buildFixEditPreview(fs, edit)
				if err != nil {
					continue
				}
				fmt.Fprintln(w, "    preview:")
				for _, line := range preview.before {
					fmt.Fprintf(w, "      %s\n", p.del("- "+line))
				}
				for _, line := range preview.after {
					fmt.Fprintf(w, "      %s\n", p.add("+ "+line))
				}
			}
		}
	}
}

// writeSnippet печатает строки вокруг span и подчёркивание под первой строкой span.
func writeSnippet(w io.Writer, fs *source.FileSet, f *source.File, span source.Span, context int, p palette) {
	start, end := fs.Resolve(span)
	total, err := safecast.Conv[uint32](len(f.LineIdx) + 1)
	if err != nil {
		return
	}
	ctx, err := safecast.Conv[uint32](max(context, 0))
	if err != nil {
		return
	}
	first := uint32(1)
	if start.Line > ctx {
		first = start.Line - ctx
	}
	last := min(start.Line+ctx, total)
	gutterWidth := len(fmt.Sprint(last))

	for ln := first; ln <= last; ln++ {
		line := f.GetLine(ln)
		fmt.Fprintf(w, " %s %s %s\n", p.gutter(fmt.Sprintf("%*d", gutterWidth, ln)), p.gutter("|"), expandTabs(line))
		if ln != start.Line {
			continue
		}
		col := int(start.Col) - 1
		endCol := len(line)
		if end.Line == start.Line {
			endCol = int(end.Col) - 1
		}
		fmt.Fprintf(w, " %s %s %s\n", strings.Repeat(" ", gutterWidth), p.gutter("|"), p.caret(underline(line, col, endCol)))
	}
}

// underline строит "^~~~" под байтами line[col:endCol], учитывая ширину рун и табы.
func underline(line string, col, endCol int) string {
	col = min(max(col, 0), len(line))
	endCol = min(max(endCol, col), len(line))
	pad := displayWidth(line[:col])
	width := max(displayWidth(line[col:endCol]), 1)
	return strings.Repeat(" ", pad) + "^" + strings.Repeat("~", width-1)
}

func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		if r == '\t' {
			n += tabWidth - n%tabWidth
			continue
		}
		n += runewidth.RuneWidth(r)
	}
	return n
}

func expandTabs(s string) string {
	if !strings.ContainsRune(s, '\t') {
		return s
	}
	var b strings.Builder
	n := 0
	for _, r := range s {
		if r == '\t' {
			k := tabWidth - n%tabWidth
			b.WriteString(strings.Repeat(" ", k))
			n += k
			continue
		}
		b.WriteRune(r)
		n += runewidth.RuneWidth(r)
	}
	return b.String()
}
