package bundle

import (
	"bytes"
	"fmt"
	"io"

	"fortio.org/safecast"

	"luabundle/internal/diag"
	"luabundle/internal/project"
	"luabundle/internal/source"
	runtimeembed "luabundle/runtime"
)

// AssembleOptions controls the bundle trailer and where rewrite warnings go.
type AssembleOptions struct {
	ReturnEntry bool          // trailer "return require(...)"
	Reporter    diag.Reporter // предупреждения REW4002
}

// Block is the serialized define block of one module.
type Block struct {
	ID   string
	Kind project.ModuleKind
	Body string // тело без обёртки define, нужно для проверки синтаксиса
	Text string // блок целиком
}

// Render serializes every cached module in cache order.
func Render(g *Graph, r diag.Reporter) ([]Block, error) {
	mods := g.Modules.Modules()
	blocks := make([]Block, 0, len(mods))
	var buf bytes.Buffer
	for _, m := range mods {
		var body string
		if m.Kind == project.ModuleKindSource {
			var stats RewriteStats
			body, stats = SourceBody(m)
			for _, ref := range stats.Shadowed {
				diag.ReportWarning(r, diag.RewShadowed, ref.Span,
					fmt.Sprintf("%s also occurs outside a require call and is rewritten there too", ref.Text)).
					WithNote(ref.Span, "rewritten to "+RequireCall(ref.Target)).
					Emit()
			}
		} else {
			var err error
			if body, err = AssetBody(m); err != nil {
				return nil, err
			}
		}
		buf.Reset()
		if err := Serialize(&buf, m, body); err != nil {
			return nil, err
		}
		blocks = append(blocks, Block{ID: m.ID, Kind: m.Kind, Body: body, Text: buf.String()})
	}
	return blocks, nil
}

// Trailer returns the statement that starts the entry module.
func Trailer(entry string, returnEntry bool) string {
	if returnEntry {
		return "return " + RequireCall(entry) + "\n"
	}
	return RequireCall(entry) + "\n"
}

// WriteBundle writes preamble, blocks and trailer to w.
func WriteBundle(w io.Writer, entry string, blocks []Block, returnEntry bool) error {
	if _, err := io.WriteString(w, runtimeembed.Prelude()); err != nil {
		return err
	}
	for _, b := range blocks {
		if _, err := io.WriteString(w, b.Text); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, Trailer(entry, returnEntry))
	return err
}

// Assemble renders the whole bundle in memory.
func Assemble(g *Graph, opts AssembleOptions) ([]byte, error) {
	if g == nil || g.Modules == nil {
		return nil, fmt.Errorf("assemble: empty graph")
	}
	if _, ok := g.Modules.Get(g.Entry); !ok {
		return nil, fmt.Errorf("assemble: entry %q is not in the graph", g.Entry)
	}
	blocks, err := Render(g, opts.Reporter)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	var buf bytes.Buffer
	if err := WriteBundle(&buf, g.Entry, blocks, opts.ReturnEntry); err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	return buf.Bytes(), nil
}

// Metas returns the graph as project.ModuleMeta records for the dag package,
// in cache order.
func (g *Graph) Metas() []project.ModuleMeta {
	mods := g.Modules.Modules()
	out := make([]project.ModuleMeta, 0, len(mods))
	for _, m := range mods {
		meta := project.ModuleMeta{
			ID:          m.ID,
			Kind:        m.Kind,
			Path:        m.Path,
			Span:        source.NoSpan,
			ContentHash: m.ContentHash,
		}
		if m.Source != nil {
			meta.Span = wholeFile(g.Files, m.Source.File)
			for _, ref := range m.Source.Refs {
				if ref.Target == "" {
					continue
				}
				meta.Imports = append(meta.Imports, project.ImportMeta{ID: ref.Target, Span: ref.Span})
			}
		}
		out = append(out, meta)
	}
	return out
}

func wholeFile(files *source.FileSet, id source.FileID) source.Span {
	f := files.Get(id)
	if f == nil {
		return source.NoSpan
	}
	end, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		return source.NoSpan
	}
	return source.Span{File: id, Start: 0, End: end}
}
