package bundle

import (
	"fmt"
	"io"
	"strings"

	"luabundle/internal/asset"
	"luabundle/internal/project"
)

// Serialize writes the define block of m:
//
//	define('<id>', function()
//	<body>
//	end)
//
// body gets a trailing newline when it lacks one.
func Serialize(w io.Writer, m *Module, body string) error {
	var b strings.Builder
	b.Grow(len(body) + len(m.ID) + 32)
	b.WriteString("define(")
	b.WriteString(LuaQuote(m.ID))
	b.WriteString(", function()\n")
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString("end)\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// SourceBody returns the rewritten text of a source module. A leading
// shebang line is commented out, it is only legal at the top of a chunk.
func SourceBody(m *Module) (string, RewriteStats) {
	body, stats := Rewrite(m)
	if strings.HasPrefix(body, "#") {
		body = "--" + body
	}
	return body, stats
}

// AssetBody returns "return <literal>" for raster, raster set and glyph modules.
func AssetBody(m *Module) (string, error) {
	switch m.Kind {
	case project.ModuleKindRaster, project.ModuleKindGlyph:
		return "return " + MatrixLiteral(m.Pixels), nil
	case project.ModuleKindRasterSet:
		var b strings.Builder
		b.WriteString("return {")
		for i, f := range m.Frames {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(MatrixLiteral(f.Pixels))
		}
		b.WriteByte('}')
		return b.String(), nil
	default:
		return "", fmt.Errorf("module %q of kind %s has no asset body", m.ID, m.Kind)
	}
}

// MatrixLiteral renders rows top to bottom: {{0,1},{1,0}}. An empty matrix is {}.
func MatrixLiteral(m asset.Matrix) string {
	if m.Empty() {
		return "{}"
	}
	var b strings.Builder
	b.Grow(m.Height * (2*m.Width + 2))
	b.WriteByte('{')
	for y := range m.Height {
		if y > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('{')
		for x := range m.Width {
			if x > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('0' + m.At(x, y))
		}
		b.WriteByte('}')
	}
	b.WriteByte('}')
	return b.String()
}

// LuaQuote renders s as a single-quoted Lua string literal. Backslash, quote
// and control bytes are escaped; other bytes are copied unchanged.
func LuaQuote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7f {
				// \ddd из трёх цифр, чтобы следующая цифра не склеилась
				b.WriteString(`\` + fmt.Sprintf("%03d", c))
				continue
			}
			b.WriteByte(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

