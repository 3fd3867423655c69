package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"luabundle/internal/lexer"
	"luabundle/internal/source"
	"luabundle/internal/token"
)

type TokenOutput struct {
	Kind    string   `json:"kind"`
	Text    string   `json:"text,omitempty"`
	Value   *string  `json:"value,omitempty"` // декодированное значение строкового литерала
	Start   uint32   `json:"start"`
	End     uint32   `json:"end"`
	Line    uint32   `json:"line"`
	Col     uint32   `json:"col"`
	Leading []string `json:"leading,omitempty"`
}

func leadingKinds(tok token.Token) []string {
	if len(tok.Leading) == 0 {
		return nil
	}
	out := make([]string, len(tok.Leading))
	for i, trivia := range tok.Leading {
		out[i] = trivia.Kind.String()
	}
	return out
}

// FormatTokensPretty выводит токены в человекочитаемом формате
func FormatTokensPretty(w io.Writer, tokens []token.Token, fs *source.FileSet) error {
	for i, tok := range tokens {
		startPos, endPos := fs.Resolve(tok.Span)

		if _, err := fmt.Fprintf(w, "%3d: %-12s", i+1, tok.Kind.String()); err != nil {
			return err
		}
		if tok.Text != "" {
			fmt.Fprintf(w, " %q", tok.Text)
		}
		fmt.Fprintf(w, " at %d:%d-%d:%d", startPos.Line, startPos.Col, endPos.Line, endPos.Col)
		if tok.IsString() {
			if v, err := lexer.StringValue(tok); err == nil && v != tok.Text {
				fmt.Fprintf(w, " = %q", v)
			}
		}
		if leading := leadingKinds(tok); len(leading) > 0 {
			fmt.Fprintf(w, " (leading: %s)", strings.Join(leading, ", "))
		}
		fmt.Fprintln(w)

		if tok.Kind == token.EOF {
			break
		}
	}
	return nil
}

// FormatTokensJSON выводит токены в JSON формате
func FormatTokensJSON(w io.Writer, tokens []token.Token, fs *source.FileSet) error {
	output := make([]TokenOutput, 0, len(tokens))
	for _, tok := range tokens {
		startPos, _ := fs.Resolve(tok.Span)
		out := TokenOutput{
			Kind:    tok.Kind.String(),
			Text:    tok.Text,
			Start:   tok.Span.Start,
			End:     tok.Span.End,
			Line:    startPos.Line,
			Col:     startPos.Col,
			Leading: leadingKinds(tok),
		}
		if tok.IsString() {
			if v, err := lexer.StringValue(tok); err == nil {
				out.Value = &v
			}
		}
		output = append(output, out)

		if tok.Kind == token.EOF {
			break
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
