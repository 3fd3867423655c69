package bundle

import (
	"errors"
	"fmt"

	"luabundle/internal/diag"
	"luabundle/internal/lexer"
	"luabundle/internal/source"
	"luabundle/internal/token"
)

// ErrLex is wrapped by ParseError for lexical errors in a source module.
var ErrLex = errors.New("lexical error")

// Scan finds the require expressions of f in appearance order. Identical
// expression text is merged into one Reference with Count occurrences.
// Dynamic requires are reported to r as warnings and skipped. A lexical
// error is returned as *ParseError.
func Scan(f *source.File, r diag.Reporter) ([]Reference, error) {
	bag := diag.NewBag(1)
	lx := lexer.New(f, lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	toks := lx.All()
	if lx.Errors() > 0 {
		first := bag.Items()[0]
		return nil, &ParseError{
			Path: f.Path,
			Span: first.Primary,
			Code: diag.ParLex,
			Err:  fmt.Errorf("%w: %s", ErrLex, first.Message),
		}
	}

	var refs []Reference
	byText := make(map[string]int)
	for i := range toks {
		tok := toks[i]
		if tok.Kind != token.Ident || tok.Text != "require" || !isCallSite(toks, i) {
			continue
		}
		end, argTok, ok := requireArg(toks, i)
		if !ok {
			if r != nil {
				diag.ReportWarning(r, diag.ScnDynamicRequire, tok.Span,
					"require without a literal string argument is left untouched").Emit()
			}
			continue
		}
		arg, err := lexer.StringValue(argTok)
		if err != nil {
			return nil, &ParseError{
				Path: f.Path,
				Span: argTok.Span,
				Code: diag.ParLex,
				Err:  fmt.Errorf("%w: %v", ErrLex, err),
			}
		}

		span := tok.Span.Cover(end)
		text := span.Text(f)
		if idx, seen := byText[text]; seen {
			refs[idx].Count++
			continue
		}
		byText[text] = len(refs)
		refs = append(refs, Reference{Text: text, Arg: arg, Span: span, Count: 1})
	}
	return refs, nil
}

// isCallSite отбрасывает x.require, x:require, function require, local require.
func isCallSite(toks []token.Token, i int) bool {
	if i == 0 {
		return true
	}
	switch toks[i-1].Kind {
	case token.Dot, token.Colon, token.KwFunction, token.KwLocal, token.KwGoto, token.ColonColon:
		return false
	}
	return true
}

// requireArg распознаёт require 'x', require [[x]] и require ( 'x' ).
// Возвращает span последнего токена выражения и токен строки.
func requireArg(toks []token.Token, i int) (source.Span, token.Token, bool) {
	if i+1 >= len(toks) {
		return source.Span{}, token.Token{}, false
	}
	next := toks[i+1]
	if next.IsString() {
		return next.Span, next, true
	}
	if next.Kind == token.LParen && i+3 < len(toks) &&
		toks[i+2].IsString() && toks[i+3].Kind == token.RParen {
		return toks[i+3].Span, toks[i+2], true
	}
	return source.Span{}, token.Token{}, false
}
