package lexer

import (
	"luabundle/internal/diag"
	"luabundle/internal/source"
)

type Options struct {
	Reporter diag.Reporter // может быть nil - тогда ошибки игнорируем (но продолжаем лексить)
}

func (lx *Lexer) errLex(sp source.Span, msg string) {
	lx.errors++
	if lx.opts.Reporter != nil {
		diag.ReportError(lx.opts.Reporter, diag.ParLex, sp, msg).Emit()
	}
}

// Errors returns the number of lexical errors reported so far.
func (lx *Lexer) Errors() int {
	return lx.errors
}
