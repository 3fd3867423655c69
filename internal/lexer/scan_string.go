package lexer

import (
	"luabundle/internal/token"
)

// scanString: '...' или "...". Escape-последовательности здесь только
// пропускаются; декодирование и проверка в DecodeString.
func (lx *Lexer) scanString(quote byte) token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // opening quote
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch {
		case b == quote:
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.String, Span: sp, Text: lx.text(sp)}
		case b == '\\':
			lx.cursor.Bump()
			if lx.cursor.EOF() {
				continue
			}
			// "\<newline>" допустим, \r\n и \n\r считаются одним переводом
			switch esc := lx.cursor.Bump(); {
			case isNewline(esc):
				if nx := lx.cursor.Peek(); isNewline(nx) && nx != esc {
					lx.cursor.Bump()
				}
			case esc == 'z':
				// \z пропускает следующие пробелы и переводы строк
				for !lx.cursor.EOF() && (isSpace(lx.cursor.Peek()) || isNewline(lx.cursor.Peek())) {
					lx.cursor.Bump()
				}
			}
		case isNewline(b):
			sp := lx.cursor.SpanFrom(start)
			lx.errLex(sp, "unfinished string")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
		default:
			lx.cursor.Bump()
		}
	}
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(sp, "unfinished string")
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
}

// scanLongString: [[...]], [=[...]=] и т.д. Уровень уже проверен в Next.
func (lx *Lexer) scanLongString() token.Token {
	start := lx.cursor.Mark()
	level := lx.cursor.LongBracket()
	ok := lx.cursor.SkipLongBracket(level)
	sp := lx.cursor.SpanFrom(start)
	if !ok {
		lx.errLex(sp, "unfinished long string")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	return token.Token{Kind: token.LongString, Span: sp, Text: lx.text(sp)}
}
