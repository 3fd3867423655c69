package lexer

import (
	"luabundle/internal/token"
)

// Жадность: сначала 3-символьные, затем 2-символьные, затем 1-символьные.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	emit := func(k token.Kind) token.Token {
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: k, Span: sp, Text: lx.text(sp)}
	}

	switch {
	case lx.tryOp("..."):
		return emit(token.Ellipsis)
	case lx.tryOp(".."):
		return emit(token.DotDot)
	case lx.tryOp("::"):
		return emit(token.ColonColon)
	case lx.tryOp("//"):
		return emit(token.DoubleSlash)
	case lx.tryOp("=="):
		return emit(token.EqEq)
	case lx.tryOp("~="):
		return emit(token.NotEq)
	case lx.tryOp("<="):
		return emit(token.LtEq)
	case lx.tryOp(">="):
		return emit(token.GtEq)
	case lx.tryOp("<<"):
		return emit(token.Shl)
	case lx.tryOp(">>"):
		return emit(token.Shr)
	}

	ch := lx.cursor.Bump()
	switch ch {
	case '+':
		return emit(token.Plus)
	case '-':
		return emit(token.Minus)
	case '*':
		return emit(token.Star)
	case '/':
		return emit(token.Slash)
	case '%':
		return emit(token.Percent)
	case '^':
		return emit(token.Caret)
	case '#':
		return emit(token.Hash)
	case '&':
		return emit(token.Amp)
	case '~':
		return emit(token.Tilde)
	case '|':
		return emit(token.Pipe)
	case '<':
		return emit(token.Lt)
	case '>':
		return emit(token.Gt)
	case '=':
		return emit(token.Assign)
	case '(':
		return emit(token.LParen)
	case ')':
		return emit(token.RParen)
	case '{':
		return emit(token.LBrace)
	case '}':
		return emit(token.RBrace)
	case '[':
		return emit(token.LBracket)
	case ']':
		return emit(token.RBracket)
	case ';':
		return emit(token.Semicolon)
	case ':':
		return emit(token.Colon)
	case ',':
		return emit(token.Comma)
	case '.':
		return emit(token.Dot)
	}

	// UTF-8 вне строк и комментариев: съедаем руну целиком
	lx.cursor.Reset(start)
	lx.bumpRune()
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(sp, "unexpected symbol "+quoteForMessage(lx.text(sp)))
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
}
