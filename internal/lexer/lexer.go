package lexer

import (
	"luabundle/internal/source"
	"luabundle/internal/token"
)

type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	look   *token.Token   // 1 элементный буфер для токена
	hold   []token.Trivia // накопленные leading trivia
	errors int
}

func New(file *source.File, opts Options) *Lexer {
	lx := &Lexer{
		file:   file,
		cursor: NewCursor(file),
		opts:   opts,
	}
	lx.skipShebang()
	return lx
}

// Next возвращает следующий **значимый** токен с уже собранным Leading.
// После EOF всегда возвращает EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	lx.collectLeadingTrivia()

	if lx.cursor.EOF() {
		tok := token.Token{
			Kind:    token.EOF,
			Span:    lx.emptySpan(),
			Leading: lx.hold,
		}
		lx.hold = nil
		return tok
	}

	ch := lx.cursor.Peek()
	var tok token.Token

	switch {
	case isIdentStartByte(ch):
		tok = lx.scanIdentOrKeyword()

	case isDec(ch):
		tok = lx.scanNumber()

	case ch == '.' && lx.isNumberAfterDot():
		// .5
		tok = lx.scanNumber()

	case ch == '"' || ch == '\'':
		tok = lx.scanString(ch)

	case ch == '[' && lx.cursor.LongBracket() >= 0:
		tok = lx.scanLongString()

	default:
		tok = lx.scanOperatorOrPunct()
	}

	tok.Leading = lx.hold
	lx.hold = nil
	return tok
}

// Peek возвращает следующий токен, не потребляя его.
func (lx *Lexer) Peek() token.Token {
	if lx.look != nil {
		return *lx.look
	}
	t := lx.Next()
	lx.look = &t
	return t
}

// All лексит файл до конца и возвращает все значимые токены, включая EOF.
func (lx *Lexer) All() []token.Token {
	out := make([]token.Token, 0, len(lx.file.Content)/4)
	for {
		tok := lx.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

func (lx *Lexer) text(sp source.Span) string {
	return string(lx.file.Content[sp.Start:sp.End])
}
