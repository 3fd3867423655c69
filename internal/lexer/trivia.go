package lexer

import (
	"luabundle/internal/token"
)

// skipShebang: первая строка на '#' пропускается интерпретатором (#!/usr/bin/lua).
func (lx *Lexer) skipShebang() {
	if lx.cursor.Peek() != '#' {
		return
	}
	start := lx.cursor.Mark()
	lx.cursor.SkipLine()
	sp := lx.cursor.SpanFrom(start)
	lx.hold = append(lx.hold, token.Trivia{Kind: token.TriviaShebang, Span: sp, Text: lx.text(sp)})
}

// collectLeadingTrivia собирает подряд идущие trivia перед значимым токеном.
// - ' ', '\t', '\v', '\f' коалесцируются в один TriviaSpace
// - последовательные '\n' / '\r' коалесцируются в один TriviaNewline
// - --... до конца строки -> TriviaLineComment
// - --[[ ... ]] и --[==[ ... ]==] -> TriviaBlockComment (если не закрыт - ошибка, обрезаем на EOF)
func (lx *Lexer) collectLeadingTrivia() {
	for !lx.cursor.EOF() {
		start := lx.cursor.Mark()
		b := lx.cursor.Peek()

		switch {
		case isSpace(b):
			for isSpace(lx.cursor.Peek()) && !lx.cursor.EOF() {
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.TriviaSpace, start)
			continue

		case isNewline(b):
			for isNewline(lx.cursor.Peek()) && !lx.cursor.EOF() {
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.TriviaNewline, start)
			continue

		case b == '-':
			if lx.scanCommentIntoHold() {
				continue
			}
		}

		// нет больше trivia
		return
	}
}

func (lx *Lexer) pushTrivia(kind token.TriviaKind, start Mark) {
	sp := lx.cursor.SpanFrom(start)
	lx.hold = append(lx.hold, token.Trivia{Kind: kind, Span: sp, Text: lx.text(sp)})
}

// --... , --[[...]]
func (lx *Lexer) scanCommentIntoHold() bool {
	start := lx.cursor.Mark()
	if !lx.tryOp("--") {
		return false
	}

	if lx.cursor.Peek() == '[' {
		if level := lx.cursor.LongBracket(); level >= 0 {
			if !lx.cursor.SkipLongBracket(level) {
				sp := lx.cursor.SpanFrom(start)
				lx.errLex(sp, "unfinished long comment")
			}
			lx.pushTrivia(token.TriviaBlockComment, start)
			return true
		}
	}

	lx.cursor.SkipLine()
	lx.pushTrivia(token.TriviaLineComment, start)
	return true
}
