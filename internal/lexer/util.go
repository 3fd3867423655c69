package lexer

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"fortio.org/safecast"
)

// ===== Работа с рунами поверх Cursor =====

// peekRune читает текущий байт как руну
func (lx *Lexer) peekRune() (r rune, size int) {
	if lx.cursor.EOF() {
		return utf8.RuneError, 0
	}
	b := lx.cursor.Peek()
	if b < utf8.RuneSelf { // fast-path ASCII
		return rune(b), 1
	}
	return utf8.DecodeRune(lx.cursor.Rest())
}

// bumpRune читает текущий байт как руну и перемещает курсор на размер руны
func (lx *Lexer) bumpRune() {
	_, sz := lx.peekRune()
	if sz == 0 {
		return
	}
	usz, err := safecast.Conv[uint32](sz)
	if err != nil {
		panic(fmt.Errorf("bumpRune overflow: %w", err))
	}
	lx.cursor.Off += usz
}

// ===== Классификаторы =====

func isIdentStartByte(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
func isIdentContinueByte(b byte) bool {
	return isIdentStartByte(b) || isDec(b)
}

func isDec(b byte) bool { return b >= '0' && b <= '9' }
func isHex(b byte) bool {
	return (b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'f') ||
		(b >= 'A' && b <= 'F')
}

func isSpace(b byte) bool   { return b == ' ' || b == '\t' || b == '\v' || b == '\f' }
func isNewline(b byte) bool { return b == '\n' || b == '\r' }

// Проверка для кейса ".5": текущая точка, дальше цифра?
func (lx *Lexer) isNumberAfterDot() bool {
	b1, ok := lx.cursor.PeekAt(1)
	return ok && lx.cursor.Peek() == '.' && isDec(b1)
}

// ===== Матчеры последовательностей операторов (жадность) =====

// tryOp съедает op, если он стоит под курсором.
func (lx *Lexer) tryOp(op string) bool {
	return lx.cursor.EatPrefix(op)
}

func quoteForMessage(s string) string {
	return strconv.QuoteToASCII(s)
}
