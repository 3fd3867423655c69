package lexer

import (
	"luabundle/internal/token"
)

// scanNumber повторяет read_numeral: цифры, точки и экспонента со знаком
// (e/E для десятичных, p/P для 0x...). Хвост из букв - malformed number.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	expo1, expo2 := byte('e'), byte('E')
	if b1, ok := lx.cursor.PeekAt(1); ok && lx.cursor.Peek() == '0' && (b1 == 'x' || b1 == 'X') {
		lx.cursor.Bump()
		lx.cursor.Bump()
		expo1, expo2 = 'p', 'P'
	}
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch {
		case b == expo1 || b == expo2:
			lx.cursor.Bump()
			if s := lx.cursor.Peek(); s == '+' || s == '-' {
				lx.cursor.Bump()
			}
		case isHex(b) || b == '.':
			lx.cursor.Bump()
		default:
			goto done
		}
	}
done:
	malformed := false
	for !lx.cursor.EOF() && isIdentContinueByte(lx.cursor.Peek()) {
		lx.cursor.Bump()
		malformed = true
	}
	sp := lx.cursor.SpanFrom(start)
	if malformed || !validNumeral(lx.text(sp)) {
		lx.errLex(sp, "malformed number")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	return token.Token{Kind: token.Number, Span: sp, Text: lx.text(sp)}
}

// validNumeral: мантисса хотя бы с одной цифрой, не больше одной точки,
// экспонента с цифрами. read_numeral ест любые hex-цифры, даже в десятичных.
func validNumeral(s string) bool {
	digit, expo := isDec, byte('e')
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
		digit, expo = isHex, 'p'
	}
	i, digits, dot := 0, 0, false
	for ; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '.' && !dot:
			dot = true
		case digit(c):
			digits++
		default:
			goto mantissaDone
		}
	}
mantissaDone:
	if digits == 0 {
		return false
	}
	if i == len(s) {
		return true
	}
	if s[i]|0x20 != expo {
		return false
	}
	i++
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if i == len(s) {
		return false
	}
	for ; i < len(s); i++ {
		if !isDec(s[i]) {
			return false
		}
	}
	return true
}
