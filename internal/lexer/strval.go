package lexer

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"luabundle/internal/token"
)

// ErrNotString is returned by StringValue for tokens that are not string literals.
var ErrNotString = errors.New("token is not a string literal")

// StringValue декодирует значение строкового литерала (короткого или длинного).
func StringValue(tok token.Token) (string, error) {
	switch tok.Kind {
	case token.String:
		return DecodeString(tok.Text)
	case token.LongString:
		return DecodeLongString(tok.Text)
	default:
		return "", ErrNotString
	}
}

// DecodeLongString снимает скобки [==[ ]==] и первый перевод строки сразу
// после открывающей скобки.
func DecodeLongString(lit string) (string, error) {
	if len(lit) < 4 || lit[0] != '[' {
		return "", fmt.Errorf("malformed long string %q", lit)
	}
	level := 1
	for level < len(lit) && lit[level] == '=' {
		level++
	}
	// level теперь индекс второй '['
	open := level + 1
	closeLen := open
	if len(lit) < open+closeLen || lit[level] != '[' {
		return "", fmt.Errorf("malformed long string %q", lit)
	}
	body := lit[open : len(lit)-closeLen]
	switch {
	case strings.HasPrefix(body, "\r\n"), strings.HasPrefix(body, "\n\r"):
		body = body[2:]
	case strings.HasPrefix(body, "\n"), strings.HasPrefix(body, "\r"):
		body = body[1:]
	}
	return body, nil
}

// DecodeString декодирует короткий литерал вместе с кавычками по правилам Lua 5.4:
// \a \b \f \n \r \t \v \\ \" \' \<newline> \z \xXX \ddd \u{XXX}.
func DecodeString(lit string) (string, error) {
	if len(lit) < 2 || (lit[0] != '"' && lit[0] != '\'') || lit[len(lit)-1] != lit[0] {
		return "", fmt.Errorf("malformed string literal %q", lit)
	}
	body := lit[1 : len(lit)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}

	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", errors.New("unfinished escape sequence")
		}
		c = body[i]
		switch c {
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case '\\', '"', '\'':
			b.WriteByte(c)
		case '\n', '\r':
			b.WriteByte('\n')
			if i+1 < len(body) && isNewline(body[i+1]) && body[i+1] != c {
				i++
			}
		case 'z':
			for i+1 < len(body) && (isSpace(body[i+1]) || isNewline(body[i+1])) {
				i++
			}
		case 'x':
			if i+2 >= len(body) || !isHex(body[i+1]) || !isHex(body[i+2]) {
				return "", errors.New("hexadecimal digit expected")
			}
			b.WriteByte(hexVal(body[i+1])<<4 | hexVal(body[i+2]))
			i += 2
		case 'u':
			r, n, err := decodeUTF8Escape(body[i+1:])
			if err != nil {
				return "", err
			}
			b.WriteString(encodeLuaUTF8(r))
			i += n
		default:
			if !isDec(c) {
				return "", fmt.Errorf("invalid escape sequence '\\%c'", c)
			}
			v := 0
			n := 0
			for n < 3 && i < len(body) && isDec(body[i]) {
				v = v*10 + int(body[i]-'0')
				i++
				n++
			}
			i--
			if v > 255 {
				return "", errors.New("decimal escape too large")
			}
			b.WriteByte(byte(v))
		}
	}
	return b.String(), nil
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// decodeUTF8Escape разбирает "{XXX}" после \u; возвращает значение и число съеденных байт.
func decodeUTF8Escape(s string) (rune, int, error) {
	if len(s) < 3 || s[0] != '{' {
		return 0, 0, errors.New("missing '{' in \\u{xxxx}")
	}
	var v uint32
	i := 1
	for i < len(s) && isHex(s[i]) {
		v = v<<4 | uint32(hexVal(s[i]))
		if v > 0x7FFFFFFF {
			return 0, 0, errors.New("UTF-8 value too large")
		}
		i++
	}
	if i == 1 {
		return 0, 0, errors.New("hexadecimal digit expected")
	}
	if i >= len(s) || s[i] != '}' {
		return 0, 0, errors.New("missing '}' in \\u{xxxx}")
	}
	return rune(v), i + 1, nil
}

// encodeLuaUTF8 кодирует как luaO_utf8esc: допускаются суррогаты и значения до 2^31.
func encodeLuaUTF8(r rune) string {
	if r >= 0 && r <= utf8.MaxRune && (r < 0xD800 || r > 0xDFFF) {
		return string(r)
	}
	x := uint32(r)
	var buf [8]byte
	n := 1
	mfb := uint32(0x3f)
	for x > mfb {
		buf[8-n] = byte(0x80 | (x & 0x3f))
		n++
		x >>= 6
		mfb >>= 1
	}
	buf[8-n] = byte((^mfb << 1) | x)
	return string(buf[8-n:])
}
