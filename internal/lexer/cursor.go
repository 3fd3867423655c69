package lexer

import (
	"bytes"
	"fmt"

	"fortio.org/safecast"

	"luabundle/internal/source"
)

// Cursor - позиция чтения внутри одного Lua-файла.
type Cursor struct {
	File *source.File
	Off  uint32
	end  uint32
}

// NewCursor creates a cursor at the start of f.
func NewCursor(f *source.File) Cursor {
	end, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	return Cursor{File: f, end: end}
}

// EOF проверяет, достигнут ли конец файла
func (c *Cursor) EOF() bool {
	return c.Off >= c.end
}

// Peek читает текущий байт, если есть, иначе возвращает 0
func (c *Cursor) Peek() byte {
	if c.EOF() {
		return 0
	}
	return c.File.Content[c.Off]
}

// PeekAt returns the byte n positions ahead of the cursor.
func (c *Cursor) PeekAt(n uint32) (byte, bool) {
	if c.Off+n >= c.end {
		return 0, false
	}
	return c.File.Content[c.Off+n], true
}

// Rest returns the unread content.
func (c *Cursor) Rest() []byte {
	return c.File.Content[c.Off:c.end]
}

// Bump перемещает курсор на один байт вперед и возвращает прочитанный байт
func (c *Cursor) Bump() byte {
	if c.EOF() {
		return 0
	}
	b := c.File.Content[c.Off]
	c.Off++
	return b
}

// EatPrefix consumes s if the unread content starts with it.
func (c *Cursor) EatPrefix(s string) bool {
	if !bytes.HasPrefix(c.Rest(), []byte(s)) {
		return false
	}
	c.Off += uint32(len(s))
	return true
}

// SkipLine moves to the next '\n' or '\r' without consuming it.
func (c *Cursor) SkipLine() {
	if i := bytes.IndexAny(c.Rest(), "\r\n"); i >= 0 {
		c.Off += uint32(i)
		return
	}
	c.Off = c.end
}

// LongBracket reports the level n of an opening "[" + "="*n + "[" under the
// cursor, or -1 when there is none. The cursor does not move.
func (c *Cursor) LongBracket() int {
	rest := c.Rest()
	if len(rest) == 0 || rest[0] != '[' {
		return -1
	}
	level := 0
	for level+1 < len(rest) && rest[level+1] == '=' {
		level++
	}
	if level+1 < len(rest) && rest[level+1] == '[' {
		return level
	}
	return -1
}

// SkipLongBracket consumes an opening bracket of level and everything up to
// the matching "]" + "="*level + "]". Without a match it stops at EOF and
// returns false.
func (c *Cursor) SkipLongBracket(level int) bool {
	c.Off += uint32(level + 2)
	closing := make([]byte, 0, level+2)
	closing = append(closing, ']')
	closing = append(closing, bytes.Repeat([]byte{'='}, level)...)
	closing = append(closing, ']')
	i := bytes.Index(c.Rest(), closing)
	if i < 0 {
		c.Off = c.end
		return false
	}
	c.Off += uint32(i + len(closing))
	return true
}

// Mark это метка, что бы быстро получать Span читаемого фрагмента
type Mark uint32

// Mark сохраняет текущую позицию курсора
func (c *Cursor) Mark() Mark {
	return Mark(c.Off)
}

// SpanFrom получает Span для фрагмента, начиная с метки
func (c *Cursor) SpanFrom(m Mark) source.Span {
	return source.Span{
		File:  c.File.ID,
		Start: uint32(m),
		End:   c.Off,
	}
}

// Reset возвращает курсор назад к метке
func (c *Cursor) Reset(m Mark) {
	c.Off = uint32(m)
}
