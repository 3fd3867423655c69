package asset

import (
	"image"
	"image/color"
	"strings"
)

// Matrix is a row-major 0/1 bitmap.
type Matrix struct {
	Width  int     `msgpack:"w"`
	Height int     `msgpack:"h"`
	Cells  []uint8 `msgpack:"c"` // len == Width*Height
}

// NewMatrix allocates an all-zero matrix.
func NewMatrix(w, h int) Matrix {
	if w <= 0 || h <= 0 {
		return Matrix{}
	}
	return Matrix{Width: w, Height: h, Cells: make([]uint8, w*h)}
}

// Empty reports whether the matrix has no cells.
func (m Matrix) Empty() bool {
	return m.Width == 0 || m.Height == 0
}

// At returns the cell at column x, row y.
func (m Matrix) At(x, y int) uint8 {
	return m.Cells[y*m.Width+x]
}

func (m Matrix) set(x, y int) {
	m.Cells[y*m.Width+x] = 1
}

// Valid reports whether dimensions and cells agree and every cell is 0 or 1.
func (m Matrix) Valid() bool {
	if m.Width < 0 || m.Height < 0 || len(m.Cells) != m.Width*m.Height {
		return false
	}
	for _, c := range m.Cells {
		if c > 1 {
			return false
		}
	}
	return m.Empty() == (len(m.Cells) == 0)
}

// Ones counts foreground cells.
func (m Matrix) Ones() int {
	n := 0
	for _, c := range m.Cells {
		n += int(c)
	}
	return n
}

// String renders rows of '.' and '#', handy in test failures.
func (m Matrix) String() string {
	var b strings.Builder
	for y := range m.Height {
		for x := range m.Width {
			if m.At(x, y) == 1 {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Classify compares every pixel with the top-left pixel of img.
func Classify(img image.Image) Matrix {
	b := img.Bounds()
	if b.Empty() {
		return Matrix{}
	}
	return ClassifyAgainst(img, img.At(b.Min.X, b.Min.Y))
}

// ClassifyAgainst marks every pixel whose RGBA differs from bg.
func ClassifyAgainst(img image.Image, bg color.Color) Matrix {
	b := img.Bounds()
	m := NewMatrix(b.Dx(), b.Dy())
	if m.Empty() {
		return m
	}
	br, bgc, bb, ba := bg.RGBA()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if r != br || g != bgc || bl != bb || a != ba {
				m.set(x-b.Min.X, y-b.Min.Y)
			}
		}
	}
	return m
}
