package asset

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// ErrMissingGlyph is returned when the font has no glyph for the character.
var ErrMissingGlyph = errors.New("font has no glyph for character")

// GlyphDPI: при 72 DPI размер в пунктах равен размеру в пикселях.
const GlyphDPI = 72

// RenderGlyph rasterizes ch from the font data at size points and classifies
// it against white. A glyph without ink bounds (space) gives an empty matrix.
func RenderGlyph(data []byte, ch rune, size float64) (Matrix, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return Matrix{}, fmt.Errorf("parse font: %w", err)
	}
	var buf sfnt.Buffer
	gi, err := f.GlyphIndex(&buf, ch)
	if err != nil {
		return Matrix{}, fmt.Errorf("glyph index: %w", err)
	}
	if gi == 0 {
		return Matrix{}, fmt.Errorf("%w %q", ErrMissingGlyph, ch)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     GlyphDPI,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return Matrix{}, fmt.Errorf("create face: %w", err)
	}
	defer face.Close()

	bounds, _, ok := face.GlyphBounds(ch)
	if !ok {
		return Matrix{}, fmt.Errorf("%w %q", ErrMissingGlyph, ch)
	}
	minX, minY := bounds.Min.X.Floor(), bounds.Min.Y.Floor()
	w, h := bounds.Max.X.Ceil()-minX, bounds.Max.Y.Ceil()-minY
	if w <= 0 || h <= 0 {
		return Matrix{}, nil
	}

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	d := font.Drawer{
		Dst:  canvas,
		Src:  image.Black,
		Face: face,
		// точка отсчёта сдвигается так, чтобы bbox начинался в (0,0)
		Dot: fixed.P(-minX, -minY),
	}
	d.DrawString(string(ch))
	return ClassifyAgainst(canvas, color.White), nil
}
