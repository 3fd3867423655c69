package asset

import (
	"fmt"
	"image"
	"io"

	// форматы для image.Decode
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

// DecodeRaster decodes a png, gif, jpeg or bmp stream and classifies it.
func DecodeRaster(r io.Reader) (Matrix, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return Matrix{}, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Empty() {
		return Matrix{}, fmt.Errorf("decode image: empty %s image", format)
	}
	return Classify(img), nil
}
