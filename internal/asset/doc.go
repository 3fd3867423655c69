// Package asset turns raster images and font glyphs into binary matrices.
//
// Every pixel is compared with a background colour: the top-left pixel for
// images, white for rendered glyphs. Pixels equal to the background are 0,
// all others 1. Matrices are row-major, rows top to bottom.
package asset
