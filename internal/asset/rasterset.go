package asset

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
)

// ErrEmptyRasterSet is returned for a directory without images.
var ErrEmptyRasterSet = errors.New("directory contains no images")

// Frame is one image of a raster set.
type Frame struct {
	Name   string
	Pixels Matrix
}

// ListRasterSet returns the image file names of dir in natural order.
// isImage decides which names qualify.
func ListRasterSet(dir string, isImage func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && isImage(e.Name()) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrEmptyRasterSet)
	}
	slices.SortFunc(names, NaturalCompare)
	return names, nil
}

// NaturalCompare orders strings with digit runs compared by value:
// "2.png" < "10.png". Ties fall back to byte order.
func NaturalCompare(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		if isDigit(ca) && isDigit(cb) {
			si := i
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			sj := j
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			na := strings.TrimLeft(a[si:i], "0")
			nb := strings.TrimLeft(b[sj:j], "0")
			if len(na) != len(nb) {
				return len(na) - len(nb)
			}
			if c := strings.Compare(na, nb); c != 0 {
				return c
			}
			continue
		}
		if ca != cb {
			return int(ca) - int(cb)
		}
		i++
		j++
	}
	if c := (len(a) - i) - (len(b) - j); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
