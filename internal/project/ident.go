package project

import (
	"errors"
	"fmt"
	"math"
	"path"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ModuleKind selects the parser used for a module.
type ModuleKind uint8

const (
	ModuleKindUnknown ModuleKind = iota
	ModuleKindSource
	ModuleKindRaster
	ModuleKindRasterSet
	ModuleKindGlyph
)

func (k ModuleKind) String() string {
	switch k {
	case ModuleKindSource:
		return "source"
	case ModuleKindRaster:
		return "raster"
	case ModuleKindRasterSet:
		return "raster-set"
	case ModuleKindGlyph:
		return "glyph"
	default:
		return "unknown"
	}
}

// расширения сравниваются без учёта регистра
var (
	sourceExts = map[string]struct{}{".lua": {}}
	imageExts  = map[string]struct{}{".png": {}, ".gif": {}, ".bmp": {}, ".jpg": {}, ".jpeg": {}}
	fontExts   = map[string]struct{}{".ttf": {}, ".otf": {}}
)

// IsImagePath reports whether the file name has a supported raster extension.
func IsImagePath(name string) bool {
	_, ok := imageExts[strings.ToLower(path.Ext(name))]
	return ok
}

// ErrBadReference is wrapped by every ParseReference failure.
var ErrBadReference = errors.New("bad module reference")

func badRef(arg, format string, args ...any) error {
	return fmt.Errorf("%w %q: %s", ErrBadReference, arg, fmt.Sprintf(format, args...))
}

// GlyphParams selects one character of a font at a point size.
type GlyphParams struct {
	Char rune
	Size float64
}

// String renders params in canonical form: "<char>,<size>".
func (g GlyphParams) String() string {
	return string(g.Char) + "," + strconv.FormatFloat(g.Size, 'f', -1, 64)
}

// Reference is a parsed require argument, before any filesystem access.
type Reference struct {
	Arg   string     // аргумент как в исходнике (после декодирования escape)
	Path  string     // очищенный slash-путь относительно корня проекта
	Kind  ModuleKind // по расширению
	Glyph GlyphParams
}

// ID returns the canonical module id.
func (r Reference) ID() string {
	if r.Kind == ModuleKindGlyph {
		return r.Path + "@" + r.Glyph.String()
	}
	return r.Path
}

// ParseReference разбирает аргумент require:
//
//	aspe.util            -> aspe/util.lua (source)
//	stitch_icons/3.png   -> raster
//	stitch_icons/        -> raster set
//	fonts/pixel.ttf@A,12 -> glyph
func ParseReference(arg string) (Reference, error) {
	if strings.TrimSpace(arg) == "" {
		return Reference{}, badRef(arg, "empty reference")
	}
	pathPart, params, hasParams := splitGlyphParams(arg)
	if !hasParams {
		// "@" без шрифта слева - часть имени файла (icons/a@2x.png),
		// если только справа не параметры глифа
		if i := strings.LastIndexByte(arg, '@'); i >= 0 {
			if _, err := parseGlyphParams(arg, arg[i+1:]); err == nil {
				return Reference{}, badRef(arg, "parameters are only valid for font references")
			}
		}
	}

	ref := Reference{Arg: arg}
	if strings.ContainsAny(pathPart, `/\`) {
		p, kind, err := parseExplicitPath(arg, pathPart)
		if err != nil {
			return Reference{}, err
		}
		ref.Path, ref.Kind = p, kind
	} else {
		p, err := parseDottedPath(arg, pathPart)
		if err != nil {
			return Reference{}, err
		}
		ref.Path, ref.Kind = p, ModuleKindSource
	}

	switch {
	case ref.Kind == ModuleKindGlyph && !hasParams:
		return Reference{}, badRef(arg, "font reference needs @<char>,<size>")
	case ref.Kind != ModuleKindGlyph && hasParams:
		return Reference{}, badRef(arg, "parameters are only valid for font references")
	case hasParams:
		g, err := parseGlyphParams(arg, params)
		if err != nil {
			return Reference{}, err
		}
		ref.Glyph = g
	}
	return ref, nil
}

// splitGlyphParams cuts arg at the first "@" whose left side ends in a font
// extension. Any other "@" belongs to the path.
func splitGlyphParams(arg string) (pathPart, params string, ok bool) {
	for i := 0; i < len(arg); i++ {
		if arg[i] != '@' {
			continue
		}
		if _, font := fontExts[strings.ToLower(path.Ext(arg[:i]))]; font {
			return arg[:i], arg[i+1:], true
		}
	}
	return arg, "", false
}

func parseExplicitPath(arg, raw string) (string, ModuleKind, error) {
	raw = strings.ReplaceAll(raw, `\`, "/")
	if strings.HasPrefix(raw, "/") || (len(raw) > 1 && raw[1] == ':') {
		return "", 0, badRef(arg, "absolute paths are not allowed")
	}
	isDir := strings.HasSuffix(raw, "/")
	trimmed := strings.TrimSuffix(raw, "/")
	for _, seg := range strings.Split(trimmed, "/") {
		if seg == "" {
			return "", 0, badRef(arg, "empty path segment")
		}
	}
	cleaned := path.Clean(trimmed)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", 0, badRef(arg, "path escapes the project root")
	}
	if cleaned == "." {
		return "", 0, badRef(arg, "reference names the project root")
	}
	if isDir {
		return cleaned + "/", ModuleKindRasterSet, nil
	}

	ext := strings.ToLower(path.Ext(cleaned))
	if _, ok := sourceExts[ext]; ok {
		return cleaned, ModuleKindSource, nil
	}
	if _, ok := imageExts[ext]; ok {
		return cleaned, ModuleKindRaster, nil
	}
	if _, ok := fontExts[ext]; ok {
		return cleaned, ModuleKindGlyph, nil
	}
	return "", 0, badRef(arg, "unsupported extension %q", ext)
}

func parseDottedPath(arg, raw string) (string, error) {
	segs := strings.Split(raw, ".")
	for _, seg := range segs {
		if seg == "" {
			return "", badRef(arg, "empty module name segment")
		}
	}
	return strings.Join(segs, "/") + ".lua", nil
}

// parseGlyphParams: "<char>,<size>", разделитель - последняя запятая,
// чтобы работал запрос самой запятой ("@,,12").
func parseGlyphParams(arg, params string) (GlyphParams, error) {
	i := strings.LastIndexByte(params, ',')
	if i < 0 {
		return GlyphParams{}, badRef(arg, "glyph parameters must be <char>,<size>")
	}
	char := norm.NFC.String(params[:i])
	if utf8.RuneCountInString(char) != 1 {
		return GlyphParams{}, badRef(arg, "glyph parameter must be exactly one character, got %q", params[:i])
	}
	r, _ := utf8.DecodeRuneInString(char)
	if r == utf8.RuneError {
		return GlyphParams{}, badRef(arg, "glyph character is not valid UTF-8")
	}
	size, err := strconv.ParseFloat(strings.TrimSpace(params[i+1:]), 64)
	if err != nil || size <= 0 || math.IsInf(size, 0) || math.IsNaN(size) {
		return GlyphParams{}, badRef(arg, "glyph size must be a positive number, got %q", params[i+1:])
	}
	return GlyphParams{Char: r, Size: size}, nil
}
