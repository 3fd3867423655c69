package bundle

import (
	"luabundle/internal/asset"
	"luabundle/internal/project"
	"luabundle/internal/source"
)

// Reference is one logical require expression of a source module.
// Occurrences with identical Text are merged; Span is the first one.
type Reference struct {
	Text   string      // точный срез исходника: require ( "b" )
	Arg    string      // декодированный строковый аргумент
	Span   source.Span // первое вхождение
	Count  int         // сколько раз сканер встретил этот текст
	Target string      // канонический id после разрешения
}

// SourceUnit is the payload of a Lua source module.
type SourceUnit struct {
	File source.FileID
	Text []byte
	Refs []Reference
}

// Module is a tagged union over project.ModuleKind. Exactly one payload is
// set: Source for source modules, Pixels for raster and glyph modules,
// Frames for raster sets.
type Module struct {
	ID     string
	Kind   project.ModuleKind
	Path   string // slash-путь относительно корня
	Origin string // файл или каталог на диске
	Glyph  project.GlyphParams

	Source *SourceUnit
	Pixels asset.Matrix
	Frames []asset.Frame

	ContentHash project.Digest
}

// Deps returns the distinct target ids in source-appearance order.
func (m *Module) Deps() []string {
	if m == nil || m.Source == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(m.Source.Refs))
	out := make([]string, 0, len(m.Source.Refs))
	for _, r := range m.Source.Refs {
		if r.Target == "" {
			continue
		}
		if _, ok := seen[r.Target]; ok {
			continue
		}
		seen[r.Target] = struct{}{}
		out = append(out, r.Target)
	}
	return out
}
