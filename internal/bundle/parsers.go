package bundle

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"luabundle/internal/asset"
	"luabundle/internal/cache"
	"luabundle/internal/diag"
	"luabundle/internal/project"
	"luabundle/internal/source"
)

// Parser turns a bound identity into a module payload. Dependencies of the
// returned module are not resolved yet.
type Parser interface {
	Parse(ident project.Identity) (*Module, error)
}

func (b *Builder) parserFor(kind project.ModuleKind) Parser {
	switch kind {
	case project.ModuleKindSource:
		return sourceParser{b}
	case project.ModuleKindRaster:
		return rasterParser{b}
	case project.ModuleKindRasterSet:
		return rasterSetParser{b}
	case project.ModuleKindGlyph:
		return glyphParser{b}
	default:
		return unknownParser{}
	}
}

func newModule(ident project.Identity) *Module {
	return &Module{
		ID:     ident.ID,
		Kind:   ident.Kind,
		Path:   ident.Path,
		Origin: ident.Origin,
		Glyph:  ident.Glyph,
	}
}

type sourceParser struct{ b *Builder }

func (p sourceParser) Parse(ident project.Identity) (*Module, error) {
	id, err := p.b.files.LoadAs(ident.Origin, ident.Path)
	if err != nil {
		return nil, &ParseError{ID: ident.ID, Path: ident.Path, Span: source.NoSpan, Code: diag.IOReadFailed, Err: err}
	}
	f := p.b.files.Get(id)
	refs, err := Scan(f, p.b.cfg.Reporter)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.ID = ident.ID
		}
		return nil, err
	}
	m := newModule(ident)
	m.Source = &SourceUnit{File: id, Text: f.Content, Refs: refs}
	m.ContentHash = f.Hash
	return m, nil
}

// assetParser общий путь для растров, наборов и глифов: ключ кэша по
// содержимому, попадание в кэш пропускает декодирование.
type assetParser struct {
	b      *Builder
	ident  project.Identity
	params string
}

func (a assetParser) decodeError(err error) error {
	return &ParseError{ID: a.ident.ID, Path: a.ident.Path, Span: source.NoSpan, Code: diag.ParAssetDecode, Err: err}
}

func (a assetParser) lookup(content project.Digest) (project.Digest, *cache.Payload, bool) {
	key := cache.Key(a.ident.Kind, a.params, content)
	payload, ok := a.b.cfg.Assets.Get(key)
	if ok && a.b.cfg.Logger != nil {
		a.b.cfg.Logger.Debug("asset cache hit", "id", a.ident.ID, "key", key.Short())
	}
	return key, payload, ok
}

func (a assetParser) store(key project.Digest, payload *cache.Payload) {
	if err := a.b.cfg.Assets.Put(key, payload); err != nil && a.b.cfg.Logger != nil {
		// кэш необязателен, сборка продолжается
		a.b.cfg.Logger.Warn("asset cache write failed", "id", a.ident.ID, "err", err)
	}
}

type rasterParser struct{ b *Builder }

func (p rasterParser) Parse(ident project.Identity) (*Module, error) {
	a := assetParser{b: p.b, ident: ident}
	// #nosec G304 -- origin comes from the resolver
	data, err := os.ReadFile(ident.Origin)
	if err != nil {
		return nil, a.decodeError(err)
	}
	m := newModule(ident)
	m.ContentHash = sha256.Sum256(data)

	key, payload, ok := a.lookup(m.ContentHash)
	if ok && len(payload.Frames) == 1 {
		m.Pixels = payload.Frames[0]
		return m, nil
	}
	pixels, err := asset.DecodeRaster(bytes.NewReader(data))
	if err != nil {
		return nil, a.decodeError(err)
	}
	m.Pixels = pixels
	a.store(key, &cache.Payload{Kind: uint8(ident.Kind), Frames: []asset.Matrix{pixels}})
	return m, nil
}

type rasterSetParser struct{ b *Builder }

func (p rasterSetParser) Parse(ident project.Identity) (*Module, error) {
	a := assetParser{b: p.b, ident: ident}
	names, err := asset.ListRasterSet(ident.Origin, project.IsImagePath)
	if err != nil {
		return nil, a.decodeError(err)
	}
	contents := make([][]byte, len(names))
	h := sha256.New()
	for i, name := range names {
		// #nosec G304 -- name is listed from the resolved directory
		data, err := os.ReadFile(filepath.Join(ident.Origin, name))
		if err != nil {
			return nil, a.decodeError(err)
		}
		contents[i] = data
		_, _ = h.Write([]byte(name))
		_, _ = h.Write([]byte{0})
		sum := sha256.Sum256(data)
		_, _ = h.Write(sum[:])
	}
	m := newModule(ident)
	copy(m.ContentHash[:], h.Sum(nil))

	key, payload, ok := a.lookup(m.ContentHash)
	if ok && len(payload.Frames) == len(names) && len(payload.Names) == len(names) {
		m.Frames = make([]asset.Frame, len(names))
		for i := range names {
			m.Frames[i] = asset.Frame{Name: payload.Names[i], Pixels: payload.Frames[i]}
		}
		return m, nil
	}

	m.Frames = make([]asset.Frame, 0, len(names))
	stored := &cache.Payload{Kind: uint8(ident.Kind), Names: names}
	for i, name := range names {
		pixels, err := asset.DecodeRaster(bytes.NewReader(contents[i]))
		if err != nil {
			return nil, a.decodeError(fmt.Errorf("%s: %w", name, err))
		}
		m.Frames = append(m.Frames, asset.Frame{Name: name, Pixels: pixels})
		stored.Frames = append(stored.Frames, pixels)
	}
	a.store(key, stored)
	return m, nil
}

type glyphParser struct{ b *Builder }

func (p glyphParser) Parse(ident project.Identity) (*Module, error) {
	a := assetParser{b: p.b, ident: ident, params: ident.Glyph.String()}
	// #nosec G304 -- origin comes from the resolver
	data, err := os.ReadFile(ident.Origin)
	if err != nil {
		return nil, a.decodeError(err)
	}
	m := newModule(ident)
	m.ContentHash = sha256.Sum256(data)

	key, payload, ok := a.lookup(m.ContentHash)
	if ok && len(payload.Frames) == 1 {
		m.Pixels = payload.Frames[0]
	} else {
		pixels, err := asset.RenderGlyph(data, ident.Glyph.Char, ident.Glyph.Size)
		if err != nil {
			return nil, a.decodeError(err)
		}
		m.Pixels = pixels
		a.store(key, &cache.Payload{Kind: uint8(ident.Kind), Params: a.params, Frames: []asset.Matrix{pixels}})
	}
	if m.Pixels.Empty() {
		diag.ReportWarning(p.b.cfg.Reporter, diag.AstEmptyGlyph, source.NoSpan,
			fmt.Sprintf("glyph %s renders no pixels", ident.ID)).Emit()
	}
	return m, nil
}

type unknownParser struct{}

func (unknownParser) Parse(ident project.Identity) (*Module, error) {
	return nil, &ParseError{
		ID:   ident.ID,
		Path: ident.Path,
		Span: source.NoSpan,
		Code: diag.ParAssetDecode,
		Err:  fmt.Errorf("unsupported module kind %s", ident.Kind),
	}
}
