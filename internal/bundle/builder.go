package bundle

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"luabundle/internal/cache"
	"luabundle/internal/diag"
	"luabundle/internal/project"
	"luabundle/internal/source"
)

// EventKind is the stage of a module reported to Config.Observer.
type EventKind uint8

const (
	EventQueued EventKind = iota // id впервые запрошен, разбор начинается
	EventParsed                  // модуль разобран, зависимости ещё не разрешены
	EventDone                    // модуль и все его зависимости в кэше
)

func (k EventKind) String() string {
	switch k {
	case EventQueued:
		return "queued"
	case EventParsed:
		return "parsed"
	case EventDone:
		return "done"
	default:
		return "unknown"
	}
}

// Event describes the progress of one module.
type Event struct {
	Kind   EventKind
	ID     string
	Module project.ModuleKind
	Depth  int // глубина в стеке разрешения, entry = 0
}

// Config configures a Builder.
type Config struct {
	Resolver *project.Resolver
	Files    *source.FileSet   // nil - создаётся новый
	Assets   *cache.DiskCache  // nil отключает дисковый кэш ассетов
	Reporter diag.Reporter     // предупреждения сканера и ассетов
	Logger   *log.Logger       // nil - без логов
	Observer func(Event)       // вызывается синхронно из Build
}

// Graph is the result of a successful build.
type Graph struct {
	Entry   string // канонический id entry-модуля
	Modules *Cache
	Files   *source.FileSet
}

// Builder resolves one module graph. It is not safe for concurrent use;
// create a new Builder per build.
type Builder struct {
	cfg      Config
	resolver *project.Resolver
	files    *source.FileSet
	cache    *Cache
	stack    []string // id в процессе разбора, для поиска циклов
}

// NewBuilder returns a builder with an empty cache.
func NewBuilder(cfg Config) *Builder {
	files := cfg.Files
	if files == nil {
		files = source.NewFileSet()
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = &project.Resolver{Root: files.BaseDir()}
	}
	return &Builder{
		cfg:      cfg,
		resolver: resolver,
		files:    files,
		cache:    NewCache(),
	}
}

// Cache exposes the modules resolved so far.
func (b *Builder) Cache() *Cache { return b.cache }

// Build resolves entry and everything it requires.
func (b *Builder) Build(entry string) (*Graph, error) {
	return b.BuildContext(context.Background(), entry)
}

// BuildContext is Build with cancellation checked between modules.
func (b *Builder) BuildContext(ctx context.Context, entry string) (*Graph, error) {
	m, err := b.resolve(ctx, entry, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", entry, err)
	}
	if b.cfg.Logger != nil {
		b.cfg.Logger.Info("graph resolved", "entry", m.ID, "modules", b.cache.Len())
	}
	return &Graph{Entry: m.ID, Modules: b.cache, Files: b.files}, nil
}

// Resolve returns the module for a require argument, resolving it and its
// dependencies on first use.
func (b *Builder) Resolve(arg string) (*Module, error) {
	return b.resolve(context.Background(), arg, nil, nil)
}

func (b *Builder) resolve(ctx context.Context, arg string, from *Module, ref *Reference) (*Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fromID, span := "", source.NoSpan
	if from != nil {
		fromID = from.ID
	}
	if ref != nil {
		span = ref.Span
	}

	pref, err := project.ParseReference(arg)
	if err != nil {
		return nil, &ReferenceError{Ref: arg, From: fromID, Span: span, Reason: err}
	}
	id := pref.ID()
	if m, ok := b.cache.Get(id); ok {
		return m, nil
	}
	if i := slices.Index(b.stack, id); i >= 0 {
		chain := append(slices.Clone(b.stack[i:]), id)
		return nil, &CycleError{Chain: chain, Span: span}
	}

	ident, err := b.resolver.Bind(pref)
	if err != nil {
		var nf *project.NotFoundError
		if errors.As(err, &nf) {
			return nil, &ResolutionError{Path: nf.Path, Ref: arg, From: fromID, Span: span, Tried: nf.Tried}
		}
		return nil, err
	}

	b.stack = append(b.stack, id)
	defer func() { b.stack = b.stack[:len(b.stack)-1] }()
	depth := len(b.stack) - 1
	b.observe(Event{Kind: EventQueued, ID: id, Module: ident.Kind, Depth: depth})

	m, err := b.parserFor(ident.Kind).Parse(ident)
	if err != nil {
		return nil, err
	}
	b.observe(Event{Kind: EventParsed, ID: id, Module: ident.Kind, Depth: depth})

	if m.Source != nil {
		for i := range m.Source.Refs {
			r := &m.Source.Refs[i]
			dep, err := b.resolve(ctx, r.Arg, m, r)
			if err != nil {
				return nil, err
			}
			r.Target = dep.ID
		}
	}

	b.cache.insert(m)
	b.observe(Event{Kind: EventDone, ID: id, Module: ident.Kind, Depth: depth})
	if b.cfg.Logger != nil {
		b.cfg.Logger.Debug("module resolved", "id", id, "kind", ident.Kind, "deps", len(m.Deps()), "from", fromID)
	}
	return m, nil
}

func (b *Builder) observe(ev Event) {
	if b.cfg.Observer != nil {
		b.cfg.Observer(ev)
	}
}
