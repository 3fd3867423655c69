package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"fortio.org/safecast"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	"golang.org/x/sync/errgroup"

	"luabundle/internal/bundle"
	"luabundle/internal/diag"
	"luabundle/internal/project"
	"luabundle/internal/source"
)

// ErrSyntax is wrapped by ParseError for syntax check failures.
var ErrSyntax = errors.New("syntax error")

// CheckSyntax compiles every rewritten source body with a Lua 5.1 compiler,
// wrapped the way the bundle wraps it (a function without parameters), so
// "..." in a module body is rejected just as it will be at load time.
// Blocks are checked concurrently by at most workers goroutines; the error
// of the first failing block in bundle order is returned.
func CheckSyntax(ctx context.Context, g *bundle.Graph, blocks []bundle.Block, workers int) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	errs := make([]error, len(blocks))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := range blocks {
		if blocks[i].Kind != project.ModuleKindSource {
			continue
		}
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			errs[i] = checkBlock(g, blocks[i])
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// defineWrapper - первая строка обёртки; номера строк тела сдвигаются на неё.
const defineWrapper = "return function()\n"

func checkBlock(g *bundle.Graph, b bundle.Block) error {
	line, msg, err := compileBody(b.ID, b.Body)
	if err == nil {
		return nil
	}
	pe := &bundle.ParseError{ID: b.ID, Path: b.ID, Span: source.NoSpan, Code: diag.ParSyntax}
	if line <= 0 {
		pe.Err = fmt.Errorf("%w: %v", ErrSyntax, err)
		return pe
	}
	pe.Err = fmt.Errorf("%w: line %d: %s", ErrSyntax, line, msg)
	uline, convErr := safecast.Conv[uint32](line)
	if m, ok := g.Modules.Get(b.ID); ok && m.Source != nil && convErr == nil {
		if f := g.Files.Get(m.Source.File); f != nil {
			// переписывание не меняет число строк, номер строки совпадает с исходником
			pe.Span = f.LineSpan(uline)
		}
	}
	return pe
}

// compileBody returns the body line of the first error, or 0 when the error
// has no position inside the body.
func compileBody(id, body string) (int, string, error) {
	chunk, err := parse.Parse(strings.NewReader(defineWrapper+body+"\nend"), id)
	if err != nil {
		var perr *parse.Error
		if errors.As(err, &perr) {
			return clampLine(perr.Pos.Line-1, body), perr.Message, err
		}
		return 0, "", err
	}
	if _, err := lua.Compile(chunk, id); err != nil {
		var cerr *lua.CompileError
		if errors.As(err, &cerr) {
			return clampLine(cerr.Line-1, body), cerr.Message, err
		}
		return 0, "", err
	}
	return 0, "", nil
}

// clampLine keeps errors reported on the closing "end" inside the body.
func clampLine(line int, body string) int {
	if n := strings.Count(body, "\n") + 1; line > n {
		return n
	}
	return line
}
