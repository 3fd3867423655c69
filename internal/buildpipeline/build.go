// Package buildpipeline orchestrates a bundle build: resolve, assemble,
// optional syntax check, optional archive packing, then atomic writes.
package buildpipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"luabundle/internal/bundle"
	"luabundle/internal/cache"
	"luabundle/internal/diag"
	"luabundle/internal/project"
	"luabundle/internal/source"
)

// BuildRequest configures one bundle build.
type BuildRequest struct {
	Root         string // корень проекта, относительно него разрешаются ссылки
	Entry        string // аргумент require entry-модуля
	OutputPath   string
	ReturnEntry  bool
	CheckSyntax  bool
	CheckWorkers int
	FontDirs     []string
	Assets       *cache.DiskCache // nil отключает кэш ассетов
	Archive      *ArchiveRequest  // nil - без архива
	Files        *source.FileSet
	Reporter     diag.Reporter
	Logger       *log.Logger
	Progress     ProgressSink
}

// BuildResult captures build artefacts and timings.
type BuildResult struct {
	OutputPath  string
	ArchivePath string
	Graph       *bundle.Graph
	Size        int
	Timings     Timings
}

// Build resolves the module graph of req.Entry and writes the bundle. Nothing
// is written unless every module resolved and serialized and the archive, when
// requested, was packed in memory.
func Build(ctx context.Context, req *BuildRequest) (BuildResult, error) {
	var result BuildResult
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing build request")
	}
	if req.Entry == "" {
		return result, fmt.Errorf("missing entry module")
	}
	if req.OutputPath == "" {
		return result, fmt.Errorf("missing output path")
	}
	root := req.Root
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return result, fmt.Errorf("failed to resolve root: %w", err)
	}
	files := req.Files
	if files == nil {
		files = source.NewFileSetWithBase(root)
	}

	// resolve
	start := time.Now()
	emitStage(req.Progress, StageResolve, StatusWorking, nil, 0)
	builder := bundle.NewBuilder(bundle.Config{
		Resolver: project.NewResolver(root, req.FontDirs),
		Files:    files,
		Assets:   req.Assets,
		Reporter: req.Reporter,
		Logger:   req.Logger,
		Observer: progressObserver(req.Progress),
	})
	g, err := builder.BuildContext(ctx, req.Entry)
	result.Timings.Set(StageResolve, time.Since(start))
	if err != nil {
		emitStage(req.Progress, StageResolve, StatusError, err, result.Timings.Duration(StageResolve))
		return result, err
	}
	result.Graph = g
	emitStage(req.Progress, StageResolve, StatusDone, nil, result.Timings.Duration(StageResolve))

	// assemble
	start = time.Now()
	emitStage(req.Progress, StageAssemble, StatusWorking, nil, 0)
	blocks, err := bundle.Render(g, req.Reporter)
	var out bytes.Buffer
	if err == nil {
		err = bundle.WriteBundle(&out, g.Entry, blocks, req.ReturnEntry)
	}
	result.Timings.Set(StageAssemble, time.Since(start))
	if err != nil {
		err = fmt.Errorf("assemble: %w", err)
		emitStage(req.Progress, StageAssemble, StatusError, err, 0)
		return result, err
	}
	emitStage(req.Progress, StageAssemble, StatusDone, nil, result.Timings.Duration(StageAssemble))

	// check
	if req.CheckSyntax {
		start = time.Now()
		emitStage(req.Progress, StageCheck, StatusWorking, nil, 0)
		err = CheckSyntax(ctx, g, blocks, req.CheckWorkers)
		result.Timings.Set(StageCheck, time.Since(start))
		if err != nil {
			emitStage(req.Progress, StageCheck, StatusError, err, 0)
			return result, err
		}
		emitStage(req.Progress, StageCheck, StatusDone, nil, result.Timings.Duration(StageCheck))
	}

	outputPath := req.OutputPath
	if !filepath.IsAbs(outputPath) {
		outputPath = filepath.Join(root, outputPath)
	}

	// archive: zip собирается в памяти, на диск пишется вместе с бандлом
	var (
		archivePath string
		archiveData []byte
	)
	if req.Archive != nil {
		start = time.Now()
		emitStage(req.Progress, StageArchive, StatusWorking, nil, 0)
		ar := *req.Archive
		if ar.Root == "" {
			ar.Root = root
		}
		if !filepath.IsAbs(ar.Path) {
			ar.Path = filepath.Join(root, ar.Path)
		}
		if !filepath.IsAbs(ar.Descriptor) {
			ar.Descriptor = filepath.Join(root, ar.Descriptor)
		}
		archiveData, err = PackArchive(&ar, filepath.Base(outputPath), out.Bytes())
		result.Timings.Set(StageArchive, time.Since(start))
		if err != nil {
			err = fmt.Errorf("archive: %w", err)
			emitStage(req.Progress, StageArchive, StatusError, err, 0)
			return result, err
		}
		archivePath = ar.Path
		emitStage(req.Progress, StageArchive, StatusDone, nil, result.Timings.Duration(StageArchive))
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	// write
	start = time.Now()
	emitStage(req.Progress, StageWrite, StatusWorking, nil, 0)
	if err := WriteAtomic(outputPath, out.Bytes()); err != nil {
		emitStage(req.Progress, StageWrite, StatusError, err, 0)
		return result, err
	}
	if archiveData != nil {
		if err := WriteAtomic(archivePath, archiveData); err != nil {
			_ = os.Remove(outputPath)
			err = fmt.Errorf("archive: %w", err)
			emitStage(req.Progress, StageWrite, StatusError, err, 0)
			return result, err
		}
		result.ArchivePath = archivePath
	}
	result.OutputPath = outputPath
	result.Size = out.Len()
	result.Timings.Set(StageWrite, time.Since(start))
	emitStage(req.Progress, StageWrite, StatusDone, nil, result.Timings.Duration(StageWrite))

	if req.Logger != nil {
		req.Logger.Info("bundle written", "output", result.OutputPath, "modules", g.Modules.Len(), "bytes", result.Size)
	}
	return result, nil
}

// progressObserver переводит события билдера в события стадии resolve.
func progressObserver(sink ProgressSink) func(bundle.Event) {
	if sink == nil {
		return nil
	}
	started := make(map[string]time.Time)
	return func(ev bundle.Event) {
		out := Event{Module: ev.ID, Kind: ev.Module.String(), Stage: StageResolve}
		switch ev.Kind {
		case bundle.EventQueued:
			started[ev.ID] = time.Now()
			out.Status = StatusQueued
		case bundle.EventParsed:
			out.Status = StatusWorking
		case bundle.EventDone:
			out.Status = StatusDone
			out.Elapsed = time.Since(started[ev.ID])
		}
		sink.OnEvent(out)
	}
}

func emitStage(sink ProgressSink, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}
