package buildpipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"

	"luabundle/internal/bundle"
	"luabundle/internal/diag"
	"luabundle/internal/project"
)

func writeFile(t *testing.T, root, rel, data string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestBuildWritesBundle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.lua", "return require('b')\n")
	writeFile(t, root, "b.lua", "return 1\n")

	res, err := Build(context.Background(), &BuildRequest{Root: root, Entry: "a", OutputPath: "dist/out.lua"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "dist", "out.lua"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if res.Size != len(data) || !strings.HasSuffix(string(data), "require('a.lua')\n") {
		t.Fatalf("unexpected output (%d bytes):\n%s", res.Size, data)
	}
	entries, _ := os.ReadDir(filepath.Join(root, "dist"))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
	if !res.Timings.Has(StageResolve) || !res.Timings.Has(StageWrite) || res.Timings.Has(StageCheck) {
		t.Fatal("unexpected stage timings")
	}
}

func TestBuildFailureWritesNothing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.lua", "require('b')\n")
	writeFile(t, root, "b.lua", "require('c')\n")

	_, err := Build(context.Background(), &BuildRequest{Root: root, Entry: "a", OutputPath: "out.lua"})
	var resErr *bundle.ResolutionError
	if !errors.As(err, &resErr) || resErr.Ref != "c" {
		t.Fatalf("expected ResolutionError for c, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(root, "out.lua")); !os.IsNotExist(statErr) {
		t.Fatal("output written despite resolution error")
	}
}

func TestBuildArchiveFailureWritesNothing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "init.lua", "print('hi')\n")

	req := &BuildRequest{
		Root:       root,
		Entry:      "init",
		OutputPath: "dist/out.lua",
		Archive: &ArchiveRequest{
			Path:       "dist/out.zip",
			Descriptor: "package.json",
			Files:      []string{"LICENSE"},
			Package:    project.PackageConfig{Name: "out"},
		},
	}
	_, err := Build(context.Background(), req)
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected missing LICENSE error, got %v", err)
	}
	for _, rel := range []string{"dist/out.lua", "dist/out.zip"} {
		if _, statErr := os.Stat(filepath.Join(root, filepath.FromSlash(rel))); !os.IsNotExist(statErr) {
			t.Fatalf("%s written despite archive error", rel)
		}
	}
}

func TestBuildSyntaxCheck(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.lua", "local b = require('b')\nreturn b\n")
	writeFile(t, root, "b.lua", "local x = 1\nlocal y = = 2\nreturn x\n")

	req := &BuildRequest{Root: root, Entry: "a", OutputPath: "out.lua", CheckSyntax: true, CheckWorkers: 2}
	_, err := Build(context.Background(), req)
	var pe *bundle.ParseError
	if !errors.As(err, &pe) || !errors.Is(err, ErrSyntax) {
		t.Fatalf("expected syntax ParseError, got %v", err)
	}
	if pe.ID != "b.lua" || pe.Code != diag.ParSyntax {
		t.Fatalf("ParseError = %+v", pe)
	}
	if _, statErr := os.Stat(filepath.Join(root, "out.lua")); !os.IsNotExist(statErr) {
		t.Fatal("output written despite syntax error")
	}

	writeFile(t, root, "b.lua", "return 2\n")
	if _, err := Build(context.Background(), req); err != nil {
		t.Fatalf("valid sources failed the check: %v", err)
	}
}

func TestBuildSyntaxCheckRejectsVarargBody(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.lua", "local b = require('b')\nreturn b\n")
	writeFile(t, root, "b.lua", "local x = 1\nlocal name = ...\nreturn name\n")

	req := &BuildRequest{Root: root, Entry: "a", OutputPath: "out.lua", CheckSyntax: true}
	_, err := Build(context.Background(), req)
	var pe *bundle.ParseError
	if !errors.As(err, &pe) || !errors.Is(err, ErrSyntax) {
		t.Fatalf("expected syntax ParseError, got %v", err)
	}
	if pe.ID != "b.lua" || !strings.Contains(err.Error(), "line 2") || !strings.Contains(err.Error(), "vararg") {
		t.Fatalf("unexpected error %v", err)
	}
	if !pe.Span.IsValid() || pe.Span.Start != 12 {
		t.Fatalf("span = %+v, want start of line 2", pe.Span)
	}
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	out := make(map[string]string)
	var names []string
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		out[f.Name] = string(b)
		names = append(names, f.Name)
	}
	if want := []string{"package.json", "aspe.lua", "LICENSE"}; !slices.Equal(names, want) {
		t.Fatalf("entries = %v, want %v", names, want)
	}
	return out
}

func TestBuildArchiveIsReproducible(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "init.lua", "print('hi')\n")
	writeFile(t, root, "LICENSE", "MIT\n")

	req := &BuildRequest{
		Root:       root,
		Entry:      "init",
		OutputPath: "dist/aspe.lua",
		Archive: &ArchiveRequest{
			Path:       "dist/aspe.zip",
			Descriptor: "package.json",
			Files:      []string{"LICENSE"},
			Package:    project.PackageConfig{Name: "aspe", Version: "1.2.0", Description: "Stitch pattern editor"},
		},
	}
	first, err := Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	a, err := os.ReadFile(first.ArchivePath)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if _, err := Build(context.Background(), req); err != nil {
		t.Fatalf("second Build: %v", err)
	}
	b, err := os.ReadFile(first.ArchivePath)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("archive bytes differ between builds")
	}

	entries := readZip(t, a)
	bundleText, _ := os.ReadFile(first.OutputPath)
	if entries["aspe.lua"] != string(bundleText) || entries["LICENSE"] != "MIT\n" {
		t.Fatal("archive content mismatch")
	}
	var desc descriptor
	if err := json.Unmarshal([]byte(entries["package.json"]), &desc); err != nil {
		t.Fatalf("descriptor: %v", err)
	}
	if desc.Name != "aspe" || desc.Version != "1.2.0" || len(desc.Contributes.Scripts) != 1 ||
		desc.Contributes.Scripts[0].Path != "./aspe.lua" {
		t.Fatalf("descriptor = %+v", desc)
	}
}

func TestArchiveKeepsExistingDescriptor(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"name":"custom"}`)
	req := &ArchiveRequest{Root: root, Descriptor: filepath.Join(root, "package.json")}
	entries, err := ArchiveEntries(req, "x.lua", []byte("x"))
	if err != nil {
		t.Fatalf("ArchiveEntries: %v", err)
	}
	if string(entries[0].Data) != `{"name":"custom"}` {
		t.Fatalf("descriptor replaced: %s", entries[0].Data)
	}
	if _, err := ZipEntries(append(entries, entries[1])); err == nil {
		t.Fatal("expected duplicate entry error")
	}
}

func TestChannelSinkReceivesModuleEvents(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.lua", "require('b')\n")
	writeFile(t, root, "b.lua", "return 1\n")

	ch := make(chan Event, 64)
	_, err := Build(context.Background(), &BuildRequest{
		Root: root, Entry: "a", OutputPath: "out.lua", Progress: ChannelSink{Ch: ch},
	})
	close(ch)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var done []string
	var stages []Stage
	for ev := range ch {
		if ev.Module != "" && ev.Status == StatusDone {
			done = append(done, ev.Module)
		}
		if ev.Module == "" && ev.Status == StatusDone {
			stages = append(stages, ev.Stage)
		}
	}
	if !slices.Equal(done, []string{"b.lua", "a.lua"}) {
		t.Fatalf("module events = %v", done)
	}
	if !slices.Equal(stages, []Stage{StageResolve, StageAssemble, StageWrite}) {
		t.Fatalf("stage events = %v", stages)
	}
}

func TestChannelSinkStopsAfterDone(t *testing.T) {
	ch := make(chan Event)
	done := make(chan struct{})
	close(done)
	sink := ChannelSink{Ch: ch, Done: done}
	finished := make(chan struct{})
	go func() {
		sink.OnEvent(Event{Stage: StageResolve, Status: StatusWorking})
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("OnEvent blocked after Done was closed")
	}
}

func TestBuildHonoursCancellation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.lua", "return 1\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, &BuildRequest{Root: root, Entry: "a", OutputPath: "out.lua"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
