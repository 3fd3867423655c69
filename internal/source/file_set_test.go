package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("test.lua", []byte("hello world"), 0)
	if id1 != 0 {
		t.Errorf("Expected first FileID to be 0, got %d", id1)
	}

	id2 := fs.Add("test.lua", []byte("hello universe"), 0)
	if id2 != 1 {
		t.Errorf("Expected second FileID to be 1, got %d", id2)
	}

	latestID, exists := fs.GetLatest("test.lua")
	if !exists {
		t.Fatal("Expected file to exist after Add")
	}
	if latestID != id2 {
		t.Errorf("Expected latest ID to be %d, got %d", id2, latestID)
	}

	// старая версия остаётся доступной
	if got := string(fs.Get(id1).Content); got != "hello world" {
		t.Errorf("Expected first file content to be 'hello world', got %q", got)
	}
	if fs.Get(FileID(42)) != nil {
		t.Error("Expected nil for unknown FileID")
	}
}

func TestLoadKeepsLineEndingsAndStripsBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mod.lua")
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("local a = 1\r\nreturn a\r\n")...)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "local a = 1\r\nreturn a\r\n" {
		t.Fatalf("content was modified: %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 {
		t.Error("Expected FileHadBOM flag")
	}
	if f.Flags&FileHasCRLF == 0 {
		t.Error("Expected FileHasCRLF flag")
	}
	if got := f.GetLine(2); got != "return a" {
		t.Errorf("GetLine(2) = %q, want %q", got, "return a")
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.lua", []byte("ab\ncd\n\nef"))

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{2, LineCol{Line: 1, Col: 3}},
		{3, LineCol{Line: 2, Col: 1}},
		{4, LineCol{Line: 2, Col: 2}},
		{6, LineCol{Line: 3, Col: 1}},
		{8, LineCol{Line: 4, Col: 2}},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if start != tt.want {
			t.Errorf("Resolve(%d) = %+v, want %+v", tt.off, start, tt.want)
		}
	}
}

func TestSpanCoverAndText(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.lua", []byte("require('b')"))
	f := fs.Get(id)

	a := Span{File: id, Start: 0, End: 7}
	b := Span{File: id, Start: 8, End: 11}
	got := a.Cover(b)
	if got.Start != 0 || got.End != 11 {
		t.Fatalf("Cover = %v", got)
	}
	if text := got.Text(f); text != "require('b'" {
		t.Fatalf("Text = %q", text)
	}
	other := Span{File: id + 1, Start: 0, End: 100}
	if a.Cover(other) != a {
		t.Fatal("Cover must ignore spans from other files")
	}
}

func TestRelativePath(t *testing.T) {
	tmp := t.TempDir()
	baseDir := filepath.Join(tmp, "base")

	got, err := RelativePath(filepath.Join(baseDir, "nested", "file.lua"), baseDir)
	if err != nil {
		t.Fatalf("RelativePath returned error: %v", err)
	}
	if got != "nested/file.lua" {
		t.Fatalf("expected relative path, got %q", got)
	}

	outside := filepath.Join(tmp, "other", "file.lua")
	got, err = RelativePath(outside, baseDir)
	if err != nil {
		t.Fatalf("RelativePath returned error: %v", err)
	}
	if got != normalizePath(outside) {
		t.Fatalf("expected absolute fallback %q, got %q", normalizePath(outside), got)
	}
}

func TestLineSpan(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("a.lua", []byte("ab\ncd\n")))
	if sp := f.LineSpan(2); sp.Start != 3 || sp.End != 3 {
		t.Fatalf("LineSpan(2) = %v", sp)
	}
	if sp := f.LineSpan(9); sp.Start != 6 {
		t.Fatalf("LineSpan past end = %v", sp)
	}
}
