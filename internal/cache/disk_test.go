package cache

import (
	"os"
	"path/filepath"
	"testing"

	"luabundle/internal/asset"
	"luabundle/internal/project"
)

func TestDiskCacheRoundTrip(t *testing.T) {
	c, err := OpenAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	key := Key(project.ModuleKindGlyph, "A,12", project.Digest{7})

	if _, ok := c.Get(key); ok {
		t.Fatal("empty cache must miss")
	}

	m := asset.NewMatrix(2, 2)
	m.Cells[1], m.Cells[2] = 1, 1
	if err := c.Put(key, &Payload{Kind: uint8(project.ModuleKindGlyph), Params: "A,12", Frames: []asset.Matrix{m}}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if got.Params != "A,12" || len(got.Frames) != 1 || got.Frames[0].String() != m.String() {
		t.Fatalf("unexpected payload %+v", got)
	}

	entries, _ := os.ReadDir(filepath.Join(c.Dir(), "assets"))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}

func TestDiskCacheKeyDistinguishesParams(t *testing.T) {
	content := project.Digest{1}
	a := Key(project.ModuleKindGlyph, "A,12", content)
	b := Key(project.ModuleKindGlyph, "A,16", content)
	r := Key(project.ModuleKindRaster, "", content)
	if a == b || a == r || b == r {
		t.Fatal("keys must differ per kind and params")
	}
}

func TestDiskCacheCorruptEntryIsMiss(t *testing.T) {
	c, err := OpenAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := Key(project.ModuleKindRaster, "", project.Digest{2})
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte{0xc1, 0xff, 0x00}, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(key); ok {
		t.Fatal("corrupt entry must be a miss")
	}

	if err := c.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if _, err := os.Stat(c.Dir()); !os.IsNotExist(err) {
		t.Fatalf("cache dir still exists: %v", err)
	}
}
