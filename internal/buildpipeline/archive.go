package buildpipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zip"

	"luabundle/internal/project"
)

// archiveEpoch is the modification time of every archive entry.
var archiveEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// ArchiveRequest configures the extension archive.
type ArchiveRequest struct {
	Path       string   // путь архива
	Descriptor string   // package.json на диске; генерируется, если файла нет
	Files      []string // дополнительные файлы, пути относительно Root
	Root       string
	Package    project.PackageConfig
}

// ArchiveEntry is one file packed into the archive.
type ArchiveEntry struct {
	Name string
	Data []byte
}

type descriptorScript struct {
	Path string `json:"path"`
}

type descriptorContributes struct {
	Scripts []descriptorScript `json:"scripts"`
}

type descriptor struct {
	Name        string                `json:"name"`
	DisplayName string                `json:"displayName"`
	Description string                `json:"description"`
	Version     string                `json:"version"`
	Author      string                `json:"author,omitempty"`
	Contributes descriptorContributes `json:"contributes"`
}

// Descriptor renders the package.json used when the project has none.
func Descriptor(pkg project.PackageConfig, script string) ([]byte, error) {
	d := descriptor{
		Name:        pkg.Name,
		DisplayName: pkg.Name,
		Description: pkg.Description,
		Version:     pkg.Version,
		Author:      pkg.Author,
		Contributes: descriptorContributes{Scripts: []descriptorScript{{Path: "./" + script}}},
	}
	if d.Version == "" {
		d.Version = "0.0.0"
	}
	out, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// ArchiveEntries collects entries in archive order: descriptor, bundle,
// then extra files in the order given.
func ArchiveEntries(req *ArchiveRequest, bundleName string, bundle []byte) ([]ArchiveEntry, error) {
	var entries []ArchiveEntry

	// #nosec G304 -- descriptor path comes from the manifest
	desc, err := os.ReadFile(req.Descriptor)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if desc, err = Descriptor(req.Package, bundleName); err != nil {
			return nil, fmt.Errorf("failed to generate descriptor: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}
	entries = append(entries,
		ArchiveEntry{Name: "package.json", Data: desc},
		ArchiveEntry{Name: bundleName, Data: bundle},
	)

	for _, rel := range req.Files {
		p := rel
		if !filepath.IsAbs(p) {
			p = filepath.Join(req.Root, filepath.FromSlash(rel))
		}
		// #nosec G304 -- extra files are listed in the manifest
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read archive file: %w", err)
		}
		entries = append(entries, ArchiveEntry{Name: path.Clean(filepath.ToSlash(rel)), Data: data})
	}
	return entries, nil
}

// ZipEntries packs entries with deflate and a fixed timestamp, so equal
// inputs give equal bytes.
func ZipEntries(entries []ArchiveEntry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("duplicate archive entry %q", e.Name)
		}
		seen[e.Name] = struct{}{}

		hdr := &zip.FileHeader{Name: e.Name, Method: zip.Deflate, Modified: archiveEpoch}
		hdr.SetMode(0o644)
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PackArchive reads the descriptor and extra files and returns the zip bytes.
// Nothing is written.
func PackArchive(req *ArchiveRequest, bundleName string, bundle []byte) ([]byte, error) {
	entries, err := ArchiveEntries(req, bundleName, bundle)
	if err != nil {
		return nil, err
	}
	data, err := ZipEntries(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to pack archive: %w", err)
	}
	return data, nil
}
