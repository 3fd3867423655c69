package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"luabundle/internal/project"
)

const noManifestMessage = "no luabundle.toml found; pass an entry module, e.g. `luabundle build init`"

// buildTarget is what a command bundles: project root, entry and the
// manifest settings they came from.
type buildTarget struct {
	Root     string
	Entry    string
	Name     string
	Manifest *project.Manifest // nil без luabundle.toml
}

// Config returns the manifest configuration, or the defaults derived from
// Name when there is no manifest.
func (t *buildTarget) Config() project.Config {
	if t.Manifest != nil {
		return t.Manifest.Config
	}
	return project.Config{
		Package: project.PackageConfig{Name: t.Name, Version: "0.0.0"},
		Build:   project.BuildConfig{Entry: t.Entry, Output: project.DefaultOutput(t.Name)},
		Archive: project.ArchiveConfig{
			Path:       project.DefaultArchive(t.Name),
			Descriptor: "package.json",
		},
	}
}

// resolveTarget finds the project governing rootFlag (or the working
// directory) and picks the entry: an explicit argument wins over [build].entry.
func resolveTarget(rootFlag string, args []string) (*buildTarget, error) {
	start := rootFlag
	if start == "" {
		start = "."
	}
	manifest, found, err := project.LoadManifest(start)
	if err != nil {
		return nil, err
	}
	var entry string
	if len(args) > 0 {
		entry = strings.TrimSpace(args[0])
	}

	if found {
		if entry == "" {
			entry = manifest.Config.Build.Entry
		}
		return &buildTarget{
			Root:     manifest.Root,
			Entry:    entry,
			Name:     manifest.Config.Package.Name,
			Manifest: manifest,
		}, nil
	}

	if entry == "" {
		return nil, errors.New(noManifestMessage)
	}
	root, err := filepath.Abs(start)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	if st, err := os.Stat(root); err != nil {
		return nil, err
	} else if !st.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", root)
	}
	return &buildTarget{
		Root:  root,
		Entry: entry,
		Name:  projectName(root),
	}, nil
}

// projectName берёт имя проекта из имени каталога.
func projectName(dir string) string {
	name := strings.TrimSpace(filepath.Base(dir))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "bundle"
	}
	return name
}

// formatPathForOutput shows target relative to base when that is shorter.
func formatPathForOutput(base, target string) string {
	if rel, err := filepath.Rel(base, target); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return target
}
