package project

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestFileName is the project marker looked up from the working directory.
const ManifestFileName = "luabundle.toml"

var (
	// ErrPackageSectionMissing indicates that [package] is missing.
	ErrPackageSectionMissing = errors.New("missing [package]")
	// ErrPackageNameMissing indicates that [package].name is missing.
	ErrPackageNameMissing = errors.New("missing [package].name")
	// ErrBuildEntryMissing indicates that [build].entry is missing.
	ErrBuildEntryMissing = errors.New("missing [build].entry")
)

// Config mirrors luabundle.toml.
type Config struct {
	Package PackageConfig `toml:"package"`
	Build   BuildConfig   `toml:"build"`
	Fonts   FontsConfig   `toml:"fonts"`
	Archive ArchiveConfig `toml:"archive"`
}

type PackageConfig struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	Description string `toml:"description"`
	Author      string `toml:"author"`
}

type BuildConfig struct {
	Entry       string `toml:"entry"`
	Output      string `toml:"output"`
	ReturnEntry bool   `toml:"return_entry"`
	CheckSyntax bool   `toml:"check_syntax"`
}

type FontsConfig struct {
	Dirs []string `toml:"dirs"`
}

type ArchiveConfig struct {
	Enabled    bool     `toml:"enabled"`
	Path       string   `toml:"path"`
	Descriptor string   `toml:"descriptor"`
	Files      []string `toml:"files"`
}

// Manifest is a decoded luabundle.toml with its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// FindManifest walks up from startDir to locate luabundle.toml.
func FindManifest(startDir string) (manifestPath string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadManifest finds and decodes the manifest governing startDir.
// ok is false when no manifest exists up the tree.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	manifestPath, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

// LoadConfig decodes luabundle.toml at p and fills defaults.
func LoadConfig(p string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(p, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", p, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %q", p, undecoded[0].String())
	}
	if !meta.IsDefined("package") {
		return Config{}, fmt.Errorf("%s: %w", p, ErrPackageSectionMissing)
	}
	cfg.Package.Name = strings.TrimSpace(cfg.Package.Name)
	if !meta.IsDefined("package", "name") || cfg.Package.Name == "" {
		return Config{}, fmt.Errorf("%s: %w", p, ErrPackageNameMissing)
	}
	cfg.Build.Entry = strings.TrimSpace(cfg.Build.Entry)
	if !meta.IsDefined("build", "entry") || cfg.Build.Entry == "" {
		return Config{}, fmt.Errorf("%s: %w", p, ErrBuildEntryMissing)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if strings.TrimSpace(cfg.Build.Output) == "" {
		cfg.Build.Output = DefaultOutput(cfg.Package.Name)
	}
	if strings.TrimSpace(cfg.Archive.Path) == "" {
		cfg.Archive.Path = DefaultArchive(cfg.Package.Name)
	}
	if strings.TrimSpace(cfg.Archive.Descriptor) == "" {
		cfg.Archive.Descriptor = "package.json"
	}
}

// DefaultOutput returns the bundle path used when [build].output is empty.
func DefaultOutput(name string) string {
	return path.Join("dist", name+".lua")
}

// DefaultArchive returns the archive path used when [archive].path is empty.
func DefaultArchive(name string) string {
	return path.Join("dist", name+".zip")
}

// Abs resolves a manifest-relative path against the project root.
func (m *Manifest) Abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(m.Root, filepath.FromSlash(rel))
}

// DefaultManifest renders a starter luabundle.toml for a project called name.
func DefaultManifest(name string) string {
	return fmt.Sprintf(`# luabundle project manifest
[package]
name = %q
version = "0.1.0"
description = ""
author = ""

[build]
entry = "init"
output = %q
return_entry = false
check_syntax = false

[fonts]
dirs = []

[archive]
enabled = false
descriptor = "package.json"
files = []
`, name, DefaultOutput(name))
}
