package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
)

// Identity is a reference bound to an on-disk resource.
type Identity struct {
	ID     string
	Kind   ModuleKind
	Path   string // slash-путь относительно корня
	Origin string // абсолютный путь на диске
	Glyph  GlyphParams
}

// NotFoundError reports a reference whose resource does not exist.
type NotFoundError struct {
	Path  string
	Tried []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("module %q not found", e.Path)
}

func (e *NotFoundError) Is(target error) bool {
	return target == fs.ErrNotExist
}

// Resolver maps require arguments to identities under Root.
type Resolver struct {
	Root     string
	FontDirs []string
}

// NewResolver returns a resolver whose font search covers fontDirs (relative
// entries are taken against root) followed by the platform font directories.
func NewResolver(root string, fontDirs []string) *Resolver {
	dirs := make([]string, 0, len(fontDirs)+5)
	for _, d := range fontDirs {
		if d == "" {
			continue
		}
		if !filepath.IsAbs(d) {
			d = filepath.Join(root, filepath.FromSlash(d))
		}
		dirs = append(dirs, d)
	}
	dirs = append(dirs, DefaultFontDirs()...)
	return &Resolver{Root: root, FontDirs: dirs}
}

// DefaultFontDirs lists the usual system font locations for the current platform.
func DefaultFontDirs() []string {
	var dirs []string
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		if win := os.Getenv("WINDIR"); win != "" {
			dirs = append(dirs, filepath.Join(win, "Fonts"))
		}
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			dirs = append(dirs, filepath.Join(local, "Microsoft", "Windows", "Fonts"))
		}
	case "darwin":
		if home != "" {
			dirs = append(dirs, filepath.Join(home, "Library", "Fonts"))
		}
		dirs = append(dirs, "/Library/Fonts", "/System/Library/Fonts")
	default:
		if home != "" {
			dirs = append(dirs, filepath.Join(home, ".fonts"), filepath.Join(home, ".local", "share", "fonts"))
		}
		dirs = append(dirs, "/usr/share/fonts", "/usr/local/share/fonts")
	}
	return dirs
}

// Resolve parses arg and checks that the resource exists.
func (r *Resolver) Resolve(arg string) (Identity, error) {
	ref, err := ParseReference(arg)
	if err != nil {
		return Identity{}, err
	}
	return r.Bind(ref)
}

// Bind checks that ref's resource exists and returns its identity.
func (r *Resolver) Bind(ref Reference) (Identity, error) {
	id := Identity{
		ID:    ref.ID(),
		Kind:  ref.Kind,
		Path:  ref.Path,
		Glyph: ref.Glyph,
	}
	origin := filepath.Join(r.Root, filepath.FromSlash(ref.Path))
	wantDir := ref.Kind == ModuleKindRasterSet

	ok, err := exists(origin, wantDir)
	if err != nil {
		return Identity{}, err
	}
	if ok {
		id.Origin = origin
		return id, nil
	}

	tried := []string{origin}
	if ref.Kind == ModuleKindGlyph {
		base := path.Base(ref.Path)
		for _, dir := range r.FontDirs {
			candidate := filepath.Join(dir, base)
			tried = append(tried, candidate)
			ok, err := exists(candidate, false)
			if err != nil {
				return Identity{}, err
			}
			if ok {
				id.Origin = candidate
				return id, nil
			}
		}
	}
	return Identity{}, &NotFoundError{Path: ref.Path, Tried: tried}
}

func exists(p string, wantDir bool) (bool, error) {
	st, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %q: %w", p, err)
	}
	if wantDir {
		return st.IsDir(), nil
	}
	return st.Mode().IsRegular(), nil
}
