package buildpipeline

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteAtomic writes data to a temporary file next to path and renames it
// into place, so readers never observe a partial file.
func WriteAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if _, err = f.Write(data); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("failed to sync %q: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close %q: %w", path, err)
	}
	// #nosec G302 -- bundle is a regular readable script
	if err = os.Chmod(f.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set permissions on %q: %w", path, err)
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("failed to move bundle into place: %w", err)
	}
	return nil
}
