package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"luabundle/internal/cache"
	"luabundle/internal/observ"
	"luabundle/internal/project"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Remove build output and the asset cache",
	Long: `Remove the bundle ([build].output) and the archive ([archive].path) of a
project, the directory holding them when it is left empty, and every entry of
the decoded asset cache. Nothing outside the project root is touched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().Bool("keep-cache", false, "leave the asset cache in place")
}

func runClean(cmd *cobra.Command, args []string) error {
	keepCache, err := cmd.Flags().GetBool("keep-cache")
	if err != nil {
		return err
	}
	base := "."
	if len(args) > 0 && args[0] != "" {
		base = args[0]
	}
	root, outputs, err := resolveCleanTarget(base)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	removed, err := removeBuildOutputs(root, outputs)
	for _, p := range removed {
		fmt.Fprintf(out, "removed %s\n", formatPathForOutput(root, p))
	}
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		fmt.Fprintf(out, "no build output found\n")
	}

	if keepCache {
		return nil
	}
	assets, err := cache.Open("luabundle")
	if err != nil {
		observ.Logger.Warn("asset cache unavailable", "err", err)
		return nil
	}
	if err := assets.DropAll(); err != nil {
		return fmt.Errorf("failed to drop asset cache: %w", err)
	}
	fmt.Fprintf(out, "dropped asset cache %s\n", assets.Dir())
	return nil
}

// resolveCleanTarget находит корень проекта и абсолютные пути бандла и архива.
func resolveCleanTarget(base string) (root string, outputs []string, err error) {
	info, err := os.Stat(base)
	if err != nil {
		return "", nil, fmt.Errorf("failed to stat %q: %w", base, err)
	}
	if !info.IsDir() {
		base = filepath.Dir(base)
	}
	manifest, ok, err := project.LoadManifest(base)
	if err != nil {
		return "", nil, err
	}
	if ok {
		cfg := manifest.Config
		return manifest.Root, []string{manifest.Abs(cfg.Build.Output), manifest.Abs(cfg.Archive.Path)}, nil
	}
	root, err = filepath.Abs(base)
	if err != nil {
		return "", nil, err
	}
	name := projectName(root)
	return root, []string{
		filepath.Join(root, filepath.FromSlash(project.DefaultOutput(name))),
		filepath.Join(root, filepath.FromSlash(project.DefaultArchive(name))),
	}, nil
}

// removeBuildOutputs удаляет файлы outputs и затем их каталоги, если те
// опустели. Пути вне root и каталоги не удаляются; отсутствующие файлы
// пропускаются. Возвращает удалённые пути в порядке удаления.
func removeBuildOutputs(root string, outputs []string) ([]string, error) {
	var removed []string
	var dirs []string
	for _, p := range outputs {
		if !insideRoot(root, p) {
			return removed, fmt.Errorf("refusing to remove %q: outside project root %q", p, root)
		}
		info, err := os.Lstat(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return removed, err
		}
		if info.IsDir() {
			return removed, fmt.Errorf("refusing to remove %q: it is a directory", p)
		}
		if err := os.Remove(p); err != nil {
			return removed, fmt.Errorf("failed to remove %q: %w", p, err)
		}
		removed = append(removed, p)
		dirs = append(dirs, filepath.Dir(p))
	}
	for _, dir := range dirs {
		if filepath.Clean(dir) == filepath.Clean(root) {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err == nil {
			removed = append(removed, dir)
		}
	}
	return removed, nil
}

func insideRoot(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
