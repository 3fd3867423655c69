package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"luabundle/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new luabundle project",
	Long: `Initialize a new project by creating a manifest (luabundle.toml) and an entry
module (init.lua). If [path|name] is omitted, initializes the current directory.
If a non-existing name is provided, a directory will be created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

const defaultInitLua = `-- entry module; require other modules relative to the project root
local M = {}

function M.hello()
  return "Hello from luabundle"
end

print(M.hello())

return M
`

func runInit(cmd *cobra.Command, args []string) error {
	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	target, err := initTarget(arg)
	if err != nil {
		return err
	}

	// Ensure directory exists
	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err = os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	manifestPath := filepath.Join(target, project.ManifestFileName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", manifestPath)
	}
	manifest := project.DefaultManifest(projectName(target))
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	// init.lua не перезаписываем
	entryPath := filepath.Join(target, "init.lua")
	createdEntry := false
	if _, err := os.Stat(entryPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(entryPath, []byte(defaultInitLua), 0o600); err != nil {
			return fmt.Errorf("failed to write init.lua: %w", err)
		}
		createdEntry = true
	}

	out := cmd.OutOrStdout()
	rel := target
	if wd, err := os.Getwd(); err == nil {
		rel = formatPathForOutput(wd, target)
	}
	fmt.Fprintf(out, "Initialized luabundle project in %s\n", rel)
	fmt.Fprintf(out, "  - %s\n", project.ManifestFileName)
	if createdEntry {
		fmt.Fprintf(out, "  - init.lua\n")
	} else {
		fmt.Fprintf(out, "  - init.lua (existing)\n")
	}
	return nil
}

// initTarget resolves the directory to initialize; "" and "." mean the
// working directory.
func initTarget(arg string) (string, error) {
	if arg == "" || arg == "." {
		return os.Getwd()
	}
	if filepath.IsAbs(arg) {
		return arg, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, arg), nil
}
