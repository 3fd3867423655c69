package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"luabundle/internal/buildpipeline"
	"luabundle/internal/cache"
	"luabundle/internal/diag"
	"luabundle/internal/observ"
	"luabundle/internal/source"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [entry]",
	Short: "Bundle a Lua entry module and its dependencies",
	Long: `Build resolves every module reachable from the entry through require and
writes a single Lua file. Settings come from luabundle.toml when present;
an explicit entry argument works without a manifest.`,
	Args: cobra.MaximumNArgs(1),
	RunE: buildExecution,
}

func init() {
	buildCmd.Flags().StringP("output", "o", "", "bundle path (default [build].output or dist/<name>.lua)")
	buildCmd.Flags().String("root", "", "project root (default: directory of luabundle.toml or the working directory)")
	buildCmd.Flags().Bool("archive", false, "also pack the extension archive")
	buildCmd.Flags().Bool("no-cache", false, "do not read or write the asset cache")
	buildCmd.Flags().Bool("check", false, "syntax-check rewritten sources before writing")
	buildCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	buildCmd.Flags().Bool("return-entry", false, "return the entry module's value from the bundle")
}

// buildFlags - прочитанные флаги команды build.
type buildFlags struct {
	output      string
	root        string
	archive     bool
	noCache     bool
	check       bool
	ui          switchMode
	returnEntry bool
	changed     func(name string) bool
}

func readBuildFlags(cmd *cobra.Command) (buildFlags, error) {
	var (
		f   buildFlags
		err error
	)
	flags := cmd.Flags()
	if f.output, err = flags.GetString("output"); err != nil {
		return f, err
	}
	if f.root, err = flags.GetString("root"); err != nil {
		return f, err
	}
	if f.archive, err = flags.GetBool("archive"); err != nil {
		return f, err
	}
	if f.noCache, err = flags.GetBool("no-cache"); err != nil {
		return f, err
	}
	if f.check, err = flags.GetBool("check"); err != nil {
		return f, err
	}
	if f.returnEntry, err = flags.GetBool("return-entry"); err != nil {
		return f, err
	}
	uiValue, err := flags.GetString("ui")
	if err != nil {
		return f, err
	}
	if f.ui, err = readSwitchMode("ui", uiValue); err != nil {
		return f, err
	}
	f.changed = flags.Changed
	return f, nil
}

// newBuildRequest merges manifest settings with the command line. Flags win.
func newBuildRequest(target *buildTarget, f buildFlags) buildpipeline.BuildRequest {
	cfg := target.Config()

	output := cfg.Build.Output
	if strings.TrimSpace(f.output) != "" {
		output = f.output
	}
	returnEntry := cfg.Build.ReturnEntry
	if f.changed != nil && f.changed("return-entry") {
		returnEntry = f.returnEntry
	}
	check := cfg.Build.CheckSyntax
	if f.changed != nil && f.changed("check") {
		check = f.check
	}

	req := buildpipeline.BuildRequest{
		Root:        target.Root,
		Entry:       target.Entry,
		OutputPath:  output,
		ReturnEntry: returnEntry,
		CheckSyntax: check,
		FontDirs:    cfg.Fonts.Dirs,
	}
	if cfg.Archive.Enabled || f.archive {
		req.Archive = &buildpipeline.ArchiveRequest{
			Path:       cfg.Archive.Path,
			Descriptor: cfg.Archive.Descriptor,
			Files:      cfg.Archive.Files,
			Package:    cfg.Package,
		}
	}
	return req
}

func buildExecution(cmd *cobra.Command, args []string) error {
	f, err := readBuildFlags(cmd)
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}

	target, err := resolveTarget(f.root, args)
	if err != nil {
		return err
	}
	bag, err := newDiagBag(cmd)
	if err != nil {
		return err
	}
	files := source.NewFileSetWithBase(target.Root)

	req := newBuildRequest(target, f)
	req.Files = files
	req.Reporter = diag.BagReporter{Bag: bag}
	req.Logger = observ.Logger
	if !f.noCache {
		assets, cacheErr := cache.Open("luabundle")
		if cacheErr != nil {
			observ.Logger.Warn("asset cache disabled", "err", cacheErr)
		} else {
			req.Assets = assets
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var result buildpipeline.BuildResult
	if f.ui.enabledFor(os.Stdout) && !quiet {
		result, err = runBuildWithUI(ctx, "bundling "+target.Entry, &req)
	} else {
		result, err = buildpipeline.Build(ctx, &req)
	}
	if err != nil {
		return failBuild(cmd, err, bag, files)
	}
	renderDiagnostics(cmd, bag, files)

	if !quiet {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "bundled %d modules into %s (%d bytes)\n",
			result.Graph.Modules.Len(), formatPathForOutput(target.Root, result.OutputPath), result.Size)
		if result.ArchivePath != "" {
			fmt.Fprintf(out, "packed %s\n", formatPathForOutput(target.Root, result.ArchivePath))
		}
	}
	if showTimings {
		printStageTimings(os.Stderr, result.Timings)
	}
	return nil
}
