// Package main implements the luabundle CLI.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"luabundle/internal/observ"
	"luabundle/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "luabundle",
	Short: "Lua module bundler",
	Long: `luabundle resolves the require graph of a Lua entry module and packs every
reachable source, image and glyph into one self-contained Lua file.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupGlobals,
}

func init() {
	// Добавляем команды
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Bool("verbose", false, "log every resolved module")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
}

// main sets the command version and executes the root command.
// If command execution returns an error, the process exits with status code 1.
func main() {
	// Устанавливаем версию для автоматического флага --version
	rootCmd.Version = version.Current().Version

	err := rootCmd.Execute()
	if stopErr := stopProfiling(); stopErr != nil {
		printError(os.Stderr, stopErr)
	}
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func setupGlobals(cmd *cobra.Command, _ []string) error {
	flags := cmd.Root().PersistentFlags()
	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return err
	}
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return err
	}
	colorFlag, err := flags.GetString("color")
	if err != nil {
		return err
	}
	useColor, err := readColorMode(colorFlag, os.Stdout)
	if err != nil {
		return err
	}
	color.NoColor = !useColor
	observ.SetupLogging(verbose, quiet)
	return setupProfiling(cmd)
}
