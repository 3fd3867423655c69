package main

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"luabundle/internal/bundle"
	"luabundle/internal/diag"
	"luabundle/internal/diagfmt"
	"luabundle/internal/source"
)

// reportedError wraps an error whose diagnostic was already printed.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func newDiagBag(cmd *cobra.Command) (*diag.Bag, error) {
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return nil, err
	}
	return diag.NewBag(maxDiagnostics), nil
}

func prettyOptions(cmd *cobra.Command, w *os.File) diagfmt.PrettyOpts {
	colorFlag, _ := cmd.Root().PersistentFlags().GetString("color")
	useColor, err := readColorMode(colorFlag, w)
	if err != nil {
		useColor = false
	}
	return diagfmt.PrettyOpts{
		Color:     useColor,
		Context:   1,
		PathMode:  diagfmt.PathModeRelative,
		ShowNotes: true,
		ShowFixes: true,
	}
}

// renderDiagnostics печатает накопленную диагностику в stderr.
func renderDiagnostics(cmd *cobra.Command, bag *diag.Bag, fs *source.FileSet) {
	if bag == nil || bag.Len() == 0 {
		return
	}
	bag.Sort()
	diagfmt.Pretty(os.Stderr, bag, fs, prettyOptions(cmd, os.Stderr))
}

// failBuild adds the diagnostic for err to bag, prints everything collected
// and returns err marked as reported. Foreign errors are returned as is.
func failBuild(cmd *cobra.Command, err error, bag *diag.Bag, fs *source.FileSet) error {
	d, ok := bundle.Diagnose(err)
	if !ok {
		renderDiagnostics(cmd, bag, fs)
		return err
	}
	bag.Add(d)
	renderDiagnostics(cmd, bag, fs)
	return reportedError{err: err}
}

// printError prints err unless its diagnostic is already on screen.
func printError(w io.Writer, err error) {
	var reported reportedError
	if errors.As(err, &reported) {
		return
	}
	_, _ = io.WriteString(w, "error: "+err.Error()+"\n")
}
