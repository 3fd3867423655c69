package observ

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the process-wide logger used by the CLI.
var Logger = NewLogger(os.Stderr, false, false)

// NewLogger returns a logger writing to w. verbose enables debug records with
// timestamps; quiet keeps only errors.
func NewLogger(w io.Writer, verbose, quiet bool) *log.Logger {
	level := log.InfoLevel
	switch {
	case quiet:
		level = log.ErrorLevel
	case verbose:
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          "luabundle",
		ReportTimestamp: verbose,
	})
}

// SetupLogging replaces Logger according to the command line flags.
func SetupLogging(verbose, quiet bool) *log.Logger {
	Logger = NewLogger(os.Stderr, verbose, quiet)
	return Logger
}
