package diagfmt

import "luabundle/internal/source"

func formatPath(f *source.File, fs *source.FileSet, mode PathMode) string {
	switch mode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", "")
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		return f.FormatPath("basename", "")
	case PathModeAuto:
		return f.FormatPath("auto", "")
	default:
		return f.Path
	}
}

// spanFile returns the file of span, or nil for NoSpan and unknown files.
func spanFile(fs *source.FileSet, span source.Span) *source.File {
	if fs == nil || !span.IsValid() {
		return nil
	}
	return fs.Get(span.File)
}
