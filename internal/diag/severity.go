package diag

// Severity - важность находки. Сборка падает только на SevError.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

// String returns the lower-case label used in short, pretty and JSON output.
func (s Severity) String() string {
	switch s {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "info"
	}
}

// Fatal reports whether a diagnostic of this severity stops the build.
func (s Severity) Fatal() bool {
	return s >= SevError
}
