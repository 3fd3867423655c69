// Package diag defines the diagnostic model shared by the bundler phases.
//
// # Purpose
//
//   - Provide deterministic data structures for findings produced by the
//     lexer, the reference scanner, the graph builder and the asset parsers.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to storage or formatting.
//
// # Scope
//
// Package diag does not format or print anything. Rendering lives in
// internal/diagfmt; the build pipeline decides which diagnostics are fatal.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity: Info, Warning or Error (severity.go).
//   - Code: compact numeric identifier with a stable string form such as
//     RES1001 or SCN4001 (codes.go).
//   - Message: short, actionable text.
//   - Primary: the source.Span the finding points at; empty when the finding
//     has no source location (for example a missing entry module).
//   - Notes: optional secondary spans, e.g. "required from here".
//   - Fixes: optional text edits.
//
// # Emitting diagnostics
//
// Producers take a diag.Reporter. ReportError / ReportWarning return a
// ReportBuilder which accepts notes before Emit. BagReporter collects into a
// Bag, which drops repeats of the same code, span and message and counts what
// did not fit under its limit; MultiReporter fans out to several reporters.
package diag
