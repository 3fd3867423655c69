package bundle

import (
	"errors"
	"fmt"
	"strings"

	"luabundle/internal/diag"
	"luabundle/internal/source"
)

// ResolutionError reports a referenced module that does not exist.
type ResolutionError struct {
	Path  string      // путь модуля относительно корня (c.lua)
	Ref   string      // аргумент require как в исходнике (c)
	From  string      // id требующего модуля, пусто для entry
	Span  source.Span // выражение require, NoSpan для entry
	Tried []string
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("module %q not found: %s does not exist", e.Ref, e.Path)
	if e.From != "" {
		msg += fmt.Sprintf(" (required from %s)", e.From)
	}
	return msg
}

// ReferenceError reports a malformed require argument.
type ReferenceError struct {
	Ref    string
	From   string
	Span   source.Span
	Reason error
}

func (e *ReferenceError) Error() string {
	msg := e.Reason.Error()
	if e.From != "" {
		msg += fmt.Sprintf(" (required from %s)", e.From)
	}
	return msg
}

func (e *ReferenceError) Unwrap() error { return e.Reason }

// ParseError reports a module that cannot be read, lexed or decoded.
type ParseError struct {
	ID   string
	Path string
	Span source.Span
	Code diag.Code // ParLex, ParAssetDecode или ParSyntax
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// CycleError reports a module that requires itself, directly or not.
// Chain starts and ends with the same id.
type CycleError struct {
	Chain []string
	Span  source.Span // require, замыкающий цикл
}

func (e *CycleError) Error() string {
	return "dependency cycle: " + strings.Join(e.Chain, " -> ")
}

// Diagnose converts a build error into a diagnostic. ok is false for errors
// that do not come from this package.
func Diagnose(err error) (d diag.Diagnostic, ok bool) {
	var (
		resErr   *ResolutionError
		refErr   *ReferenceError
		parseErr *ParseError
		cycleErr *CycleError
	)
	switch {
	case errors.As(err, &resErr):
		d = diag.NewError(diag.ResMissingModule, resErr.Span, resErr.Error())
		for _, p := range resErr.Tried {
			d = d.WithNote(source.NoSpan, "tried "+p)
		}
	case errors.As(err, &refErr):
		d = diag.NewError(diag.ResBadReference, refErr.Span, refErr.Error())
	case errors.As(err, &parseErr):
		code := parseErr.Code
		if code == 0 {
			code = diag.ParAssetDecode
		}
		d = diag.NewError(code, parseErr.Span, parseErr.Error())
	case errors.As(err, &cycleErr):
		d = diag.NewError(diag.GraCycle, cycleErr.Span, cycleErr.Error())
	default:
		return diag.Diagnostic{}, false
	}
	return d, true
}
