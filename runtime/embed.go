// Package runtimeembed provides the embedded Lua runtime written at the top of every bundle.
package runtimeembed

import (
	_ "embed"
)

//go:embed prelude.lua
var prelude string

// Prelude returns the define/require bootstrap code. It always ends with a
// blank line so define blocks can follow directly.
func Prelude() string {
	return prelude
}
