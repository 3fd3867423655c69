package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// switchMode - значение флагов --ui и --color: auto решает по терминалу.
type switchMode string

const (
	switchAuto switchMode = "auto"
	switchOn   switchMode = "on"
	switchOff  switchMode = "off"
)

func readSwitchMode(flag, value string) (switchMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return switchAuto, nil
	case "on":
		return switchOn, nil
	case "off":
		return switchOff, nil
	default:
		return "", fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
	}
}

// enabledFor resolves auto against f.
func (m switchMode) enabledFor(f *os.File) bool {
	switch m {
	case switchOn:
		return true
	case switchOff:
		return false
	default:
		return isTerminal(f)
	}
}

// readColorMode решает, нужен ли цвет для f.
func readColorMode(value string, f *os.File) (bool, error) {
	mode, err := readSwitchMode("color", value)
	if err != nil {
		return false, err
	}
	return mode.enabledFor(f), nil
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
