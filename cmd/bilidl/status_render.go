package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// statusKind is the outcome shown in brackets on a status line.
type statusKind int

const (
	statusActive statusKind = iota
	statusDone
	statusSkipped
	statusWarn
	statusFailed
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiGray   = "\x1b[90m"
)

var statusStyles = [...]struct {
	label string
	color string
}{
	statusActive:  {"RUN", ansiBlue},
	statusDone:    {"OK", ansiGreen},
	statusSkipped: {"SKIP", ansiGray},
	statusWarn:    {"WARN", ansiYellow},
	statusFailed:  {"FAIL", ansiRed},
}

const (
	statusLabelWidth = 14
	statusIndent     = "  "
)

// renderStatusLine formats "  <label>:  [KIND] message", tinted by kind when
// colorize is set.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusStyles[statusActive]
	if int(kind) >= 0 && int(kind) < len(statusStyles) {
		style = statusStyles[kind]
	}
	line := fmt.Sprintf("%s%-*s [%s]", statusIndent, statusLabelWidth, label+":", style.label)
	if message != "" {
		line += " " + message
	}
	if colorize {
		return style.color + line + ansiReset
	}
	return line
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
