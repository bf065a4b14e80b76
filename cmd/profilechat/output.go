package main

import (
	"fmt"
	"io"
	"os"
)

// noColor disables ANSI colors in stderr progress output. Set by --no-color
// or the NO_COLOR environment variable.
var noColor bool

// progressOut receives human-readable progress. stdout stays JSON-only.
var progressOut io.Writer = os.Stderr

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

// mark prints one line prefixed with symbol, both in color.
func mark(color, symbol, format string, args []any) {
	fmt.Fprintln(progressOut, colorize(color, symbol+" "+fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) { mark(colorGreen, "✓", format, args) }
func printError(format string, args ...any) { mark(colorRed, "✗", format, args) }
func printWarning(format string, args ...any) { mark(colorYellow, "⚠", format, args) }
func printStep(format string, args ...any) { mark(colorCyan, "→", format, args) }

func printStatus(label, format string, args ...any) {
	fmt.Fprintf(progressOut, "  %s %s\n", colorize(colorBold, label+":"), fmt.Sprintf(format, args...))
}
