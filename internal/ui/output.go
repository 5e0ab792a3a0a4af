package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Unicode symbols for status indicators
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
)

// Success returns a success message with checkmark symbol
func Success(msg string) string {
	return SymbolSuccess + " " + msg
}

// Successf returns a formatted success message with checkmark symbol
func Successf(format string, args ...any) string {
	return Success(fmt.Sprintf(format, args...))
}

// Error returns an error message with X symbol
func Error(msg string) string {
	return SymbolError + " " + msg
}

// Warning returns a warning message with warning symbol
func Warning(msg string) string {
	return SymbolWarning + " " + msg
}

// Header returns a styled section header
func Header(msg string) string {
	return Bold.Render(msg)
}

// Hint returns muted hint text
func Hint(msg string) string {
	return Muted.Render(msg)
}

// Count returns a count badge such as "(3 tasks)".
func Count(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("(%d %s)", n, singular)
	}
	return fmt.Sprintf("(%d %s)", n, plural)
}

// Caret renders input with a "^~~~" marker under the byte range [start, end)
// on the next line. Offsets are clamped to the input and converted to
// display columns.
func Caret(input string, start, end int) string {
	start = max(0, min(start, len(input)))
	end = max(start, min(end, len(input)))
	pad := lipgloss.Width(input[:start])
	width := max(1, lipgloss.Width(input[start:end]))
	marker := "^" + strings.Repeat("~", width-1)
	return input + "\n" + strings.Repeat(" ", pad) + Accent.Render(marker)
}
