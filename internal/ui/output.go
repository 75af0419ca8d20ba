package ui

import "fmt"

// Unicode symbols for status indicators
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolInfo    = "ℹ"
)

// Success returns a success message with checkmark symbol
func Success(msg string) string {
	return SymbolSuccess + " " + msg
}

// Successf returns a formatted success message
func Successf(format string, args ...any) string {
	return Success(fmt.Sprintf(format, args...))
}

// Error returns an error message with X symbol
func Error(msg string) string {
	return SymbolError + " " + msg
}

// Errorf returns a formatted error message
func Errorf(format string, args ...any) string {
	return Error(fmt.Sprintf(format, args...))
}

// Warning returns a warning message with warning symbol
func Warning(msg string) string {
	return SymbolWarning + " " + msg
}

// Info returns an info message with info symbol
func Info(msg string) string {
	return SymbolInfo + " " + msg
}

// Infof returns a formatted info message
func Infof(format string, args ...any) string {
	return Info(fmt.Sprintf(format, args...))
}

// Header returns a styled section header
func Header(msg string) string {
	return Bold.Render(msg)
}

// Page renders a page title with its id muted after it.
func Page(title, id string) string {
	if id == "" {
		return Accent.Render(title)
	}
	return Accent.Render(title) + " " + Muted.Render("("+id+")")
}

// Hint returns muted hint text
func Hint(msg string) string {
	return Muted.Render(msg)
}

// Count returns a count badge like "(3 groups)"
func Count(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("(%d %s)", n, singular)
	}
	return fmt.Sprintf("(%d %s)", n, plural)
}
