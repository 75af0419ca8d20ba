package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
)

// DefaultTermWidth is the fallback terminal width when detection fails.
const DefaultTermWidth = 120

// DisplayContext holds display parameters, auto-detecting terminal width.
type DisplayContext struct {
	TermWidth int  // detected or fallback terminal width
	IsTTY     bool // whether stdout is a terminal
}

// NewDisplayContext creates a DisplayContext, auto-detecting terminal dimensions.
func NewDisplayContext() *DisplayContext {
	fd := os.Stdout.Fd()
	isTTY := term.IsTerminal(fd)

	width := DefaultTermWidth
	if isTTY {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
	}

	return &DisplayContext{
		TermWidth: width,
		IsTTY:     isTTY,
	}
}

// NewDisplayContextWithWidth creates a DisplayContext with a fixed width (for testing).
func NewDisplayContextWithWidth(width int) *DisplayContext {
	return &DisplayContext{
		TermWidth: width,
		IsTTY:     true,
	}
}

// IsTerminal reports whether w is a terminal (including Cygwin ptys).
// Anything that is not an *os.File is not.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
