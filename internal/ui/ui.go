// Package ui provides terminal output styling for the CLI. Styled output
// is used on interactive terminals; plain output everywhere else (pipes,
// CI, editors).
package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Color palette.
const (
	colorAccent = "39"  // blue accent for actions
	colorGreen  = "42"  // success
	colorYellow = "220" // warnings
	colorRed    = "196" // errors
	colorGray   = "245" // secondary text
)

// Printer writes styled or plain status lines.
type Printer struct {
	styled  bool
	arrow   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	errStyle lipgloss.Style
	dim     lipgloss.Style
	bold    lipgloss.Style
}

// NewPrinter builds a printer, enabling styles only on a TTY.
func NewPrinter() *Printer {
	styled := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	return &Printer{
		styled:  styled,
		arrow:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)),
		success: lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen)),
		warning: lipgloss.NewStyle().Foreground(lipgloss.Color(colorYellow)),
		errStyle: lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed)),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
		bold:    lipgloss.NewStyle().Bold(true),
	}
}

// Step prints a progress line: "→ message".
func (p *Printer) Step(format string, args ...any) {
	p.line(p.arrow, "→", format, args...)
}

// Success prints a completion line: "✓ message".
func (p *Printer) Success(format string, args ...any) {
	p.line(p.success, "✓", format, args...)
}

// Warn prints a warning line: "⚠ message".
func (p *Printer) Warn(format string, args ...any) {
	p.line(p.warning, "⚠", format, args...)
}

// Error prints an error line: "✗ message".
func (p *Printer) Error(format string, args ...any) {
	p.line(p.errStyle, "✗", format, args...)
}

// Plain prints an unstyled line.
func (p *Printer) Plain(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}

// Bold returns text bolded when styling is on.
func (p *Printer) Bold(text string) string {
	if !p.styled {
		return text
	}
	return p.bold.Render(text)
}

// Dim returns text dimmed when styling is on.
func (p *Printer) Dim(text string) string {
	if !p.styled {
		return text
	}
	return p.dim.Render(text)
}

func (p *Printer) line(style lipgloss.Style, marker, format string, args ...any) {
	if p.styled {
		marker = style.Render(marker)
	}
	fmt.Printf("%s %s\n", marker, fmt.Sprintf(format, args...))
}
