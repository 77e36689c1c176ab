// Package console renders ccfetch's user-facing terminal output: status
// lines for created and failed files, the setup banner and the end-of-run
// summary.
package console

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Status styles. The palette mirrors classic ANSI so output reads the same
// in any terminal.
var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

// Printer writes styled lines to a destination, normally stdout.
type Printer struct {
	w io.Writer
}

// New creates a Printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) line(style lipgloss.Style, format string, args ...interface{}) {
	fmt.Fprintln(p.w, style.Render(fmt.Sprintf(format, args...)))
}

// Success prints a green status line.
func (p *Printer) Success(format string, args ...interface{}) {
	p.line(successStyle, format, args...)
}

// Warn prints a yellow status line.
func (p *Printer) Warn(format string, args ...interface{}) {
	p.line(warningStyle, format, args...)
}

// Error prints a red status line.
func (p *Printer) Error(format string, args ...interface{}) {
	p.line(errorStyle, format, args...)
}

// Header prints a bold magenta heading.
func (p *Printer) Header(format string, args ...interface{}) {
	p.line(headerStyle, format, args...)
}

// Plain prints an unstyled line.
func (p *Printer) Plain(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Banner prints the setup instructions shown when ccfetch starts with no
// limit arguments.
func (p *Printer) Banner(port int) {
	p.Header("Competitive Companion Problem Downloader")
	p.Plain("")
	p.line(accentStyle, "Setup:")
	p.Plain("  1. Install the Competitive Companion browser extension")
	p.Plain("  2. Set its local port to %d", port)
	p.Plain("  3. Open a problem or contest page and click the extension icon")
	p.Plain("")
	p.line(accentStyle, "Examples:")
	p.Plain("  ccfetch            fetch one batch (default)")
	p.Plain("  ccfetch -n 3       fetch three problems")
	p.Plain("  ccfetch -b 2       fetch two batches")
	p.Plain("  ccfetch -t 10s     fetch until ten seconds pass with no push")
	p.Plain("")
	p.Warn("Waiting for Competitive Companion...")
}

// Summary prints the end-of-run accounting: how many files were created and
// which problems failed.
func (p *Printer) Summary(created int, failed []string) {
	p.Plain("")
	p.Success("Total files created: %d", created)
	for _, name := range failed {
		p.Error("Failed to make problem %s", name)
	}
}
