package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/mermaidpng/pkg/batch"
	"github.com/matzehuels/mermaidpng/pkg/errors"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for failure details.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
	iconArrow   = "→"
	iconSwatch  = "■"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printFile prints a file output line.
func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintln(w, styleKey.Render(key)+" "+value)
}

// swatch renders a colored square followed by the color value.
func swatch(color string) string {
	if color == "" {
		return StyleDim.Render("-")
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(iconSwatch) + " " + StyleValue.Render(color)
}

// =============================================================================
// Batch Reporter
// =============================================================================

// consoleReporter prints styled batch events, one line each.
type consoleReporter struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsoleReporter(w io.Writer) *consoleReporter {
	return &consoleReporter{w: w}
}

func (r *consoleReporter) Empty(pattern string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	printInfo(r.w, "No files found matching %s", StyleHighlight.Render(pattern))
}

func (r *consoleReporter) Converted(input, output string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	printSuccess(r.w, "%s %s %s", input, StyleDim.Render(iconArrow), StyleValue.Render(output))
}

func (r *consoleReporter) Failed(input string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	printError(r.w, "%s: %s", input, StyleError.Render(errors.UserMessage(err)))
}

func (r *consoleReporter) Summary(s *batch.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	style := StyleSuccess
	if s.Failed > 0 {
		style = StyleWarning
	}
	fmt.Fprintln(r.w, style.Render(batch.SummaryLine(s)))
}
