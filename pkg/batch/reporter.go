package batch

import (
	"fmt"
	"io"
	"sync"

	"github.com/matzehuels/mermaidpng/pkg/errors"
)

// Reporter receives the user-facing events of a run. Implementations must
// be safe for concurrent use when Options.Workers > 1.
type Reporter interface {
	Empty(pattern string)
	Converted(input, output string)
	Failed(input string, err error)
	Summary(s *Summary)
}

// TextReporter writes one plain line per event.
type TextReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextReporter creates a reporter writing to w.
func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{w: w}
}

func (t *TextReporter) Empty(pattern string) {
	t.printf("No files found matching %s\n", pattern)
}

func (t *TextReporter) Converted(input, output string) {
	t.printf("Converted %s -> %s\n", input, output)
}

func (t *TextReporter) Failed(input string, err error) {
	t.printf("Failed %s: %s\n", input, errors.UserMessage(err))
}

func (t *TextReporter) Summary(s *Summary) {
	t.printf("%s\n", SummaryLine(s))
}

func (t *TextReporter) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, format, args...)
}

// SummaryLine formats the final counts.
func SummaryLine(s *Summary) string {
	return fmt.Sprintf("Success: %d, Failed: %d", s.Succeeded, s.Failed)
}
