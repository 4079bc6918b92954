package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinnerNonTerminalIsSilent(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "Rendering flow.mmd")
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	if buf.Len() != 0 {
		t.Errorf("spinner wrote to a non-terminal: %q", buf.String())
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner(context.Background(), &bytes.Buffer{}, "Testing idempotent stop...")
	s.Start()

	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinner(ctx, &bytes.Buffer{}, "Testing with context...")
	s.Start()
	cancel()
	s.Stop()
}

func TestSpinnerStopWithMessages(t *testing.T) {
	var out bytes.Buffer

	s := newSpinner(context.Background(), &bytes.Buffer{}, "Testing success...")
	s.Start()
	s.StopWithSuccess(&out, "Done!")

	s = newSpinner(context.Background(), &bytes.Buffer{}, "Testing error...")
	s.Start()
	s.StopWithError(&out, "Failed!")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), out.String())
	}
	if !strings.HasSuffix(lines[0], iconSuccess+" Done!") {
		t.Errorf("success line = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], iconError+" Failed!") {
		t.Errorf("error line = %q", lines[1])
	}
}
