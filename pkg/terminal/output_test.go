package terminal

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/odvcencio/streamdown/pkg/config"
	"github.com/odvcencio/streamdown/pkg/segment"
)

func plainWriter(buf *bytes.Buffer) *Writer {
	// Rendering disabled keeps output free of ANSI-heavy glamour markup
	// so assertions can match on substrings.
	return NewWithOutput(buf, config.RenderConfig{Enabled: false, Width: 80})
}

func TestWriterMarkdownPassthrough(t *testing.T) {
	var buf bytes.Buffer
	w := plainWriter(&buf)

	if err := w.Markdown("# title"); err != nil {
		t.Fatalf("Markdown failed: %v", err)
	}
	if got := buf.String(); got != "# title\n" {
		t.Errorf("Markdown = %q, want passthrough", got)
	}
}

func TestWriterError(t *testing.T) {
	var buf bytes.Buffer
	w := plainWriter(&buf)

	w.Error("something went wrong")
	got := buf.String()
	if !strings.Contains(got, "error:") {
		t.Errorf("Error output should contain 'error:', got %q", got)
	}
	if !strings.Contains(got, "something went wrong") {
		t.Errorf("Error output should contain message, got %q", got)
	}
}

func TestWriterStream(t *testing.T) {
	var buf bytes.Buffer
	w := plainWriter(&buf)

	w.Stream("chunk one ")
	w.Stream("chunk two")
	w.StreamEnd()
	if got := buf.String(); got != "chunk one chunk two\n" {
		t.Errorf("Stream = %q", got)
	}
}

func TestReasoningBlock(t *testing.T) {
	var buf bytes.Buffer
	w := plainWriter(&buf)

	w.ReasoningBlock(&segment.ReasoningEntry{
		Reasoning:       "> first line\n> second line",
		Summary:         "Thought for 2 seconds",
		DurationSeconds: 2,
		Done:            true,
	})

	got := buf.String()
	if !strings.Contains(got, "Thought for 2 seconds") {
		t.Errorf("missing summary, got %q", got)
	}
	if !strings.Contains(got, "first line") || !strings.Contains(got, "second line") {
		t.Errorf("missing cleaned content, got %q", got)
	}
	if strings.Contains(got, "> first") {
		t.Errorf("quote markers should be stripped, got %q", got)
	}
}

func TestReasoningBlockPartialSummaryFallback(t *testing.T) {
	var buf bytes.Buffer
	w := plainWriter(&buf)

	w.ReasoningBlock(&segment.ReasoningEntry{Reasoning: "working"})
	if !strings.Contains(buf.String(), "Thinking...") {
		t.Errorf("partial entry should show placeholder summary, got %q", buf.String())
	}
}

func TestToolCallBox(t *testing.T) {
	var buf bytes.Buffer
	w := plainWriter(&buf)

	w.ToolCallBox(&segment.ToolCallEntry{
		ID:        "call_1",
		Name:      "search",
		Done:      true,
		Arguments: map[string]any{"query": "go"},
		Result:    "ok",
	})

	got := buf.String()
	for _, want := range []string{"search", "call_1", "done", `{"query":"go"}`, "result: ok"} {
		if !strings.Contains(got, want) {
			t.Errorf("tool box missing %q, got %q", want, got)
		}
	}
}

func TestSegmentDispatch(t *testing.T) {
	var buf bytes.Buffer
	w := plainWriter(&buf)

	if err := w.Segment(segment.Segment{Kind: segment.KindText, Text: "plain"}); err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if err := w.Segment(segment.Segment{
		Kind:      segment.KindReasoning,
		Reasoning: &segment.ReasoningEntry{Reasoning: "r", Done: true},
	}); err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "plain") {
		t.Errorf("missing text segment, got %q", got)
	}
}

func TestStatusLineSummary(t *testing.T) {
	var buf bytes.Buffer
	s := NewStatusLineWithOutput(&buf)
	s.Start()
	s.Update(120, 4)
	time.Sleep(10 * time.Millisecond)
	s.StopWithSummary()

	got := buf.String()
	if !strings.Contains(got, "120 bytes, 4 segments") {
		t.Errorf("summary missing counters, got %q", got)
	}
}
