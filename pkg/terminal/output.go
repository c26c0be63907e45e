// Package terminal renders segmented stream output for the CLI:
// markdown previews through glamour, reasoning blocks as dimmed quotes,
// tool calls as bordered boxes. No TUI framework - just print and
// stream.
package terminal

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/odvcencio/streamdown/pkg/config"
	"github.com/odvcencio/streamdown/pkg/segment"
)

// Writer provides styled terminal output for segmented streams.
type Writer struct {
	out      io.Writer
	renderer *glamour.TermRenderer
	width    int
	mu       sync.Mutex

	errorStyle   lipgloss.Style
	dimStyle     lipgloss.Style
	summaryStyle lipgloss.Style
	toolStyle    lipgloss.Style
	headerStyle  lipgloss.Style
}

// New creates a terminal Writer on stdout.
func New(cfg config.RenderConfig) *Writer {
	return NewWithOutput(os.Stdout, cfg)
}

// NewWithOutput creates a terminal Writer with a custom output destination.
func NewWithOutput(out io.Writer, cfg config.RenderConfig) *Writer {
	width := cfg.Width
	if width <= 0 {
		width = terminalWidth()
	}

	var renderer *glamour.TermRenderer
	if cfg.Enabled {
		renderer, _ = glamour.NewTermRenderer(
			themeOption(cfg.Theme),
			glamour.WithWordWrap(width),
		)
	}

	// lipgloss picks adaptive colors off the detected profile
	_ = termenv.ColorProfile()

	return &Writer{
		out:      out,
		renderer: renderer,
		width:    width,

		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#D00000", Dark: "#FF5555"}).
			Bold(true),

		dimStyle: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}),

		summaryStyle: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}).
			Italic(true),

		toolStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#CCCCCC", Dark: "#444444"}).
			Padding(0, 1),

		headerStyle: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"}).
			Bold(true),
	}
}

// themeOption maps a config theme name to a glamour option.
func themeOption(theme string) glamour.TermRendererOption {
	switch theme {
	case "dark":
		return glamour.WithStandardStyle("dark")
	case "light":
		return glamour.WithStandardStyle("light")
	case "notty":
		return glamour.WithStandardStyle("notty")
	default:
		return glamour.WithAutoStyle()
	}
}

// Markdown renders markdown to the terminal with syntax highlighting.
// Without a renderer the source passes through untouched.
func (w *Writer) Markdown(md string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.renderer == nil {
		fmt.Fprintln(w.out, md)
		return nil
	}

	rendered, err := w.renderer.Render(md)
	if err != nil {
		fmt.Fprintln(w.out, md)
		return err
	}

	fmt.Fprint(w.out, rendered)
	return nil
}

// Segment renders one parsed segment in its display form.
func (w *Writer) Segment(seg segment.Segment) error {
	switch seg.Kind {
	case segment.KindReasoning:
		w.ReasoningBlock(seg.Reasoning)
		return nil
	case segment.KindToolCall:
		w.ToolCallBox(seg.ToolCall)
		return nil
	default:
		return w.Markdown(seg.Text)
	}
}

// ReasoningBlock renders a reasoning entry as a dimmed quote with its
// summary line on top.
func (w *Writer) ReasoningBlock(entry *segment.ReasoningEntry) {
	w.mu.Lock()
	defer w.mu.Unlock()

	summary := entry.Summary
	if summary == "" {
		if entry.Done {
			summary = fmt.Sprintf("Thought for %d seconds", entry.DurationSeconds)
		} else {
			summary = "Thinking..."
		}
	}
	fmt.Fprintln(w.out, w.summaryStyle.Render(runewidth.Truncate(summary, w.width, "…")))

	for _, line := range strings.Split(entry.Cleaned(), "\n") {
		fmt.Fprintln(w.out, w.dimStyle.Render("  "+line))
	}
}

// ToolCallBox renders a tool call entry as a bordered box.
func (w *Writer) ToolCallBox(call *segment.ToolCallEntry) {
	w.mu.Lock()
	defer w.mu.Unlock()

	status := "running"
	if call.Done {
		status = "done"
	}
	title := runewidth.Truncate(fmt.Sprintf("%s (%s) %s", call.Name, call.ID, status), w.width-6, "…")

	var sb strings.Builder
	sb.WriteString(w.headerStyle.Render(title))
	if call.Arguments != nil {
		sb.WriteString("\n")
		sb.WriteString(w.dimStyle.Render("args: " + compactJSON(call.Arguments)))
	}
	if call.Result != nil {
		sb.WriteString("\n")
		sb.WriteString(w.dimStyle.Render("result: " + compactJSON(call.Result)))
	}
	if len(call.Files) > 0 {
		sb.WriteString("\n")
		sb.WriteString(w.dimStyle.Render(fmt.Sprintf("files: %d attached", len(call.Files))))
	}

	boxWidth := w.width - 4
	if boxWidth > 80 {
		boxWidth = 80
	}
	fmt.Fprintln(w.out, w.toolStyle.Width(boxWidth).Render(sb.String()))
}

// compactJSON renders a decoded value back to one JSON line; values
// that never were JSON print as-is.
func compactJSON(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// Stream writes a chunk of streaming output without styling.
func (w *Writer) Stream(chunk string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprint(w.out, chunk)
}

// StreamEnd finalizes streaming output with a newline.
func (w *Writer) StreamEnd() {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.out)
}

// Error prints an error message in red.
func (w *Writer) Error(format string, args ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w.out, w.errorStyle.Render("error: "+msg))
}

// Dim prints dimmed/secondary text.
func (w *Writer) Dim(format string, args ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w.out, w.dimStyle.Render(msg))
}

// Header prints a section header.
func (w *Writer) Header(title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.out, w.headerStyle.Render(title))
}

// Divider prints a horizontal divider.
func (w *Writer) Divider() {
	w.mu.Lock()
	defer w.mu.Unlock()
	width := w.width
	if width > 60 {
		width = 60
	}
	fmt.Fprintln(w.out, w.dimStyle.Render(strings.Repeat("─", width)))
}

// terminalWidth returns the terminal width, defaulting to 80.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width == 0 {
		return 80
	}
	return width
}
