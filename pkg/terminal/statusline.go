package terminal

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// StatusLine shows replay progress on one terminal line: an animation
// frame, bytes consumed, and segment count, refreshed as the stream
// advances.
type StatusLine struct {
	out       io.Writer
	frames    []string
	current   int
	done      chan struct{}
	mu        sync.Mutex
	style     lipgloss.Style
	startTime time.Time

	bytes    int
	segments int
}

// StatusFrames are the default animation frames.
var StatusFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewStatusLine creates a status line writing to stdout.
func NewStatusLine() *StatusLine {
	return NewStatusLineWithOutput(os.Stdout)
}

// NewStatusLineWithOutput creates a status line with custom output.
func NewStatusLineWithOutput(out io.Writer) *StatusLine {
	return &StatusLine{
		out:    out,
		frames: StatusFrames,
		done:   make(chan struct{}),
		style: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#5599FF"}),
	}
}

// Update records the latest stream counters.
func (s *StatusLine) Update(bytes, segments int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bytes = bytes
	s.segments = segments
}

// Start begins the animation.
func (s *StatusLine) Start() {
	s.startTime = time.Now()
	go s.run()
}

func (s *StatusLine) run() {
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			frame := s.frames[s.current%len(s.frames)]
			bytes := s.bytes
			segments := s.segments
			s.current++
			s.mu.Unlock()

			elapsed := time.Since(s.startTime).Round(time.Second)
			fmt.Fprintf(s.out, "\r%s %dB in, %d segments (%s)",
				s.style.Render(frame), bytes, segments, elapsed)
		}
	}
}

// Elapsed returns the time since the status line started.
func (s *StatusLine) Elapsed() time.Duration {
	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime)
}

// Stop stops the animation and clears the line.
func (s *StatusLine) Stop() {
	close(s.done)
	fmt.Fprintf(s.out, "\r\033[K")
}

// StopWithSummary stops and prints a final one-line summary.
func (s *StatusLine) StopWithSummary() {
	s.mu.Lock()
	bytes := s.bytes
	segments := s.segments
	s.mu.Unlock()

	elapsed := s.Elapsed().Round(time.Millisecond)
	close(s.done)
	fmt.Fprintf(s.out, "\r\033[K%d bytes, %d segments in %s\n", bytes, segments, elapsed)
}
