// Package markdown keeps a streaming markdown preview renderable.
//
// A buffer truncated mid-stream routinely ends inside a code fence, a
// bold span, or an unclosed bracket, which makes most renderers draw the
// rest of the message as code or emphasis. The Balancer appends a
// minimal set of synthetic closing markers to a preview copy of the
// buffer, never to the buffer itself, so the preview always parses
// cleanly. The package also wraps goldmark for callers that want the
// parsed AST of a preview.
package markdown

import (
	"bytes"
	"strings"
)

// Balancer accumulates the raw buffer of one streamed message and
// produces balanced preview strings. It owns its buffer; the synthetic
// closures are recomputed from the full buffer on every call, so the
// preview is correct regardless of how deltas were cut.
//
// A Balancer serves exactly one logical stream; it is not safe for
// concurrent use.
type Balancer struct {
	raw bytes.Buffer
}

// NewBalancer returns an empty balancer.
func NewBalancer() *Balancer {
	return &Balancer{}
}

// Seed resets the balancer to the given content.
func (b *Balancer) Seed(content string) {
	b.raw.Reset()
	b.raw.WriteString(content)
}

// Ingest appends delta to the owned buffer and returns the balanced
// preview for the new buffer state.
func (b *Balancer) Ingest(delta string) string {
	b.raw.WriteString(delta)
	return b.Preview()
}

// Replace swaps the entire buffer for content and returns the balanced
// preview.
func (b *Balancer) Replace(content string) string {
	b.Seed(content)
	return b.Preview()
}

// Preview returns the current buffer plus its synthetic closures.
func (b *Balancer) Preview() string {
	raw := b.raw.String()
	return raw + Closures(raw)
}

// Finalize returns the raw accumulated buffer without closures. The
// stream is over; whatever is unbalanced now is what the model wrote.
func (b *Balancer) Finalize() string {
	return b.raw.String()
}

// Len returns the size of the accumulated buffer in bytes.
func (b *Balancer) Len() int {
	return b.raw.Len()
}

// Closures computes the synthetic closing markers for raw.
//
// The append order is a contract: fence, bold, italic, brackets, parens.
// Reordering changes which constructs nest correctly in common
// renderers: a fence closed after a trailing "**" would swallow the
// bold marker into the code block.
func Closures(raw string) string {
	var out strings.Builder

	// The closing fence must start its own line or renderers treat it
	// as code content.
	if strings.Count(raw, "```")%2 == 1 {
		out.WriteString("\n```")
	}
	if strings.Count(raw, "**")%2 == 1 {
		out.WriteString("**")
	}
	if countLoneAsterisks(raw)%2 == 1 {
		out.WriteString("*")
	}
	for n := strings.Count(raw, "[") - strings.Count(raw, "]"); n > 0; n-- {
		out.WriteString("]")
	}
	for n := strings.Count(raw, "(") - strings.Count(raw, ")"); n > 0; n-- {
		out.WriteString(")")
	}
	return out.String()
}

// countLoneAsterisks counts '*' characters not adjacent to another '*',
// i.e. italic markers as opposed to bold ones.
func countLoneAsterisks(s string) int {
	count := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '*' {
			continue
		}
		prevIsStar := i > 0 && s[i-1] == '*'
		nextIsStar := i+1 < len(s) && s[i+1] == '*'
		if !prevIsStar && !nextIsStar {
			count++
		}
	}
	return count
}
