// Package segment turns a streaming chat buffer into ordered render
// segments.
//
// A buffer mixes markdown prose with embedded reasoning blocks
// (<details type="reasoning">, or bare <think>/<reasoning> pairs) and
// tool-call blocks (<details type="tool_calls">). The segmenters here are
// pure functions of the current buffer: they are re-run on every delta,
// return the same result for the same input, and never fail: incomplete
// markup yields a partial entry or plain text, not an error.
package segment

import "strings"

// Kind discriminates the segment union.
type Kind int

const (
	// KindText is plain markdown prose.
	KindText Kind = iota
	// KindReasoning is an embedded reasoning block.
	KindReasoning
	// KindToolCall is an embedded tool-call block.
	KindToolCall
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindReasoning:
		return "reasoning"
	case KindToolCall:
		return "tool_call"
	default:
		return "unknown"
	}
}

// Segment is one ordered unit of render output. Exactly one of Text,
// Reasoning, or ToolCall is populated, per Kind. Start and End are byte
// offsets of the segment's source span in the scanned buffer, so the
// original buffer is always reconstructible from the segment list.
type Segment struct {
	Kind  Kind
	Start int
	End   int

	// Text is set for KindText.
	Text string
	// Reasoning is set for KindReasoning.
	Reasoning *ReasoningEntry
	// ToolCall is set for KindToolCall.
	ToolCall *ToolCallEntry
}

// ReasoningEntry is a decoded reasoning block. Done=false marks a block
// whose closing marker has not streamed in yet; such an entry is always
// the last segment of a parse result.
type ReasoningEntry struct {
	Reasoning       string
	Summary         string
	DurationSeconds uint
	Done            bool
}

// Cleaned returns the reasoning text with leading blockquote markers
// stripped from each line. Backends that fold reasoning into markdown
// often prefix every line with "> ".
func (e *ReasoningEntry) Cleaned() string {
	if e == nil || e.Reasoning == "" {
		return ""
	}
	lines := strings.Split(e.Reasoning, "\n")
	for i, line := range lines {
		trimmed := strings.TrimPrefix(line, "> ")
		if trimmed == line {
			trimmed = strings.TrimPrefix(line, ">")
		}
		lines[i] = trimmed
	}
	return strings.Join(lines, "\n")
}

// ToolCallEntry is a decoded tool-call block. Arguments and Result hold
// the JSON-decoded attribute value when it parses, otherwise the
// unescaped string as streamed; either may be nil when the attribute has
// not arrived. Files is non-nil only when the attribute decoded to a
// JSON array.
type ToolCallEntry struct {
	ID        string
	Name      string
	Done      bool
	Arguments any
	Result    any
	Files     []any
}

func textSegment(buf string, start, end int) Segment {
	return Segment{Kind: KindText, Start: start, End: end, Text: buf[start:end]}
}
