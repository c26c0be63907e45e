// Package tagscan finds <details>-style blocks inside streaming text.
//
// The scanner is deliberately not an HTML parser: it recognizes a single
// configurable tag, a flat key="value" attribute grammar, and tracks
// nesting depth of the same tag so inner blocks of the same kind do not
// terminate the outer one. Streaming buffers are routinely cut mid-tag,
// mid-attribute, or mid-body, so incomplete input is reported as an open
// block rather than an error.
package tagscan

import "strings"

// Block is one scanned region of the buffer.
//
// Offsets are byte offsets into the scanned string. For an open block
// (Closed=false) InnerEnd and End both extend to the end of the buffer.
type Block struct {
	// Start is the offset of the leading '<' of the opening tag.
	Start int
	// OpenEnd is the offset just past the '>' of the opening tag.
	// Only meaningful when OpenTagComplete is true.
	OpenEnd int
	// Attrs holds the opening tag's key="value" pairs. Values are raw:
	// HTML entities inside them are not decoded here.
	Attrs map[string]string
	// InnerStart/InnerEnd delimit the content between the opening tag
	// and the matching closing tag.
	InnerStart int
	InnerEnd   int
	// End is the offset just past the closing tag, or the buffer length
	// for an open block.
	End int
	// Closed reports whether the matching closing tag was found.
	Closed bool
	// OpenTagComplete reports whether the opening tag's '>' has streamed
	// in yet. When false the block carries no attributes and no inner
	// span; callers should treat the remainder as plain text.
	OpenTagComplete bool
}

// Inner returns the block's inner content within buf.
func (b Block) Inner(buf string) string {
	if !b.OpenTagComplete || b.InnerStart > len(buf) {
		return ""
	}
	end := b.InnerEnd
	if end > len(buf) {
		end = len(buf)
	}
	return buf[b.InnerStart:end]
}

// Raw returns the block's full source span within buf, markup included.
func (b Block) Raw(buf string) string {
	end := b.End
	if end > len(buf) {
		end = len(buf)
	}
	return buf[b.Start:end]
}

// Scanner scans for blocks of one tag name.
type Scanner struct {
	// Tag is the bare tag name, e.g. "details".
	Tag string
}

// NewScanner returns a scanner for the given tag name.
func NewScanner(tag string) *Scanner {
	return &Scanner{Tag: tag}
}

// Scan finds the next block at or after from. The second return value is
// false when no opening tag occurs in the remainder of the buffer.
func (s *Scanner) Scan(buf string, from int) (Block, bool) {
	if from < 0 {
		from = 0
	}
	if from > len(buf) {
		return Block{}, false
	}
	open := "<" + s.Tag
	close := "</" + s.Tag + ">"

	rel := strings.Index(buf[from:], open)
	if rel < 0 {
		return Block{}, false
	}
	start := from + rel

	blk := Block{Start: start, End: len(buf)}

	// Locate the end of the opening tag. The stream may pause before the
	// '>' arrives; report an open-tagless block in that case.
	gt := strings.IndexByte(buf[start:], '>')
	if gt < 0 {
		blk.InnerStart = len(buf)
		blk.InnerEnd = len(buf)
		return blk, true
	}
	blk.OpenTagComplete = true
	blk.OpenEnd = start + gt + 1
	blk.Attrs = parseAttrs(buf[start+len(open) : start+gt])
	blk.InnerStart = blk.OpenEnd

	// Walk forward balancing nested same-tag blocks. At each step the
	// nearer of the next opening and closing marker wins.
	depth := 1
	cursor := blk.OpenEnd
	for depth > 0 {
		nextOpen := strings.Index(buf[cursor:], open)
		nextClose := strings.Index(buf[cursor:], close)
		if nextClose < 0 {
			// Closing tag has not streamed in yet.
			blk.InnerEnd = len(buf)
			blk.End = len(buf)
			return blk, true
		}
		if nextOpen >= 0 && nextOpen < nextClose {
			depth++
			cursor += nextOpen + len(open)
			continue
		}
		depth--
		if depth == 0 {
			blk.InnerEnd = cursor + nextClose
			blk.End = cursor + nextClose + len(close)
			blk.Closed = true
			return blk, true
		}
		cursor += nextClose + len(close)
	}
	return blk, true
}

// parseAttrs extracts key="value" pairs from the inside of an opening
// tag. Values run to the next literal quote; there is no escape syntax
// beyond HTML entities, which are left encoded.
func parseAttrs(s string) map[string]string {
	attrs := make(map[string]string)
	i := 0
	for i < len(s) {
		// Skip separators.
		for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
			i++
		}
		if i >= len(s) {
			break
		}
		keyStart := i
		for i < len(s) && s[i] != '=' && s[i] != ' ' && s[i] != '\t' && s[i] != '\n' && s[i] != '\r' {
			i++
		}
		key := s[keyStart:i]
		if i >= len(s) || s[i] != '=' {
			// Bare attribute without a value; ignore it.
			continue
		}
		i++ // '='
		if i >= len(s) || s[i] != '"' {
			// Unquoted values are not part of the grammar; skip to the
			// next separator.
			for i < len(s) && s[i] != ' ' {
				i++
			}
			continue
		}
		i++ // opening quote
		valStart := i
		end := strings.IndexByte(s[i:], '"')
		if end < 0 {
			// Truncated mid-attribute: take what has streamed so far.
			if key != "" {
				attrs[key] = s[valStart:]
			}
			break
		}
		if key != "" {
			attrs[key] = s[valStart : valStart+end]
		}
		i = valStart + end + 1
	}
	return attrs
}
