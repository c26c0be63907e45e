package segment

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"
)

const typeToolCalls = "tool_calls"

// ToolCallResult is the flattened output of ParseToolCalls.
type ToolCallResult struct {
	ToolCalls   []ToolCallEntry
	MainContent string
}

// ToolCalls segments buf into ordered text and tool-call entries.
//
// Tool calls are always emitted as <details type="tool_calls"> by the
// backend contract, so only the details scanner runs here; there is no
// bare tag fallback. Returns nil for empty or whitespace-only input. The
// scan halts at the first unclosed recognized block; a partial entry
// built from whatever attributes have streamed so far is the final
// segment.
func ToolCalls(buf string) []Segment {
	if strings.TrimSpace(buf) == "" {
		return nil
	}

	var segs []Segment
	textFrom := 0
	cursor := 0

	flushText := func(to int) {
		if to > textFrom {
			segs = append(segs, textSegment(buf, textFrom, to))
		}
	}

	for cursor < len(buf) {
		blk, ok := detailsScanner.Scan(buf, cursor)
		if !ok {
			break
		}
		if !blk.OpenTagComplete {
			// Tag still streaming; keep the remainder as plain text.
			flushText(len(buf))
			return segs
		}
		if blk.Attrs[typeAttr] != typeToolCalls {
			if !blk.Closed {
				flushText(len(buf))
				return segs
			}
			cursor = blk.End
			continue
		}

		flushText(blk.Start)
		segs = append(segs, Segment{
			Kind:     KindToolCall,
			Start:    blk.Start,
			End:      blk.End,
			ToolCall: toolCallEntry(blk.Attrs, blk.Start),
		})
		if !blk.Closed {
			return segs
		}
		cursor = blk.End
		textFrom = blk.End
	}

	flushText(len(buf))
	return segs
}

// residualDetails matches leftover <details> markup inside text spans:
// whole closed blocks first, then any unterminated tail.
var residualDetails = regexp.MustCompile(`(?s)<details\b[^>]*>.*?</details>|<details\b.*$`)

// ParseToolCalls runs ToolCalls and flattens the result into the entry
// list plus the remaining prose. MainContent is the concatenation of all
// text segments with residual non-tool-call <details> markup stripped
// defensively, then trimmed. Returns nil when there is nothing to parse.
func ParseToolCalls(buf string) *ToolCallResult {
	segs := ToolCalls(buf)
	if segs == nil {
		return nil
	}
	result := &ToolCallResult{}
	var text strings.Builder
	for _, seg := range segs {
		switch seg.Kind {
		case KindToolCall:
			result.ToolCalls = append(result.ToolCalls, *seg.ToolCall)
		case KindText:
			text.WriteString(seg.Text)
		}
	}
	result.MainContent = strings.TrimSpace(residualDetails.ReplaceAllString(text.String(), ""))
	return result
}

// toolCallEntry decodes one tool-call block from its opening tag
// attributes. Attribute values may themselves be truncated mid-JSON on a
// partial block; decode failures fall back to the unescaped string and
// are expected, not exceptional.
func toolCallEntry(attrs map[string]string, startOffset int) *ToolCallEntry {
	entry := &ToolCallEntry{
		Name: attrs["name"],
		Done: attrs[doneAttr] == "true",
	}
	if entry.Name == "" {
		entry.Name = "tool"
	}
	entry.ID = attrs["id"]
	if entry.ID == "" {
		// Stable within one parse: the start offset is unique per block.
		entry.ID = fmt.Sprintf("%s_%d", entry.Name, startOffset)
	}
	if v, ok := attrs["arguments"]; ok {
		entry.Arguments = decodeAttrValue(v)
	}
	if v, ok := attrs["result"]; ok {
		entry.Result = decodeAttrValue(v)
	}
	if v, ok := attrs["files"]; ok {
		if arr, ok := decodeAttrValue(v).([]any); ok {
			entry.Files = arr
		}
	}
	return entry
}

// decodeAttrValue HTML-unescapes an attribute string and attempts a JSON
// parse; on failure the unescaped string is returned as-is.
func decodeAttrValue(v string) any {
	unescaped := html.UnescapeString(v)
	var decoded any
	if err := json.Unmarshal([]byte(unescaped), &decoded); err != nil {
		return unescaped
	}
	return decoded
}
