package segment

import (
	"strconv"
	"strings"

	"github.com/odvcencio/streamdown/pkg/tagscan"
)

const (
	detailsOpen   = "<details"
	summaryOpen   = "<summary>"
	summaryClose  = "</summary>"
	typeReasoning = "reasoning"
	typeAttr      = "type"
	doneAttr      = "done"
	durationAttr  = "duration"
)

// TagPair is a bare open/close marker pair recognized as a reasoning
// block without attributes, e.g. <think>...</think>.
type TagPair struct {
	Open  string
	Close string
}

var defaultTagPairs = []TagPair{
	{Open: "<think>", Close: "</think>"},
	{Open: "<reasoning>", Close: "</reasoning>"},
}

type reasoningConfig struct {
	extra       []TagPair
	useDefaults bool
}

// tagPairs assembles the recognized set after all options have run, so
// option order never matters.
func (c *reasoningConfig) tagPairs() []TagPair {
	var pairs []TagPair
	if c.useDefaults {
		pairs = append(pairs, defaultTagPairs...)
	}
	return append(pairs, c.extra...)
}

// ReasoningOption customizes Reasoning.
type ReasoningOption func(*reasoningConfig)

// WithTagPair adds a caller-supplied bare tag pair to the recognized set.
func WithTagPair(open, close string) ReasoningOption {
	return func(c *reasoningConfig) {
		if open != "" && close != "" {
			c.extra = append(c.extra, TagPair{Open: open, Close: close})
		}
	}
}

// WithoutDefaultTags drops the built-in <think> and <reasoning> pairs,
// leaving only pairs added through WithTagPair.
func WithoutDefaultTags() ReasoningOption {
	return func(c *reasoningConfig) {
		c.useDefaults = false
	}
}

var detailsScanner = tagscan.NewScanner("details")

// Reasoning segments buf into ordered text and reasoning entries.
//
// Returns nil for empty or whitespace-only input so callers can tell
// "nothing to parse" apart from "parsed into zero entries". The scan is
// a single left-to-right pass; it stops at the first unclosed recognized
// block, so a partial entry is always the final segment.
func Reasoning(buf string, opts ...ReasoningOption) []Segment {
	if strings.TrimSpace(buf) == "" {
		return nil
	}
	cfg := reasoningConfig{useDefaults: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	pairs := cfg.tagPairs()

	var segs []Segment
	textFrom := 0
	cursor := 0

	flushText := func(to int) {
		if to > textFrom {
			segs = append(segs, textSegment(buf, textFrom, to))
		}
	}

	for cursor < len(buf) {
		detailsAt := strings.Index(buf[cursor:], detailsOpen)
		pairAt, pair := nearestPair(buf, cursor, pairs)

		if detailsAt < 0 && pairAt < 0 {
			break
		}
		if detailsAt >= 0 {
			detailsAt += cursor
		}

		if pairAt >= 0 && (detailsAt < 0 || pairAt < detailsAt) {
			// Bare tag pair.
			flushText(pairAt)
			bodyStart := pairAt + len(pair.Open)
			closeAt := strings.Index(buf[bodyStart:], pair.Close)
			if closeAt < 0 {
				segs = append(segs, Segment{
					Kind:  KindReasoning,
					Start: pairAt,
					End:   len(buf),
					Reasoning: &ReasoningEntry{
						Reasoning: strings.TrimSpace(buf[bodyStart:]),
					},
				})
				return segs
			}
			end := bodyStart + closeAt + len(pair.Close)
			segs = append(segs, Segment{
				Kind:  KindReasoning,
				Start: pairAt,
				End:   end,
				Reasoning: &ReasoningEntry{
					Reasoning: strings.TrimSpace(buf[bodyStart : bodyStart+closeAt]),
					Done:      true,
				},
			})
			cursor = end
			textFrom = end
			continue
		}

		// <details> block.
		blk, ok := detailsScanner.Scan(buf, detailsAt)
		if !ok || !blk.OpenTagComplete {
			// The opening tag itself is still streaming; everything from
			// here on is plain text for now.
			flushText(len(buf))
			return segs
		}
		if blk.Attrs[typeAttr] != typeReasoning {
			if !blk.Closed {
				// An unrelated block is still open. Stop here rather
				// than guessing at content that may still change.
				flushText(len(buf))
				return segs
			}
			// Opaque closed block: it stays part of the surrounding text.
			cursor = blk.End
			continue
		}

		flushText(blk.Start)
		entry := reasoningEntry(buf, blk)
		segs = append(segs, Segment{
			Kind:      KindReasoning,
			Start:     blk.Start,
			End:       blk.End,
			Reasoning: entry,
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

// reasoningEntry decodes one <details type="reasoning"> block, closed or
// still streaming.
func reasoningEntry(buf string, blk tagscan.Block) *ReasoningEntry {
	entry := &ReasoningEntry{}
	if v, ok := blk.Attrs[durationAttr]; ok {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			entry.DurationSeconds = uint(n)
		}
	}
	// An open block is never done, whatever its attributes claim so far.
	entry.Done = blk.Closed && blk.Attrs[doneAttr] != "false"

	inner := blk.Inner(buf)
	summary, body := splitSummary(inner)
	entry.Summary = strings.TrimSpace(summary)
	entry.Reasoning = strings.TrimSpace(body)
	return entry
}

// splitSummary separates an optional leading <summary> element from the
// rest of the block body. A summary whose closing tag has not streamed
// in yet is returned as the partial summary with an empty body.
func splitSummary(inner string) (summary, body string) {
	at := strings.Index(inner, summaryOpen)
	if at < 0 {
		return "", inner
	}
	contentStart := at + len(summaryOpen)
	end := strings.Index(inner[contentStart:], summaryClose)
	if end < 0 {
		return inner[contentStart:], inner[:at]
	}
	summary = inner[contentStart : contentStart+end]
	body = inner[:at] + inner[contentStart+end+len(summaryClose):]
	return summary, body
}

// nearestPair finds the closest open marker among the recognized bare
// tag pairs at or after from.
func nearestPair(buf string, from int, pairs []TagPair) (int, TagPair) {
	best := -1
	var bestPair TagPair
	for _, p := range pairs {
		at := strings.Index(buf[from:], p.Open)
		if at < 0 {
			continue
		}
		at += from
		if best < 0 || at < best {
			best = at
			bestPair = p
		}
	}
	return best, bestPair
}
