package chunker

import (
	"context"
	"iter"
	"strings"
	"time"
)

// WordSplitter is the byte-oriented alternate mode: it emits whole
// words (with their trailing whitespace) instead of pseudo-random
// character runs. Because delta boundaries rarely align with word
// boundaries, a possibly-incomplete trailing word is carried across
// deltas and only emitted once the next delta proves it complete, or
// when Flush is called at end of stream.
//
// One WordSplitter serves one logical stream; not safe for concurrent
// use.
type WordSplitter struct {
	delay time.Duration
	carry string
}

// NewWordSplitter returns a word-mode splitter with the given
// inter-chunk delay.
func NewWordSplitter(delay time.Duration) *WordSplitter {
	return &WordSplitter{delay: delay}
}

// Split yields the complete words of carry+delta, retaining any
// trailing partial word for the next call.
func (w *WordSplitter) Split(ctx context.Context, delta string) iter.Seq[string] {
	return func(yield func(string) bool) {
		text := w.carry + delta
		w.carry = ""

		for len(text) > 0 {
			cut := nextWordEnd(text)
			if cut < 0 {
				// No whitespace after the final run: the word may still
				// be streaming. Hold it back.
				w.carry = text
				return
			}
			if !yield(text[:cut]) {
				// Caller stopped; keep the rest for a later call.
				w.carry = text[cut:]
				return
			}
			text = text[cut:]
			if len(text) > 0 && !sleepCtx(ctx, w.delay) {
				w.carry = text
				return
			}
		}
	}
}

// Flush returns the buffered trailing word, if any, and clears it. Call
// it when the upstream sequence ends.
func (w *WordSplitter) Flush() string {
	out := w.carry
	w.carry = ""
	return out
}

// Pending reports whether a partial word is buffered.
func (w *WordSplitter) Pending() bool {
	return w.carry != ""
}

// nextWordEnd returns the byte offset just past the first word and its
// trailing whitespace run, or -1 when the text holds no complete word
// (no whitespace at all, or whitespace still growing at the very end).
func nextWordEnd(text string) int {
	sp := strings.IndexAny(text, " \t\n")
	if sp < 0 {
		return -1
	}
	end := sp
	for end < len(text) && (text[end] == ' ' || text[end] == '\t' || text[end] == '\n') {
		end++
	}
	// A run touching the delta boundary may still grow, but the word
	// itself is complete; trailing whitespace merges harmlessly.
	return end
}
