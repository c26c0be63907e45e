// Package chunker re-paces bursty stream deltas for smooth display.
//
// Network transports deliver LLM output in uneven bursts: a hundred
// characters, then nothing, then a paragraph. The Splitter cuts each
// incoming delta into smaller pseudo-random pieces with a short delay
// between them so the UI animates steadily, without changing the text
// itself: concatenating the emitted pieces always reproduces the input.
package chunker

import (
	"context"
	"iter"
	"math/rand"
	"strings"
	"time"

	"github.com/rivo/uniseg"
)

// Chunk length floor. Cuts shorter than this read as flicker.
const minChunkLength = 4

// wordBoundarySlack is how far past a cut point a space may be for the
// cut to be extended to it.
const wordBoundarySlack = 2

// Config governs one chunking session.
type Config struct {
	// Enabled turns re-pacing on. When false every delta passes through
	// untouched.
	Enabled bool
	// MinPassthrough is the delta size below which no splitting happens;
	// tiny deltas are already smooth.
	MinPassthrough int
	// MaxChunkLength bounds the pseudo-random cut length.
	MaxChunkLength int
	// Delay is the pause between consecutive pieces of one delta.
	Delay time.Duration
}

// DefaultConfig returns the pacing used by the CLI.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		MinPassthrough: 16,
		MaxChunkLength: 20,
		Delay:          18 * time.Millisecond,
	}
}

// Splitter cuts deltas into display-sized pieces. One Splitter serves
// one logical stream; it is not safe for concurrent use.
type Splitter struct {
	cfg Config
	rng *rand.Rand
}

// Option customizes a Splitter.
type Option func(*Splitter)

// WithRand sets the random source, letting tests pin the cut sequence.
func WithRand(rng *rand.Rand) Option {
	return func(s *Splitter) { s.rng = rng }
}

// NewSplitter returns a splitter for cfg.
func NewSplitter(cfg Config, opts ...Option) *Splitter {
	if cfg.MaxChunkLength < minChunkLength {
		cfg.MaxChunkLength = minChunkLength
	}
	s := &Splitter{
		cfg: cfg,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Split lazily yields the pieces of one delta. The sequence is finite
// and restartable per call, not mid-iteration; the caller cancels an
// in-flight emission by breaking out of the loop or cancelling ctx. The
// inter-chunk delay runs between pieces, never after the last one.
func (s *Splitter) Split(ctx context.Context, delta string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if !s.cfg.Enabled || len(delta) < s.cfg.MinPassthrough {
			if delta != "" {
				yield(delta)
			}
			return
		}
		rest := delta
		for len(rest) > 0 {
			cut := s.cutPoint(rest)
			if !yield(rest[:cut]) {
				return
			}
			rest = rest[cut:]
			if len(rest) == 0 {
				return
			}
			if !sleepCtx(ctx, s.cfg.Delay) {
				// Cancelled mid-delay: flush the remainder so no text
				// is lost, then stop.
				yield(rest)
				return
			}
		}
	}
}

// cutPoint picks the next cut: a pseudo-random length clamped to the
// remaining text, snapped to a grapheme boundary, then extended to a
// nearby space so words are not split when one is within reach.
func (s *Splitter) cutPoint(rest string) int {
	want := minChunkLength + s.rng.Intn(s.cfg.MaxChunkLength-minChunkLength+1)
	if want >= len(rest) {
		return len(rest)
	}
	cut := snapToGrapheme(rest, want)
	if cut >= len(rest) {
		return len(rest)
	}
	// Word-boundary preference: if the cut lands inside a word and a
	// space follows within slack distance, extend past that space.
	if rest[cut] != ' ' && rest[cut-1] != ' ' {
		limit := cut + wordBoundarySlack
		if limit > len(rest) {
			limit = len(rest)
		}
		if sp := strings.IndexByte(rest[cut:limit], ' '); sp >= 0 {
			cut += sp + 1
		}
	}
	return cut
}

// snapToGrapheme moves a byte offset forward to the nearest grapheme
// cluster boundary so multi-byte clusters are never split mid-sequence.
func snapToGrapheme(s string, offset int) int {
	if offset >= len(s) {
		return len(s)
	}
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		_, to := gr.Positions()
		if to >= offset {
			return to
		}
	}
	return len(s)
}

// sleepCtx pauses for d, returning false when ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx == nil || ctx.Err() == nil
	}
	if ctx == nil {
		time.Sleep(d)
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
