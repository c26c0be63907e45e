package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReasoning_BareThinkPair(t *testing.T) {
	segs := Reasoning("Hello <think>pondering</think> world")
	require.Len(t, segs, 3)

	assert.Equal(t, KindText, segs[0].Kind)
	assert.Equal(t, "Hello ", segs[0].Text)

	require.Equal(t, KindReasoning, segs[1].Kind)
	assert.Equal(t, "pondering", segs[1].Reasoning.Reasoning)
	assert.True(t, segs[1].Reasoning.Done)
	assert.Empty(t, segs[1].Reasoning.Summary)

	assert.Equal(t, KindText, segs[2].Kind)
	assert.Equal(t, " world", segs[2].Text)
}

func TestReasoning_UnclosedDetailsBlock(t *testing.T) {
	buf := `<details type="reasoning" done="false" duration="3"><summary>Thinking</summary>partial body`
	segs := Reasoning(buf)
	require.Len(t, segs, 1)

	entry := segs[0].Reasoning
	require.NotNil(t, entry)
	assert.Equal(t, "Thinking", entry.Summary)
	assert.Equal(t, "partial body", entry.Reasoning)
	assert.False(t, entry.Done)
	assert.Equal(t, uint(3), entry.DurationSeconds)
}

func TestReasoning_ClosedDetailsBlock(t *testing.T) {
	buf := `pre <details type="reasoning" done="true" duration="7"><summary>Thought for 7s</summary>the body</details> post`
	segs := Reasoning(buf)
	require.Len(t, segs, 3)

	entry := segs[1].Reasoning
	require.NotNil(t, entry)
	assert.True(t, entry.Done)
	assert.Equal(t, uint(7), entry.DurationSeconds)
	assert.Equal(t, "Thought for 7s", entry.Summary)
	assert.Equal(t, "the body", entry.Reasoning)
}

func TestReasoning_DefaultsWhenAttrsAbsent(t *testing.T) {
	segs := Reasoning(`<details type="reasoning">body</details>`)
	require.Len(t, segs, 1)
	assert.True(t, segs[0].Reasoning.Done)
	assert.Zero(t, segs[0].Reasoning.DurationSeconds)
}

func TestReasoning_UnclosedBareTag(t *testing.T) {
	segs := Reasoning("lead <think>still going")
	require.Len(t, segs, 2)
	assert.Equal(t, "lead ", segs[0].Text)
	require.Equal(t, KindReasoning, segs[1].Kind)
	assert.Equal(t, "still going", segs[1].Reasoning.Reasoning)
	assert.False(t, segs[1].Reasoning.Done)
	assert.Empty(t, segs[1].Reasoning.Summary)
}

func TestReasoning_OpaqueDetailsStaysText(t *testing.T) {
	buf := `a <details type="other">inner</details> b <think>x</think>`
	segs := Reasoning(buf)
	require.Len(t, segs, 2)
	assert.Equal(t, `a <details type="other">inner</details> b `, segs[0].Text)
	assert.Equal(t, "x", segs[1].Reasoning.Reasoning)
}

func TestReasoning_UnclosedOpaqueStopsScan(t *testing.T) {
	// An unrelated open block swallows the remainder, even when a
	// reasoning tag appears later inside it.
	buf := `a <details type="other">pending <think>hidden</think>`
	segs := Reasoning(buf)
	require.Len(t, segs, 1)
	assert.Equal(t, KindText, segs[0].Kind)
	assert.Equal(t, buf, segs[0].Text)
}

func TestReasoning_MalformedOpeningTag(t *testing.T) {
	buf := `text <details type="reaso`
	segs := Reasoning(buf)
	require.Len(t, segs, 1)
	assert.Equal(t, buf, segs[0].Text)
}

func TestReasoning_CustomTagPair(t *testing.T) {
	segs := Reasoning("a <scratch>notes</scratch> b", WithTagPair("<scratch>", "</scratch>"))
	require.Len(t, segs, 3)
	assert.Equal(t, "notes", segs[1].Reasoning.Reasoning)
	assert.True(t, segs[1].Reasoning.Done)
}

func TestReasoning_WithoutDefaultTags(t *testing.T) {
	segs := Reasoning("a <think>x</think>", WithoutDefaultTags())
	require.Len(t, segs, 1)
	assert.Equal(t, "a <think>x</think>", segs[0].Text)
}

func TestReasoning_OptionOrderDoesNotMatter(t *testing.T) {
	buf := "a <scratch>notes</scratch> <think>x</think>"

	for _, opts := range [][]ReasoningOption{
		{WithTagPair("<scratch>", "</scratch>"), WithoutDefaultTags()},
		{WithoutDefaultTags(), WithTagPair("<scratch>", "</scratch>")},
	} {
		segs := Reasoning(buf, opts...)
		require.Len(t, segs, 3)
		assert.Equal(t, "notes", segs[1].Reasoning.Reasoning)
		// The bare <think> pair is disabled; it stays plain text.
		assert.Equal(t, " <think>x</think>", segs[2].Text)
	}
}

func TestReasoning_EmptyInput(t *testing.T) {
	assert.Nil(t, Reasoning(""))
	assert.Nil(t, Reasoning("   \n\t "))
}

func TestReasoning_MultipleBlocks(t *testing.T) {
	buf := `<think>one</think> mid <details type="reasoning"><summary>s</summary>two</details> tail`
	segs := Reasoning(buf)
	require.Len(t, segs, 4)
	assert.Equal(t, "one", segs[0].Reasoning.Reasoning)
	assert.Equal(t, " mid ", segs[1].Text)
	assert.Equal(t, "two", segs[2].Reasoning.Reasoning)
	assert.Equal(t, " tail", segs[3].Text)
}

func TestReasoning_Idempotent(t *testing.T) {
	buf := `x <think>a</think> y <details type="reasoning">b`
	first := Reasoning(buf)
	second := Reasoning(buf)
	assert.Equal(t, first, second)
}

func TestReasoning_SourceSpansReconstructBuffer(t *testing.T) {
	bufs := []string{
		"Hello <think>pondering</think> world",
		`pre <details type="reasoning" done="true"><summary>s</summary>b</details> post`,
		`just text`,
		`open ended <think>still`,
		`a <details type="other">x</details> b <think>c</think> d`,
	}
	for _, buf := range bufs {
		segs := Reasoning(buf)
		var rebuilt string
		for _, seg := range segs {
			rebuilt += buf[seg.Start:seg.End]
		}
		assert.Equal(t, buf, rebuilt, "buffer %q", buf)
	}
}

func TestReasoning_PrefixConvergesToFullParse(t *testing.T) {
	full := `Hello <think>pondering</think> world`
	want := Reasoning(full)

	// Growing the buffer from any prefix must converge to the full
	// parse; nothing is permanently lost by parsing early.
	for cut := 1; cut < len(full); cut++ {
		_ = Reasoning(full[:cut])
		assert.Equal(t, want, Reasoning(full))
	}
}

func TestReasoning_PartialEntryIsAlwaysLast(t *testing.T) {
	buf := `a <think>one</think> b <details type="reasoning" done="false">open`
	segs := Reasoning(buf)
	require.NotEmpty(t, segs)
	last := segs[len(segs)-1]
	require.Equal(t, KindReasoning, last.Kind)
	assert.False(t, last.Reasoning.Done)
	for _, seg := range segs[:len(segs)-1] {
		if seg.Kind == KindReasoning {
			assert.True(t, seg.Reasoning.Done)
		}
	}
}

func TestReasoning_PartialSummary(t *testing.T) {
	buf := `<details type="reasoning"><summary>Thinki`
	segs := Reasoning(buf)
	require.Len(t, segs, 1)
	assert.Equal(t, "Thinki", segs[0].Reasoning.Summary)
	assert.Empty(t, segs[0].Reasoning.Reasoning)
	assert.False(t, segs[0].Reasoning.Done)
}

func TestReasoningEntry_Cleaned(t *testing.T) {
	entry := &ReasoningEntry{Reasoning: "> first line\n> second line\nplain\n>bare"}
	assert.Equal(t, "first line\nsecond line\nplain\nbare", entry.Cleaned())

	assert.Empty(t, (*ReasoningEntry)(nil).Cleaned())
}
