package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolCalls_ClosedBlock(t *testing.T) {
	buf := `Before <details type="tool_calls" id="t1" name="search" done="true" arguments="{&quot;q&quot;:&quot;x&quot;}"></details> After`
	segs := ToolCalls(buf)
	require.Len(t, segs, 3)

	assert.Equal(t, "Before ", segs[0].Text)

	tc := segs[1].ToolCall
	require.NotNil(t, tc)
	assert.Equal(t, "t1", tc.ID)
	assert.Equal(t, "search", tc.Name)
	assert.True(t, tc.Done)
	assert.Equal(t, map[string]any{"q": "x"}, tc.Arguments)
	assert.Nil(t, tc.Result)
	assert.Nil(t, tc.Files)

	assert.Equal(t, " After", segs[2].Text)
}

func TestParseToolCalls_MainContent(t *testing.T) {
	buf := `Before <details type="tool_calls" id="t1" name="search" done="true" arguments="{&quot;q&quot;:&quot;x&quot;}"></details> After`
	result := ParseToolCalls(buf)
	require.NotNil(t, result)
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "t1", result.ToolCalls[0].ID)
	assert.Equal(t, "Before  After", result.MainContent)
}

func TestToolCalls_ArgumentsStringFallback(t *testing.T) {
	buf := `<details type="tool_calls" name="run" arguments="not json"></details>`
	segs := ToolCalls(buf)
	require.Len(t, segs, 1)
	assert.Equal(t, "not json", segs[0].ToolCall.Arguments)
}

func TestToolCalls_EscapedNonJSONFallsBackUnescaped(t *testing.T) {
	buf := `<details type="tool_calls" name="run" result="a &lt; b &amp;&amp; c &gt; d"></details>`
	segs := ToolCalls(buf)
	require.Len(t, segs, 1)
	assert.Equal(t, "a < b && c > d", segs[0].ToolCall.Result)
}

func TestToolCalls_DefaultNameAndID(t *testing.T) {
	buf := `xx<details type="tool_calls" done="true"></details>`
	segs := ToolCalls(buf)
	require.Len(t, segs, 2)
	tc := segs[1].ToolCall
	assert.Equal(t, "tool", tc.Name)
	assert.Equal(t, "tool_2", tc.ID)
}

func TestToolCalls_FilesMustBeArray(t *testing.T) {
	arr := `<details type="tool_calls" name="t" files="[{&quot;url&quot;:&quot;a&quot;}]"></details>`
	segs := ToolCalls(arr)
	require.Len(t, segs, 1)
	require.Len(t, segs[0].ToolCall.Files, 1)
	assert.Equal(t, map[string]any{"url": "a"}, segs[0].ToolCall.Files[0])

	obj := `<details type="tool_calls" name="t" files="{&quot;url&quot;:&quot;a&quot;}"></details>`
	segs = ToolCalls(obj)
	require.Len(t, segs, 1)
	assert.Nil(t, segs[0].ToolCall.Files)
}

func TestToolCalls_UnclosedBlockYieldsPartialEntry(t *testing.T) {
	// The backend re-emits the opening tag with whatever arguments have
	// streamed so far; the attribute itself holds truncated JSON.
	buf := `text <details type="tool_calls" id="p1" name="fetch" done="false" arguments="{&quot;url">`
	segs := ToolCalls(buf)
	require.Len(t, segs, 2)
	assert.Equal(t, "text ", segs[0].Text)

	tc := segs[1].ToolCall
	require.NotNil(t, tc)
	assert.Equal(t, "p1", tc.ID)
	assert.Equal(t, "fetch", tc.Name)
	assert.False(t, tc.Done)
	// Truncated JSON decodes as the raw string so far.
	assert.Equal(t, `{"url`, tc.Arguments)
}

func TestToolCalls_OpaqueDetailsStaysText(t *testing.T) {
	buf := `a <details type="reasoning">r</details> b <details type="tool_calls" name="t" done="true"></details>`
	segs := ToolCalls(buf)
	require.Len(t, segs, 2)
	assert.Equal(t, `a <details type="reasoning">r</details> b `, segs[0].Text)
	assert.Equal(t, KindToolCall, segs[1].Kind)
}

func TestParseToolCalls_StripsResidualDetails(t *testing.T) {
	buf := `a <details type="reasoning">r</details> b <details type="tool_calls" name="t" done="true"></details> c`
	result := ParseToolCalls(buf)
	require.NotNil(t, result)
	assert.Equal(t, "a  b  c", result.MainContent)
	require.Len(t, result.ToolCalls, 1)
}

func TestParseToolCalls_EmptyInput(t *testing.T) {
	assert.Nil(t, ParseToolCalls(""))
	assert.Nil(t, ParseToolCalls("  \n "))
}

func TestToolCalls_Idempotent(t *testing.T) {
	buf := `x <details type="tool_calls" name="a" done="true" arguments="1"></details> y`
	assert.Equal(t, ToolCalls(buf), ToolCalls(buf))
}

func TestToolCalls_SourceSpansReconstructBuffer(t *testing.T) {
	bufs := []string{
		`Before <details type="tool_calls" id="t1" name="s" done="true"></details> After`,
		`a <details type="reasoning">r</details> b`,
		`cut off <details type="tool_calls" name="x`,
	}
	for _, buf := range bufs {
		var rebuilt string
		for _, seg := range ToolCalls(buf) {
			rebuilt += buf[seg.Start:seg.End]
		}
		assert.Equal(t, buf, rebuilt, "buffer %q", buf)
	}
}

func TestToolCalls_NumericArguments(t *testing.T) {
	buf := `<details type="tool_calls" name="n" arguments="42"></details>`
	segs := ToolCalls(buf)
	require.Len(t, segs, 1)
	assert.Equal(t, float64(42), segs[0].ToolCall.Arguments)
}
