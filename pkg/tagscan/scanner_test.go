package tagscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan_ClosedBlock(t *testing.T) {
	s := NewScanner("details")
	buf := `before <details type="reasoning" done="true">body</details> after`

	blk, ok := s.Scan(buf, 0)
	require.True(t, ok)
	assert.True(t, blk.Closed)
	assert.True(t, blk.OpenTagComplete)
	assert.Equal(t, 7, blk.Start)
	assert.Equal(t, "body", blk.Inner(buf))
	assert.Equal(t, "reasoning", blk.Attrs["type"])
	assert.Equal(t, "true", blk.Attrs["done"])
	assert.Equal(t, ` after`, buf[blk.End:])
}

func TestScan_NoBlock(t *testing.T) {
	s := NewScanner("details")
	_, ok := s.Scan("plain text only", 0)
	assert.False(t, ok)
}

func TestScan_FromOffset(t *testing.T) {
	s := NewScanner("details")
	buf := `<details type="a"></details><details type="b"></details>`

	first, ok := s.Scan(buf, 0)
	require.True(t, ok)
	assert.Equal(t, "a", first.Attrs["type"])

	second, ok := s.Scan(buf, first.End)
	require.True(t, ok)
	assert.Equal(t, "b", second.Attrs["type"])
	assert.Equal(t, len(buf), second.End)
}

func TestScan_NestedSameTag(t *testing.T) {
	s := NewScanner("details")
	buf := `<details type="outer">x<details type="inner">y</details>z</details>tail`

	blk, ok := s.Scan(buf, 0)
	require.True(t, ok)
	assert.True(t, blk.Closed)
	assert.Equal(t, `x<details type="inner">y</details>z`, blk.Inner(buf))
	assert.Equal(t, "tail", buf[blk.End:])
}

func TestScan_UnclosedBlock(t *testing.T) {
	s := NewScanner("details")
	buf := `<details type="reasoning">partial bo`

	blk, ok := s.Scan(buf, 0)
	require.True(t, ok)
	assert.False(t, blk.Closed)
	assert.True(t, blk.OpenTagComplete)
	assert.Equal(t, "partial bo", blk.Inner(buf))
	assert.Equal(t, len(buf), blk.End)
}

func TestScan_UnclosedNested(t *testing.T) {
	s := NewScanner("details")
	buf := `<details type="outer"><details type="inner">y</details>still open`

	blk, ok := s.Scan(buf, 0)
	require.True(t, ok)
	assert.False(t, blk.Closed)
	assert.Equal(t, `<details type="inner">y</details>still open`, blk.Inner(buf))
}

func TestScan_OpeningTagCutMidAttribute(t *testing.T) {
	s := NewScanner("details")
	buf := `text <details type="tool_ca`

	blk, ok := s.Scan(buf, 0)
	require.True(t, ok)
	assert.False(t, blk.OpenTagComplete)
	assert.False(t, blk.Closed)
	assert.Empty(t, blk.Inner(buf))
	assert.Equal(t, 5, blk.Start)
}

func TestScan_CustomTag(t *testing.T) {
	s := NewScanner("section")
	buf := `<section kind="x">inner</section>`

	blk, ok := s.Scan(buf, 0)
	require.True(t, ok)
	assert.True(t, blk.Closed)
	assert.Equal(t, "inner", blk.Inner(buf))
	assert.Equal(t, "x", blk.Attrs["kind"])
}

func TestParseAttrs(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want map[string]string
	}{
		{
			name: "multiple pairs",
			in:   ` type="tool_calls" id="t1" name="search"`,
			want: map[string]string{"type": "tool_calls", "id": "t1", "name": "search"},
		},
		{
			name: "entities stay encoded",
			in:   ` arguments="{&quot;q&quot;:1}"`,
			want: map[string]string{"arguments": "{&quot;q&quot;:1}"},
		},
		{
			name: "truncated value",
			in:   ` done="fal`,
			want: map[string]string{"done": "fal"},
		},
		{
			name: "empty",
			in:   "",
			want: map[string]string{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseAttrs(tc.in))
		})
	}
}

func TestScan_RawSpanRoundTrip(t *testing.T) {
	s := NewScanner("details")
	buf := `a<details x="1">b</details>c`

	blk, ok := s.Scan(buf, 0)
	require.True(t, ok)
	assert.Equal(t, `<details x="1">b</details>`, blk.Raw(buf))
	assert.Equal(t, buf, buf[:blk.Start]+blk.Raw(buf)+buf[blk.End:])
}
