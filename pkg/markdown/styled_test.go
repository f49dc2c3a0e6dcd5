package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_ScoresScenario(t *testing.T) {
	doc := Format("## Scores\n- ✔ **Performance** 92%\n- ⚠ **SEO** 61%\n\nSummary text.")

	assert.Equal(t, "Scores\n\n✔ Performance 92%\n⚠ SEO 61%\n\nSummary text.", doc.FullText)

	require.Len(t, doc.BoldRanges, 1)
	assert.Equal(t, Range{Start: 1, End: 7}, doc.BoldRanges[0])
	assert.Equal(t, "Scores", doc.Slice(doc.BoldRanges[0]))

	// The first bullet absorbs the newline so both items render as one list.
	require.Len(t, doc.BulletRanges, 2)
	assert.Equal(t, Range{Start: 9, End: 27}, doc.BulletRanges[0])
	assert.Equal(t, Range{Start: 27, End: 36}, doc.BulletRanges[1])
	assert.Equal(t, doc.BulletRanges[0].End, doc.BulletRanges[1].Start)
	assert.Equal(t, "✔ Performance 92%\n", doc.Slice(doc.BulletRanges[0]))
	assert.Equal(t, "⚠ SEO 61%", doc.Slice(doc.BulletRanges[1]))

	assert.True(t, strings.HasSuffix(doc.FullText, "61%\n\nSummary text."))
	assert.Equal(t, 51, doc.EndIndex())
}

func TestBuild_Empty(t *testing.T) {
	doc := Build(nil)
	assert.True(t, doc.IsEmpty())
	assert.Empty(t, doc.BoldRanges)
	assert.Empty(t, doc.BulletRanges)
	assert.Equal(t, FirstIndex, doc.EndIndex())
}

func TestBuild_Separators(t *testing.T) {
	tests := []struct {
		prev, next BlockKind
		expected   string
	}{
		{Bullet, Bullet, "\n"},
		{Bullet, Numbered, "\n"},
		{Numbered, Bullet, "\n"},
		{Numbered, Numbered, "\n"},
		{Heading, Bullet, "\n\n"},
		{Bullet, Paragraph, "\n\n"},
		{Paragraph, Paragraph, "\n\n"},
		{Subheading, Numbered, "\n\n"},
		{Numbered, Heading, "\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.prev.String()+"-"+tt.next.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, Separator(tt.prev, tt.next))

			doc := Build([]Block{{"a", tt.prev}, {"b", tt.next}})
			assert.Equal(t, "a"+tt.expected+"b", doc.FullText)
		})
	}
}

func TestBuild_BulletBeforeNumberedAbsorbsNewline(t *testing.T) {
	doc := Build([]Block{
		{"item", Bullet},
		{"1. step", Numbered},
		{"last", Bullet},
	})

	assert.Equal(t, "item\n1. step\nlast", doc.FullText)
	assert.Equal(t, []Range{{Start: 1, End: 6}, {Start: 14, End: 18}}, doc.BulletRanges)
	assert.Empty(t, doc.BoldRanges)
}

func TestBuild_Properties(t *testing.T) {
	inputs := []string{
		"# SEO & Performance Report\n**Site:** https://example.com\n---\n## PageSpeed Insights (Mobile)\n### Scores\n- **Performance:** 45%\n- **SEO:** 92%\n",
		"### Top results\n1. **Example**  \n   https://example.com  \n   snippet\n\n2. **Other**\n- trailing bullet",
		"para one\nstill para\n\n- a\n- b\n* c\n\n## End",
		"- 🚀 emoji outside the BMP\n- ✔ check\n\n## Done 🎉",
	}

	for _, input := range inputs {
		blocks := Parse(input)
		doc := Build(blocks)

		// Length identity: end index is 1 + separators + block texts.
		expected := FirstIndex
		for i, b := range blocks {
			if i > 0 {
				expected += TextLen(Separator(blocks[i-1].Kind, b.Kind))
			}
			expected += TextLen(b.Text)
		}
		assert.Equal(t, expected, doc.EndIndex(), input)

		// Each recorded range reproduces its block.
		var bold, bullets []Block
		for _, b := range blocks {
			switch b.Kind {
			case Heading, Subheading:
				bold = append(bold, b)
			case Bullet:
				bullets = append(bullets, b)
			}
		}
		require.Len(t, doc.BoldRanges, len(bold), input)
		for i, r := range doc.BoldRanges {
			assert.Equal(t, bold[i].Text, doc.Slice(r), input)
		}
		require.Len(t, doc.BulletRanges, len(bullets), input)
		for i, r := range doc.BulletRanges {
			got := doc.Slice(r)
			assert.True(t, got == bullets[i].Text || got == bullets[i].Text+"\n", "%q vs %q", got, bullets[i].Text)
		}

		// Ranges stay inside the document and are ordered.
		prev := 0
		for _, r := range append(append([]Range{}, doc.BoldRanges...), doc.BulletRanges...) {
			assert.GreaterOrEqual(t, r.Start, FirstIndex)
			assert.LessOrEqual(t, r.End, doc.EndIndex())
			assert.Positive(t, r.Len())
		}
		for _, r := range doc.BulletRanges {
			assert.GreaterOrEqual(t, r.Start, prev)
			prev = r.Start
		}
	}
}

func TestTextLen_CountsUTF16Units(t *testing.T) {
	assert.Equal(t, 3, TextLen("abc"))
	assert.Equal(t, 1, TextLen("✔"))
	assert.Equal(t, 2, TextLen("🚀"))
	assert.Equal(t, 0, TextLen(""))
}

func TestSlice_OutOfRange(t *testing.T) {
	doc := StyledDocument{FullText: "abc"}
	assert.Equal(t, "", doc.Slice(Range{Start: 0, End: 2}))
	assert.Equal(t, "", doc.Slice(Range{Start: 2, End: 9}))
	assert.Equal(t, "bc", doc.Slice(Range{Start: 2, End: 4}))
}
