package markdown

import (
	"strings"
	"unicode/utf16"
)

// FirstIndex is the first insertable index of a Google Docs body.
const FirstIndex = 1

// Range is a half-open span [Start, End) of document indexes.
type Range struct {
	Start int
	End   int
}

// Len returns the number of indexes covered by r.
func (r Range) Len() int {
	return r.End - r.Start
}

// StyledDocument is the flattened text of a report plus the ranges that must
// be restyled after it is inserted at FirstIndex. Indexes are UTF-16 code
// units, which is how Google Docs addresses text.
type StyledDocument struct {
	FullText     string
	BoldRanges   []Range
	BulletRanges []Range
}

// IsEmpty reports whether there is nothing to insert.
func (d StyledDocument) IsEmpty() bool {
	return d.FullText == ""
}

// EndIndex returns the index just past the inserted text.
func (d StyledDocument) EndIndex() int {
	return FirstIndex + TextLen(d.FullText)
}

// Slice returns the text covered by r.
func (d StyledDocument) Slice(r Range) string {
	units := utf16.Encode([]rune(d.FullText))
	start, end := r.Start-FirstIndex, r.End-FirstIndex
	if start < 0 || end > len(units) || start > end {
		return ""
	}
	return string(utf16.Decode(units[start:end]))
}

// TextLen returns the length of s in document indexes.
func TextLen(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// Separator returns the text placed between two adjacent blocks.
func Separator(prev, next BlockKind) string {
	if prev.IsList() && next.IsList() {
		return "\n"
	}
	return "\n\n"
}

// Build concatenates blocks into one string and records the range each
// styled block occupies. Bullet ranges absorb the following newline when the
// next block is also a list item so consecutive bullets form one list.
func Build(blocks []Block) StyledDocument {
	var (
		doc    StyledDocument
		text   strings.Builder
		cursor = FirstIndex
	)

	for i, b := range blocks {
		if i > 0 {
			sep := Separator(blocks[i-1].Kind, b.Kind)
			text.WriteString(sep)
			cursor += TextLen(sep)
		}

		start := cursor
		text.WriteString(b.Text)
		cursor += TextLen(b.Text)
		end := cursor

		switch b.Kind {
		case Heading, Subheading:
			doc.BoldRanges = append(doc.BoldRanges, Range{Start: start, End: end})
		case Bullet:
			if i+1 < len(blocks) && blocks[i+1].Kind.IsList() {
				end++
			}
			doc.BulletRanges = append(doc.BulletRanges, Range{Start: start, End: end})
		}
	}

	doc.FullText = text.String()
	return doc
}

// Format parses md and builds its styled document.
func Format(md string) StyledDocument {
	return Build(Parse(md))
}
