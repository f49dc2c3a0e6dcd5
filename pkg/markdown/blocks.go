// Package markdown converts the fixed Markdown subset used by audit reports
// into ordered blocks and the flat, range-styled text Google Docs expects.
package markdown

import (
	"regexp"
	"strings"
)

// BlockKind identifies how a block is rendered in the target document.
type BlockKind int

const (
	Paragraph BlockKind = iota
	Heading
	Subheading
	Bullet
	Numbered
)

func (k BlockKind) String() string {
	switch k {
	case Heading:
		return "heading"
	case Subheading:
		return "subheading"
	case Bullet:
		return "bullet"
	case Numbered:
		return "numbered"
	default:
		return "paragraph"
	}
}

// IsList reports whether blocks of this kind are joined by a single newline.
func (k BlockKind) IsList() bool {
	return k == Bullet || k == Numbered
}

// Block is one semantic unit of parsed Markdown. Text is display text with
// inline emphasis already removed.
type Block struct {
	Text string
	Kind BlockKind
}

var (
	subheadingRe  = regexp.MustCompile(`^#{3,6}\s`)
	headingRe     = regexp.MustCompile(`^#{1,2}\s`)
	anyHeadingRe  = regexp.MustCompile(`^#+\s`)
	headingMarkRe = regexp.MustCompile(`^#+\s*`)
	bulletRe      = regexp.MustCompile(`^[-*]\s+`)
	numberedRe    = regexp.MustCompile(`^\d+\.\s+`)

	boldStarRe  = regexp.MustCompile(`\*\*(.+?)\*\*`)
	boldUnderRe = regexp.MustCompile(`__(.+?)__`)
	italicRe    = regexp.MustCompile(`\*([^*\s](?:[^*\n]*[^*\s])?)\*`)
	codeRe      = regexp.MustCompile("`([^`]+)`")
)

// Parse splits md into blocks in document order. Blank lines separate blocks
// and are never content. Lines that are not headings or list items start a
// paragraph that absorbs following lines until a blank or special line.
func Parse(md string) []Block {
	md = strings.ReplaceAll(md, "\r", "")
	if strings.TrimSpace(md) == "" {
		return nil
	}

	lines := strings.Split(md, "\n")
	var blocks []Block
	add := func(text string, kind BlockKind) {
		text = StripInline(text)
		if text == "" {
			return
		}
		blocks = append(blocks, Block{Text: text, Kind: kind})
	}

	for i := 0; i < len(lines); {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			i++
			continue
		}

		switch {
		case subheadingRe.MatchString(line):
			add(headingMarkRe.ReplaceAllString(line, ""), Subheading)
			i++
		case headingRe.MatchString(line):
			add(headingMarkRe.ReplaceAllString(line, ""), Heading)
			i++
		case bulletRe.MatchString(line):
			add(bulletRe.ReplaceAllString(line, ""), Bullet)
			i++
		case numberedRe.MatchString(line):
			add(line, Numbered)
			i++
		default:
			para := []string{line}
			i++
			for i < len(lines) {
				next := strings.TrimSpace(lines[i])
				if next == "" || isSpecialLine(next) {
					break
				}
				para = append(para, next)
				i++
			}
			add(strings.Join(para, " "), Paragraph)
		}
	}

	return blocks
}

func isSpecialLine(line string) bool {
	return anyHeadingRe.MatchString(line) ||
		bulletRe.MatchString(line) ||
		numberedRe.MatchString(line)
}

// StripInline removes bold, italic and code span markers from a single line
// of text and trims the result.
func StripInline(s string) string {
	s = boldStarRe.ReplaceAllString(s, "$1")
	s = boldUnderRe.ReplaceAllString(s, "$1")
	s = codeRe.ReplaceAllString(s, "$1")
	s = italicRe.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}
