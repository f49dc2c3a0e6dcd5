package markdown

import (
	"strings"
)

// PlainText renders md as unstyled text for appending to an existing
// document. Heading markers and inline emphasis are removed; list markers at
// the start of a line are kept as literal text.
func PlainText(md string) string {
	if md == "" {
		return md
	}

	lines := strings.Split(strings.ReplaceAll(md, "\r", ""), "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		indent := line[:len(line)-len(trimmed)]

		if strings.HasPrefix(trimmed, "#") {
			lines[i] = StripInline(headingMarkRe.ReplaceAllString(trimmed, ""))
			continue
		}

		if marker := bulletRe.FindString(trimmed); marker != "" {
			lines[i] = indent + marker + stripInlineKeepSpace(trimmed[len(marker):])
			continue
		}

		lines[i] = indent + stripInlineKeepSpace(trimmed)
	}

	return strings.Join(lines, "\n")
}

// stripInlineKeepSpace removes inline markers without trimming, so hard line
// breaks and alignment survive in plain output.
func stripInlineKeepSpace(s string) string {
	s = boldStarRe.ReplaceAllString(s, "$1")
	s = boldUnderRe.ReplaceAllString(s, "$1")
	s = codeRe.ReplaceAllString(s, "$1")
	return italicRe.ReplaceAllString(s, "$1")
}
