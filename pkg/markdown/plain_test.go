package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
		{
			name:     "headings lose their markers",
			input:    "# Report\n### Scores",
			expected: "Report\nScores",
		},
		{
			name:     "bullets keep their markers",
			input:    "- **Performance:** 92%\n* *SEO:* 61%",
			expected: "- Performance: 92%\n* SEO: 61%",
		},
		{
			name:     "consecutive star bullets are not read as italics",
			input:    "* one\n* two",
			expected: "* one\n* two",
		},
		{
			name:     "inline markers removed, spacing kept",
			input:    "1. **Title**  \n   `code` and __bold__",
			expected: "1. Title  \n   code and bold",
		},
		{
			name:     "carriage returns dropped",
			input:    "line\r\nnext",
			expected: "line\nnext",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PlainText(tt.input))
		})
	}
}
