package gdocs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocumentID(t *testing.T) {
	valid := []struct {
		in   string
		want string
	}{
		{"https://docs.google.com/document/d/1AbC_d-9/edit", "1AbC_d-9"},
		{"https://docs.google.com/document/d/1AbC_d-9/edit?usp=sharing", "1AbC_d-9"},
		{"https://docs.google.com/document/d/1AbC_d-9", "1AbC_d-9"},
		{"  1AbC_d-9  ", "1AbC_d-9"},
		{"abc", "abc"},
	}
	for _, tt := range valid {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDocumentID(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	invalid := []string{
		"",
		"   ",
		"not a doc",
		"https://example.com/x",
		"id/with/slashes",
	}
	for _, in := range invalid {
		t.Run("invalid "+in, func(t *testing.T) {
			_, err := ParseDocumentID(in)
			assert.ErrorIs(t, err, ErrInvalidTarget)
		})
	}
}

func TestDocumentURL(t *testing.T) {
	assert.Equal(t, "https://docs.google.com/document/d/abc123/edit", DocumentURL("abc123"))

	id, err := ParseDocumentID(DocumentURL("abc123"))
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)
}

func TestTarget_Title(t *testing.T) {
	date := time.Date(2025, 3, 1, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "SEO Report - example.com - 2025-03-01", NewTarget("SEO Report", "example.com", date).Title())
}
