package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// RenderHTML renders md as an HTML fragment for local previews of a report.
// Raw HTML in the source is omitted.
func RenderHTML(md string) (string, error) {
	engine := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)

	var buf bytes.Buffer
	if err := engine.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("markdown render: %w", err)
	}
	return buf.String(), nil
}

// PreviewPage wraps a rendered fragment in a minimal standalone HTML page.
func PreviewPage(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>body { max-width: 900px; margin: 2rem auto; font-family: sans-serif; }</style>
</head>
<body>
%s</body>
</html>
`, util.EscapeHTML([]byte(title)), body)
}
