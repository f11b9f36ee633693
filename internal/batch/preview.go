package batch

import (
	"fmt"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// previewPage wraps the rendered batch body. Arabic source lines need
// dir="auto" so mixed-direction text displays correctly.
const previewPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Batch preview</title>
<style>body{font-family:sans-serif;max-width:52rem;margin:2rem auto;line-height:1.5}h3{border-top:1px solid #ccc;padding-top:1rem}</style>
</head>
<body dir="auto">
%s
</body>
</html>
`

// RenderHTML renders a batch document as a standalone HTML page for
// reviewers who prefer a browser over raw markdown.
func RenderHTML(doc []byte) string {
	opts := html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	}
	renderer := html.NewRenderer(opts)
	ext := parser.CommonExtensions | parser.Attributes
	p := parser.NewWithExtensions(ext)
	body := markdown.Render(p.Parse(doc), renderer)
	return fmt.Sprintf(previewPage, body)
}
