// Package htmlpage renders the uploaded document as a standalone HTML page
// with flagged sentences highlighted.
package htmlpage

import (
	"fmt"
	"html"
	"strings"
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Climate language review</title>
<style>
body { font-family: Georgia, serif; max-width: 52rem; margin: 2rem auto; line-height: 1.6; }
mark { background-color: #c8e6c9; padding: 0 0.15em; }
</style>
</head>
<body>
%s
</body>
</html>
`

type Renderer struct{}

func New() *Renderer {
	return &Renderer{}
}

// Render escapes the document text and wraps every flagged sentence in a
// mark element. Sentences absent from the text are skipped silently.
func (r *Renderer) Render(text string, flagged []string) (string, error) {
	escaped := html.EscapeString(text)

	for _, sentence := range flagged {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		escapedSentence := html.EscapeString(sentence)
		escaped = strings.ReplaceAll(escaped, escapedSentence, "<mark>"+escapedSentence+"</mark>")
	}

	var b strings.Builder
	for _, paragraph := range strings.Split(escaped, "\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(paragraph)
		b.WriteString("</p>\n")
	}

	return fmt.Sprintf(pageTemplate, b.String()), nil
}
