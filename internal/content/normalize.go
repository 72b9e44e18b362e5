package content

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

const removedSelector = `script, style, noscript, nav, header, footer, aside, [aria-hidden="true"]`

var displayNonePattern = regexp.MustCompile(`(?i)display\s*:\s*none`)

var (
	trailingSpacePattern = regexp.MustCompile(` +\n`)
	blankLinesPattern    = regexp.MustCompile(`\n{3,}`)
	spaceRunPattern      = regexp.MustCompile(` {2,}`)
)

// Elements whose text is never rendered.
var skippedElements = map[string]struct{}{
	"head":     {},
	"template": {},
	"svg":      {},
	"iframe":   {},
	"object":   {},
}

var blockElements = map[string]struct{}{
	"address":    {},
	"article":    {},
	"blockquote": {},
	"body":       {},
	"caption":    {},
	"dd":         {},
	"details":    {},
	"dialog":     {},
	"div":        {},
	"dl":         {},
	"dt":         {},
	"fieldset":   {},
	"figcaption": {},
	"figure":     {},
	"form":       {},
	"h1":         {},
	"h2":         {},
	"h3":         {},
	"h4":         {},
	"h5":         {},
	"h6":         {},
	"hr":         {},
	"li":         {},
	"main":       {},
	"ol":         {},
	"p":          {},
	"pre":        {},
	"section":    {},
	"summary":    {},
	"table":      {},
	"tbody":      {},
	"td":         {},
	"tfoot":      {},
	"th":         {},
	"thead":      {},
	"tr":         {},
	"ul":         {},
}

// Normalize reduces an HTML document to its visible, readable text. Markup
// that is never shown (scripts, navigation chrome, hidden elements) is dropped
// before extraction. The result may be empty.
func Normalize(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	doc.Find(removedSelector).Remove()
	doc.Find("[style]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		style, _ := s.Attr("style")
		return displayNonePattern.MatchString(style)
	}).Remove()

	var b strings.Builder
	for _, n := range doc.Nodes {
		extractText(&b, n)
	}
	return NormalizeText(b.String())
}

// NormalizeText applies whitespace collapsing and boilerplate section removal
// to already extracted text.
func NormalizeText(text string) string {
	text = collapseWhitespace(text)
	text = stripSections(text)
	text = collapseWhitespace(text)
	return strings.TrimSpace(text)
}

// WordCount counts whitespace-delimited tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func extractText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if _, skip := skippedElements[n.Data]; skip {
			return
		}
		if n.Data == "br" {
			b.WriteByte('\n')
			return
		}
	}

	_, block := blockElements[n.Data]
	if block && n.Type == html.ElementNode {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(b, c)
	}
	if block && n.Type == html.ElementNode {
		b.WriteByte('\n')
	}
}

// collapseWhitespace keeps paragraph structure (at most one blank line) and
// reduces every other whitespace run to a single space.
func collapseWhitespace(text string) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.Map(func(r rune) rune {
		if r != '\n' && unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, text)
	text = trailingSpacePattern.ReplaceAllString(text, "\n")
	text = blankLinesPattern.ReplaceAllString(text, "\n\n")
	text = spaceRunPattern.ReplaceAllString(text, " ")
	return text
}
