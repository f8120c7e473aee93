package htmlutil

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetTextLines returns the trimmed, non-empty text nodes under node in document order. <br>
// boundaries and element boundaries both end up as separate lines.
func GetTextLines(node *html.Node) []string {
	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n == nil {
			return
		}
		if n.Type == html.TextNode {
			line := strings.TrimSpace(removeNonPrintable(n.Data))
			if line != "" {
				lines = append(lines, line)
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(node)
	return lines
}

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// Text is the trimmed textContent of every node in the selection.
func Text(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}

// NewDocument parses an html fragment, the fragment is wrapped in <html><body> the same way a
// browser would when assigning innerHTML.
func NewDocument(fragment string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(fragment))
}
