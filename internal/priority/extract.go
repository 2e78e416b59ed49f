package priority

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/nao1215/sitescan/internal/cleaner"
	"github.com/nao1215/sitescan/internal/model"
)

// skipSubtrees are elements whose whole subtree is ignored during
// extraction. The cleaner already strips scripts and styles; this guards
// extraction from raw trees too.
var skipSubtrees = map[string]bool{
	"script": true,
	"style":  true,
	"head":   true,
	"meta":   true,
}

// containerTags hold page structure but are not elements themselves.
// Their children are still walked.
var containerTags = map[string]bool{
	"html": true,
	"body": true,
}

// Extract walks a cleaned document and returns one classified, scored
// element per tag, in document order. The provenance stamp the cleaner
// prepends is not page content and is skipped along with its children.
func Extract(doc *cleaner.Document) []model.Element {
	if doc == nil || doc.Root() == nil {
		return nil
	}

	var elements []model.Element
	stamp := doc.Stamp()
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n == stamp {
			return
		}
		if n.Type == html.ElementNode {
			tag := strings.ToLower(n.Data)
			if skipSubtrees[tag] {
				return
			}
			if !containerTags[tag] {
				elements = append(elements, collectElement(n, tag))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc.Root())
	return elements
}

// collectElement builds the element record for a single node.
func collectElement(n *html.Node, tag string) model.Element {
	e := model.Element{
		Tag:        tag,
		Type:       Classify(n),
		Text:       elementText(n),
		Attributes: attrMap(n),
	}
	e.Score = Score(&e)
	return e
}

// elementText concatenates the trimmed text nodes under n and truncates the
// result to model.MaxElementText bytes without splitting a rune.
func elementText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(n.Data))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	text := sb.String()
	if len(text) <= model.MaxElementText {
		return text
	}
	cut := model.MaxElementText
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// attrMap copies an element's attributes into a map. Returns nil for an
// attributeless element so empty maps never show up in serialized output.
func attrMap(n *html.Node) map[string]string {
	if len(n.Attr) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attrs[a.Key] = a.Val
	}
	return attrs
}
