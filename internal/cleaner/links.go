package cleaner

import (
	"golang.org/x/net/html"

	"github.com/nao1215/sitescan/internal/urlutil"
)

// ExtractLinks returns the absolute URLs referenced by anchors in the
// cleaned document, resolved against baseURL, in document order with
// duplicates removed. Fragment-only and non-crawlable hrefs are skipped.
func ExtractLinks(doc *Document, baseURL string) []string {
	seen := make(map[string]bool)
	links := make([]string, 0)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := getAttr(n, "href"); href != "" {
				if resolved, err := urlutil.Resolve(baseURL, href); err == nil && !seen[resolved] {
					seen[resolved] = true
					links = append(links, resolved)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc.root)

	return links
}

// RawHrefs returns the raw href attribute of every anchor that survived
// cleaning, in document order with duplicates removed. Callers feed these
// into the knownLinks set of later Clean calls so navigation blocks that
// repeat on every page collapse to their first occurrence.
func RawHrefs(doc *Document) []string {
	seen := make(map[string]bool)
	hrefs := make([]string, 0)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := getAttr(n, "href"); href != "" && !seen[href] {
				seen[href] = true
				hrefs = append(hrefs, href)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc.root)

	return hrefs
}
