package cleaner

import (
	"strings"

	"golang.org/x/net/html"
)

// strippedTags are elements removed outright with their subtrees. Scripts
// and styles carry no analyzable structure; source and path are asset
// plumbing inside media and svg elements.
var strippedTags = map[string]bool{
	"script": true,
	"style":  true,
	"source": true,
	"path":   true,
}

// allowedAttrs is the attribute allow-list. Everything else is dropped so
// cleaned documents stay small and render identically across fetches of the
// same page.
var allowedAttrs = map[string]bool{
	"href":          true,
	"src":           true,
	"type":          true,
	"id":            true,
	"class":         true,
	"role":          true,
	"name":          true,
	"title":         true,
	"aria-expanded": true,
	"aria-label":    true,
	"data-icon":     true,
}

// preserveTags are kept even when empty: they are meaningful without
// content (separators, media placeholders, form inputs).
var preserveTags = map[string]bool{
	"hr":       true,
	"br":       true,
	"img":      true,
	"video":    true,
	"input":    true,
	"meta":     true,
	"link":     true,
	"textarea": true,
}

// structuralTags form the document skeleton the parser guarantees. They are
// never removed, so every cleaned document has a body to stamp.
var structuralTags = map[string]bool{
	"html": true,
	"head": true,
	"body": true,
}

// Document is a cleaned page: the normalized tree plus its provenance.
type Document struct {
	// URL is the source URL the page was fetched from.
	URL string

	// Title is the page title, "No title" when none could be determined.
	Title string

	// root is the cleaned parse tree.
	root *html.Node

	// stamp is the provenance node prepended to the body.
	stamp *html.Node
}

// HTML renders the cleaned tree. The render is deterministic: cleaning the
// same input twice yields byte-identical output, which is what makes
// content hashes comparable across fetches.
func (d *Document) HTML() string {
	var sb strings.Builder
	if err := html.Render(&sb, d.root); err != nil {
		return ""
	}
	return sb.String()
}

// Root returns the root node of the cleaned tree for downstream walkers.
func (d *Document) Root() *html.Node {
	return d.root
}

// Stamp returns the provenance node Clean prepended to the body, or nil for
// a document without one. Walkers that analyze page content skip it.
func (d *Document) Stamp() *html.Node {
	return d.stamp
}

// Clean normalizes raw HTML into a canonical Document. The steps run in a
// fixed order: collapse the head to its title, remove script/style/source/
// path elements and tooltips, filter attributes down to the allow-list,
// strip comments, drop anchors pointing at knownLinks (nil disables), remove
// empty elements to a fixed point, and prepend the provenance stamp.
//
// Clean never fails: malformed or empty input yields a stamp-only document.
// A nil knownLinks set keeps every anchor.
//
// Design decision: We clean on golang.org/x/net/html trees rather than on
// strings because:
//  1. The parser absorbs the malformed HTML real sites serve
//  2. Tree edits compose without re-parsing between steps
//  3. Rendering the final tree is deterministic, so hashes are stable
func Clean(rawHTML, sourceURL, title string, knownLinks map[string]bool) *Document {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		root, _ = html.Parse(strings.NewReader(""))
	}

	if title == "" {
		title = extractTitle(root)
	}
	if title == "" {
		title = "No title"
	}

	collapseHead(root)
	removeStrippedElements(root)
	filterAttributes(root)
	stripComments(root)
	removeKnownAnchors(root, knownLinks)
	removeEmptyElements(root)
	stamp := addStamp(root, sourceURL, title)

	return &Document{URL: sourceURL, Title: title, root: root, stamp: stamp}
}

// extractTitle returns the text of the first title element.
func extractTitle(root *html.Node) string {
	t := findElement(root, "title")
	if t == nil || t.FirstChild == nil || t.FirstChild.Type != html.TextNode {
		return ""
	}
	return strings.TrimSpace(t.FirstChild.Data)
}

// collapseHead removes everything inside head except title elements.
func collapseHead(root *html.Node) {
	head := findElement(root, "head")
	if head == nil {
		return
	}
	removeNodes(collectElements(head, func(n *html.Node) bool {
		return n != head && n.Data != "title"
	}))
}

// removeStrippedElements drops script/style/source/path subtrees and any
// element serving as a tooltip.
func removeStrippedElements(root *html.Node) {
	removeNodes(collectElements(root, func(n *html.Node) bool {
		return strippedTags[n.Data] || getAttr(n, "role") == "tooltip"
	}))
}

// filterAttributes keeps only allow-listed attributes, preserving their
// original order. Images and inline svg additionally lose src so that a
// text-oriented pipeline never references binary assets.
func filterAttributes(root *html.Node) {
	for _, n := range collectElements(root, func(*html.Node) bool { return true }) {
		dropSrc := n.Data == "img" || n.Data == "svg"
		kept := n.Attr[:0]
		for _, a := range n.Attr {
			if !allowedAttrs[a.Key] {
				continue
			}
			if dropSrc && a.Key == "src" {
				continue
			}
			kept = append(kept, a)
		}
		n.Attr = kept
	}
}

// stripComments removes every comment node.
func stripComments(root *html.Node) {
	var comments []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.CommentNode {
			comments = append(comments, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	removeNodes(comments)
}

// removeKnownAnchors drops anchors whose raw href is already known. Pages
// late in a crawl shrink to just what they add.
func removeKnownAnchors(root *html.Node, knownLinks map[string]bool) {
	if len(knownLinks) == 0 {
		return
	}
	removeNodes(collectElements(root, func(n *html.Node) bool {
		return n.Data == "a" && knownLinks[getAttr(n, "href")]
	}))
}

// removeEmptyElements removes attributeless elements with no non-whitespace
// content, repeating until a pass removes nothing. Removing a child can
// empty its parent, so a single pass is not enough.
func removeEmptyElements(root *html.Node) {
	for {
		empties := collectElements(root, func(n *html.Node) bool {
			if preserveTags[n.Data] || structuralTags[n.Data] {
				return false
			}
			if len(n.Attr) > 0 {
				return false
			}
			return isEmptyElement(n)
		})
		if len(empties) == 0 {
			return
		}
		removeNodes(empties)
	}
}

// isEmptyElement reports whether the element has no element children and no
// non-whitespace text.
func isEmptyElement(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode, html.CommentNode:
			return false
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return false
			}
		}
	}
	return true
}

// addStamp prepends the provenance block to the body: the source URL, the
// page title, and a rule. It returns the stamp so callers can tell it apart
// from page content.
func addStamp(root *html.Node, sourceURL, title string) *html.Node {
	body := findElement(root, "body")
	if body == nil {
		return nil
	}

	stamp := newElement("div", "page-info")
	h1 := newElement("h1", "page-url")
	h1.AppendChild(&html.Node{Type: html.TextNode, Data: sourceURL})
	h2 := newElement("h2", "page-title")
	h2.AppendChild(&html.Node{Type: html.TextNode, Data: title})
	stamp.AppendChild(h1)
	stamp.AppendChild(h2)
	stamp.AppendChild(newElement("hr", ""))

	body.InsertBefore(stamp, body.FirstChild)
	return stamp
}

// newElement builds an element node with an optional class.
func newElement(tag, class string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag}
	if class != "" {
		n.Attr = []html.Attribute{{Key: "class", Val: class}}
	}
	return n
}

// findElement returns the first element with the given tag, document order.
func findElement(root *html.Node, name string) *html.Node {
	if root.Type == html.ElementNode && root.Data == name {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

// collectElements returns elements under root matching the predicate, in
// document order. Collecting before removing keeps traversal stable.
func collectElements(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// removeNodes detaches each node from its parent. A node whose ancestor was
// already detached unlinks from that ancestor harmlessly.
func removeNodes(nodes []*html.Node) {
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}

// getAttr retrieves an attribute value from an element node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
