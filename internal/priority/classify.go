package priority

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/sitescan/internal/model"
)

// Classify assigns exactly one type to an element node using a fixed
// precedence: navigation beats button beats link, and so on down to
// unknown. An anchor inside a nav class is therefore reported as
// navigation, which is what the scorer's base weights assume.
func Classify(n *html.Node) model.ElementType {
	if n == nil || n.Type != html.ElementNode {
		return model.TypeUnknown
	}
	tag := strings.ToLower(n.Data)

	switch {
	case tag == "nav" || hasClassToken(n, "nav"):
		return model.TypeNavigation
	case tag == "button" || (tag == "input" && attrVal(n, "type") == "submit"):
		return model.TypeButton
	case tag == "a" && attrVal(n, "href") != "":
		return model.TypeLink
	case tag == "form" || tag == "input" || tag == "textarea" || tag == "select":
		return model.TypeForm
	case isHeading(tag):
		return model.TypeHeader
	case tag == "p" || tag == "div" || tag == "span" || tag == "article" || tag == "section":
		return model.TypeContent
	case tag == "img" || tag == "video" || tag == "audio":
		return model.TypeMedia
	}
	return model.TypeUnknown
}

// isHeading reports whether tag is one of h1 through h6.
func isHeading(tag string) bool {
	return len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6'
}

// hasClassToken reports whether the element's class attribute contains the
// given token. Class attributes are whitespace-separated lists, so "navbar"
// does not count as "nav".
func hasClassToken(n *html.Node, token string) bool {
	for _, c := range strings.Fields(attrVal(n, "class")) {
		if c == token {
			return true
		}
	}
	return false
}

// attrVal retrieves an attribute value from an element node.
func attrVal(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
