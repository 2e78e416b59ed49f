package model

// ElementType classifies a structural element of a page by its role.
// The classifier assigns exactly one type per element using a fixed
// precedence, so an element that is both a link and part of a navigation
// block is reported as navigation.
type ElementType string

// Element type constants, ordered by classification precedence.
const (
	// TypeNavigation represents navigation containers and menu structures.
	TypeNavigation ElementType = "navigation"
	// TypeButton represents buttons and submit inputs.
	TypeButton ElementType = "button"
	// TypeLink represents anchors with an href.
	TypeLink ElementType = "link"
	// TypeForm represents forms and form controls.
	TypeForm ElementType = "form"
	// TypeHeader represents heading elements (h1 through h6).
	TypeHeader ElementType = "header"
	// TypeContent represents generic text containers.
	TypeContent ElementType = "content"
	// TypeMedia represents images, video, and audio.
	TypeMedia ElementType = "media"
	// TypeUnknown represents elements that match no other category.
	TypeUnknown ElementType = "unknown"
)

// ElementTypes lists all element types in display order.
// Report writers iterate this to render stable distributions.
var ElementTypes = []ElementType{
	TypeNavigation,
	TypeButton,
	TypeLink,
	TypeForm,
	TypeHeader,
	TypeContent,
	TypeMedia,
	TypeUnknown,
}

// Element represents a classified, scored element from a cleaned page.
//
// Design decision: We keep Element as a plain data holder and put the
// classification and scoring logic in the priority package because:
// 1. Multiple packages (crawler, report, database) consume elements
// 2. The scoring constants change independently of the data shape
// 3. It keeps this package free of HTML parser dependencies
type Element struct {
	// Tag is the lowercase HTML tag name (a, nav, button, ...).
	Tag string `json:"tag"`

	// Type is the classified role of the element.
	Type ElementType `json:"type"`

	// Text is the trimmed inner text, capped at MaxElementText bytes.
	Text string `json:"text,omitempty"`

	// Attributes holds the element's attributes that survived cleaning.
	Attributes map[string]string `json:"attributes,omitempty"`

	// Score is the priority score in [0, 1]. Higher means the element is
	// more likely to matter for understanding the page structure.
	Score float64 `json:"score"`
}

// MaxElementText is the maximum stored length of an element's inner text.
// Longer text is truncated when the element is collected.
const MaxElementText = 200

// Attr returns the value of the named attribute.
// Returns empty string if the attribute is not present.
func (e *Element) Attr(name string) string {
	return e.Attributes[name]
}

// HasAttr returns true if the named attribute is present, even when empty.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.Attributes[name]
	return ok
}
