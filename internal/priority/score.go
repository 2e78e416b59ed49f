package priority

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nao1215/sitescan/internal/model"
)

// typeWeights maps each element type to its base score. The type carries
// most of the signal; boosts refine the ordering within a type.
var typeWeights = map[model.ElementType]float64{
	model.TypeNavigation: 0.9,
	model.TypeButton:     0.8,
	model.TypeForm:       0.75,
	model.TypeLink:       0.7,
	model.TypeHeader:     0.6,
	model.TypeMedia:      0.5,
	model.TypeContent:    0.4,
	model.TypeUnknown:    0.1,
}

// Boost caps. Text and attribute boosts saturate so that no amount of
// keyword stuffing outranks a higher element type by more than one tier.
const (
	maxTextBoost = 0.5
	maxAttrBoost = 0.4
)

// keywordCategory is a themed set of keywords worth a single boost. A text
// that matches several keywords in the same category scores the category
// once; matching several categories stacks.
type keywordCategory struct {
	name     string
	boost    float64
	keywords []string
}

// textCategories are matched against lowercased element text, strongest
// first. Containment is enough: "Main Menu" hits both navigation and
// primary.
var textCategories = []keywordCategory{
	{"navigation", 0.3, []string{"nav", "menu", "navigation", "navbar", "header"}},
	{"action", 0.25, []string{"login", "signup", "register", "submit", "search", "buy", "purchase", "order", "checkout"}},
	{"settings", 0.2, []string{"settings", "config", "preferences", "options", "account", "profile"}},
	{"primary", 0.15, []string{"main", "primary", "hero", "featured", "important", "key"}},
	{"content", 0.1, []string{"content", "article", "text", "body", "description"}},
}

// classTiers are matched as substrings of the lowercased class attribute.
// The low tier is negative: footer and ad furniture should sink.
var classTiers = []keywordCategory{
	{"high", 0.3, []string{"nav", "navbar", "navigation", "menu", "header", "btn-primary", "main-nav", "primary-nav"}},
	{"medium", 0.2, []string{"btn", "button", "link", "menu-item", "nav-item", "settings"}},
	{"low", -0.1, []string{"footer", "sidebar", "aside", "advertisement", "ad"}},
}

// idKeywords boost elements whose id suggests page chrome.
var idKeywords = []string{"nav", "menu", "header", "main"}

// dataKeywords boost elements carrying interaction hints in data-* values.
var dataKeywords = []string{"nav", "menu", "action", "button"}

// Score computes the priority of an element as its type weight plus text,
// attribute, and tag boosts, clamped to [0, 1]. Scoring is pure: the same
// element always scores the same.
func Score(e *model.Element) float64 {
	w, ok := typeWeights[e.Type]
	if !ok {
		w = typeWeights[model.TypeUnknown]
	}
	return clamp01(w + textBoost(e.Text) + attrBoost(e.Attributes) + tagBoost(e.Tag))
}

// Sort orders elements by score, highest first. Equal scores keep their
// document order, so a page cleaned twice reports the same ranking.
func Sort(elements []model.Element) {
	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].Score > elements[j].Score
	})
}

// textBoost scores the element's text: one increment per keyword category,
// plus rewards for short labels and all-caps emphasis, capped at
// maxTextBoost.
func textBoost(text string) float64 {
	if text == "" {
		return 0
	}
	boost := 0.0
	lower := strings.ToLower(text)
	for _, cat := range textCategories {
		if containsAny(lower, cat.keywords) {
			boost += cat.boost
		}
	}
	if strings.TrimSpace(text) != "" && utf8.RuneCountInString(text) <= 20 {
		boost += 0.1
	}
	if utf8.RuneCountInString(text) > 2 && isAllCaps(text) {
		boost += 0.1
	}
	return min(boost, maxTextBoost)
}

// attrBoost scores the element's attributes: class tiers, id keywords,
// ARIA role, a real href, and data-* hints. The result is capped at
// maxAttrBoost but has no floor, so the negative class tier passes through.
func attrBoost(attrs map[string]string) float64 {
	boost := 0.0

	if class := strings.ToLower(attrs["class"]); class != "" {
		for _, tier := range classTiers {
			if containsAny(class, tier.keywords) {
				boost += tier.boost
			}
		}
	}

	if id := strings.ToLower(attrs["id"]); id != "" && containsAny(id, idKeywords) {
		boost += 0.2
	}

	switch strings.ToLower(attrs["role"]) {
	case "navigation", "menu", "menubar", "button":
		boost += 0.25
	case "main", "primary":
		boost += 0.2
	}

	if href := strings.TrimSpace(attrs["href"]); href != "" && !strings.HasPrefix(href, "#") {
		boost += 0.15
	}

	for key, val := range attrs {
		if strings.HasPrefix(key, "data-") && containsAny(strings.ToLower(val), dataKeywords) {
			boost += 0.1
			break
		}
	}

	return min(boost, maxAttrBoost)
}

// tagBoost scores the tag itself. Headings decay with their level so h1
// outranks h6.
func tagBoost(tag string) float64 {
	t := strings.ToLower(tag)
	switch t {
	case "nav", "header", "main":
		return 0.2
	case "button", "a", "form", "input":
		return 0.15
	case "article", "section", "aside":
		return 0.1
	}
	if isHeading(t) {
		return 0.2 - float64(t[1]-'0')*0.02
	}
	return 0
}

// containsAny reports whether s contains any of the given substrings.
func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// isAllCaps reports whether s has at least one cased rune and none of them
// lowercase. Digits and punctuation are ignored, so "FAQ-2" counts.
func isAllCaps(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// clamp01 limits v to the [0, 1] range.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Explanation breaks a score into its contributions so reports can show
// why an element ranked where it did.
type Explanation struct {
	// Total is the clamped final score.
	Total float64 `json:"total_score"`

	// Base is the weight of the element's type.
	Base float64 `json:"base_score"`

	// TextBoost is the capped contribution of the element's text.
	TextBoost float64 `json:"text_boost"`

	// AttrBoost is the capped contribution of the element's attributes.
	AttrBoost float64 `json:"attribute_boost"`

	// TagBoost is the contribution of the tag itself.
	TagBoost float64 `json:"tag_boost"`

	// Type is the classified element type the base weight came from.
	Type model.ElementType `json:"element_type"`

	// Reasons are human-readable notes on standout signals.
	Reasons []string `json:"reasoning"`
}

// Explain recomputes an element's score with each contribution reported
// separately.
func Explain(e *model.Element) *Explanation {
	w, ok := typeWeights[e.Type]
	if !ok {
		w = typeWeights[model.TypeUnknown]
	}
	ex := &Explanation{
		Base:      w,
		TextBoost: textBoost(e.Text),
		AttrBoost: attrBoost(e.Attributes),
		TagBoost:  tagBoost(e.Tag),
		Type:      e.Type,
	}
	ex.Total = clamp01(ex.Base + ex.TextBoost + ex.AttrBoost + ex.TagBoost)

	switch e.Type {
	case model.TypeNavigation, model.TypeButton, model.TypeLink:
		ex.Reasons = append(ex.Reasons, fmt.Sprintf("element type %q carries a high base weight", e.Type))
	}
	if strings.Contains(strings.ToLower(e.Attr("class")), "nav") {
		ex.Reasons = append(ex.Reasons, "class names suggest navigation")
	}
	if e.Text != "" && utf8.RuneCountInString(e.Text) <= 20 {
		ex.Reasons = append(ex.Reasons, "short text suggests an action or navigation element")
	}
	return ex
}
