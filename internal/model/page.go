package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Page represents a crawled web page after cleaning.
// This structure holds the normalized content and everything extracted
// from it: classified elements and outgoing links.
//
// Design decision: We store the cleaned HTML rather than the raw response
// because:
// 1. Cleaning is deterministic, so the cleaned form is what the hash covers
// 2. Raw responses are large and full of noise (scripts, styles, trackers)
// 3. Downstream consumers (reports, resume scanning) only need the cleaned form
type Page struct {
	// URL is the normalized URL the page was fetched from.
	URL string `json:"url"`

	// Title is the page title extracted from the <title> tag.
	// Empty if the document had none.
	Title string `json:"title,omitempty"`

	// Depth is the BFS depth at which the page was discovered.
	// Seeds are depth 0.
	Depth int `json:"depth"`

	// StatusCode is the HTTP response status code, when known.
	// Rendered fetches may not expose one; zero means unknown.
	StatusCode int `json:"status_code,omitempty"`

	// FetchedAt is when the page was successfully fetched.
	FetchedAt time.Time `json:"fetched_at"`

	// CleanedHTML is the deterministic cleaned document.
	CleanedHTML string `json:"-"` // Excluded from JSON to reduce report size

	// Markdown is the markdown rendering of the cleaned document.
	// Only set when the run saves markdown artifacts.
	Markdown string `json:"-"` // Excluded from JSON to reduce report size

	// Hash is the SHA-256 hash of the cleaned HTML.
	// Used for deduplication and change detection between runs.
	Hash string `json:"hash,omitempty"`

	// Elements contains the classified, scored elements of the page.
	Elements []Element `json:"elements,omitempty"`

	// Links contains the resolved outgoing links found on the page.
	Links []string `json:"links,omitempty"`
}

// ComputeHash calculates and sets the SHA-256 hash of the cleaned HTML.
// This should be called after setting the CleanedHTML field.
// Because cleaning is deterministic, an unchanged source page produces
// an unchanged hash across runs.
func (p *Page) ComputeHash() {
	if p.CleanedHTML == "" {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256([]byte(p.CleanedHTML))
	p.Hash = hex.EncodeToString(hash[:])
}

// ElementsByType returns the page's elements of the given type,
// in document order.
func (p *Page) ElementsByType(t ElementType) []Element {
	var result []Element
	for _, e := range p.Elements {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// CountByType returns a count of elements per type.
func (p *Page) CountByType() map[ElementType]int {
	counts := make(map[ElementType]int)
	for _, e := range p.Elements {
		counts[e.Type]++
	}
	return counts
}
