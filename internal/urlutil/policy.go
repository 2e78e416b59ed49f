package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// Rule is an allow rule: a host plus an optional path prefix.
// A URL matches when its host equals the rule host and, if the rule carries
// a path prefix, the URL path starts with that prefix. Prefix comparison is
// trailing-slash-insensitive on both sides, so "/docs" and "/docs/" describe
// the same subtree.
type Rule struct {
	// Host is the lowercase host the rule applies to.
	Host string

	// PathPrefix is the path subtree the rule admits. Empty admits the
	// whole host. Stored without a trailing slash.
	PathPrefix string
}

// ParseRule parses an allow rule from a URL-like string.
// Both full URLs ("https://example.com/docs") and schemeless forms
// ("example.com/docs") are accepted.
func ParseRule(s string) (Rule, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Rule{}, ErrEmptyURL
	}

	// Schemeless rules parse with the host in the path, so prepend a scheme
	// before parsing. The scheme itself is not part of the rule.
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return Rule{}, fmt.Errorf("parse rule %q: %w", s, err)
	}
	if u.Host == "" {
		return Rule{}, fmt.Errorf("%w: %s", ErrNoHost, s)
	}

	prefix := strings.TrimRight(u.Path, "/")
	return Rule{Host: strings.ToLower(u.Host), PathPrefix: prefix}, nil
}

// Matches reports whether the URL falls under this rule.
func (r Rule) Matches(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if strings.ToLower(u.Host) != r.Host {
		return false
	}
	if r.PathPrefix == "" {
		return true
	}
	p := strings.TrimRight(u.Path, "/")
	return p == r.PathPrefix || strings.HasPrefix(p, r.PathPrefix+"/")
}

// Policy decides which URLs may enter the frontier.
//
// Design decision: allow rules match on host equality plus path prefix while
// deny rules match by plain substring because:
//  1. Allow rules describe the site being crawled, where precision matters
//  2. Deny rules are operator escape hatches ("anything mentioning /internal")
//  3. Substring denies compose with any allow set without extra syntax
type Policy struct {
	allow []Rule
	deny  []string
}

// NewPolicy builds a Policy from allow rule strings and deny substrings.
// An unparseable allow rule is an error; deny entries are kept verbatim.
func NewPolicy(allow, deny []string) (*Policy, error) {
	p := &Policy{deny: append([]string(nil), deny...)}
	for _, a := range allow {
		r, err := ParseRule(a)
		if err != nil {
			return nil, fmt.Errorf("allow rule %q: %w", a, err)
		}
		p.allow = append(p.allow, r)
	}
	return p, nil
}

// AllowRules returns the parsed allow rules.
func (p *Policy) AllowRules() []Rule { return p.allow }

// DenyRules returns the deny substrings.
func (p *Policy) DenyRules() []string { return p.deny }

// Admissible reports whether the URL may be crawled. Checks short-circuit
// in order: already visited, deny match, empty allow set (admit everything),
// allow match. The visited func may be nil when the caller has already
// deduplicated.
func (p *Policy) Admissible(raw string, visited func(string) bool) bool {
	if visited != nil && visited(raw) {
		return false
	}
	for _, d := range p.deny {
		if d != "" && strings.Contains(raw, d) {
			return false
		}
	}
	if len(p.allow) == 0 {
		return true
	}
	for _, r := range p.allow {
		if r.Matches(raw) {
			return true
		}
	}
	return false
}

// CrawlablePath reports whether the URL path plausibly names an HTML page.
// A last path segment containing a "." is rejected unless it ends in ".html",
// which filters out assets (images, scripts, archives) without a network
// round-trip. It is a heuristic, not a MIME check.
func CrawlablePath(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	seg := u.Path
	if i := strings.LastIndex(seg, "/"); i >= 0 {
		seg = seg[i+1:]
	}
	if strings.Contains(seg, ".") && !strings.HasSuffix(seg, ".html") {
		return false
	}
	return true
}
