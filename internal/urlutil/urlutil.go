package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Errors returned by Resolve and Normalize. Callers treat any of these as
// "skip this link"; they are never fatal to a crawl run.
var (
	// ErrEmptyURL is returned when the input is empty or whitespace-only.
	ErrEmptyURL = errors.New("empty url")

	// ErrFragmentOnly is returned for hrefs that reference a fragment of the
	// current page (e.g. "#section"). They never lead to a new document.
	ErrFragmentOnly = errors.New("fragment-only url")

	// ErrUnsupportedScheme is returned for schemes that cannot be crawled,
	// such as javascript:, mailto:, tel:, and data:.
	ErrUnsupportedScheme = errors.New("unsupported scheme")

	// ErrNoHost is returned when a URL resolves without a host component,
	// which happens for schemeless absolute inputs like "example.com/page".
	ErrNoHost = errors.New("url has no host")
)

// skipSchemes lists href prefixes that never produce a crawlable document.
var skipSchemes = []string{"javascript:", "mailto:", "tel:", "data:"}

// Normalize canonicalizes an absolute URL string.
//
// The canonical form is: lowercase scheme and host, path defaulting to "/",
// query preserved as-is, and the fragment stripped unless it contains a "/".
// Path-like fragments are preserved because single-page applications route
// real pages through them; stripping would collapse distinct pages into one
// frontier entry.
//
// Normalize is idempotent: Normalize(Normalize(u)) == Normalize(u).
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyURL
	}
	if strings.HasPrefix(raw, "#") {
		return "", ErrFragmentOnly
	}
	for _, s := range skipSchemes {
		if strings.HasPrefix(strings.ToLower(raw), s) {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, raw)
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	return normalizeURL(u)
}

// Resolve resolves a possibly-relative href against a base URL and returns
// the canonical absolute form.
//
// Hrefs that cannot lead to a crawlable document (empty, fragment-only,
// javascript:, mailto:, tel:, data:) are rejected with the sentinel errors
// above. The result always satisfies the Normalize contract.
func Resolve(base, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", ErrEmptyURL
	}
	if strings.HasPrefix(href, "#") {
		return "", ErrFragmentOnly
	}
	for _, s := range skipSchemes {
		if strings.HasPrefix(strings.ToLower(href), s) {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, href)
		}
	}

	baseURL, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", base, err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	return normalizeURL(baseURL.ResolveReference(ref))
}

// normalizeURL applies the canonical form to a parsed URL.
func normalizeURL(u *url.URL) (string, error) {
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme != "http" && u.Scheme != "https" {
		if u.Scheme == "" {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.String())
		}
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %s", ErrNoHost, u.String())
	}

	if u.Path == "" {
		u.Path = "/"
	}

	// Strip the fragment unless it is path-like. A fragment containing "/"
	// is how fragment-routed applications address distinct pages.
	if u.Fragment != "" && !strings.Contains(u.Fragment, "/") {
		u.Fragment = ""
	}

	return u.String(), nil
}

// Host returns the lowercase host of a URL, or "" if it cannot be parsed.
// It is the domain key used for per-domain quotas and output directories.
func Host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
