package frontier

import (
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/sitescan/internal/urlutil"
)

// ScanPolicy controls how much of the saved artifact tree a resume reads
// when rebuilding the pending queue.
//
// Design decision: The default is ScanUntilFirst because:
//  1. One resumable link is enough to restart the crawl loop
//  2. The loop itself rediscovers further links as it visits pages
//  3. Scanning thousands of artifacts up front delays resume for no gain
//
// ScanAll exists for operators who want the fullest possible queue before
// the first fetch, at the cost of reading every saved file.
type ScanPolicy string

const (
	// ScanUntilFirst stops the scan once an artifact yields at least one
	// resumable link.
	ScanUntilFirst ScanPolicy = "until-first"

	// ScanAll reads every artifact in every domain directory.
	ScanAll ScanPolicy = "all"
)

// ArtifactLister enumerates saved document files for one domain. The storage
// package implements it over the per-target output directory; tests supply
// fixtures directly.
type ArtifactLister interface {
	// ArtifactFiles returns paths of the saved .html and .md files for the
	// domain, in a stable order. A domain with no artifacts returns nil.
	ArtifactFiles(domain string) []string
}

// Link patterns for markdown artifacts. HTML artifacts are parsed as a
// document instead.
var (
	// markdownLink matches [text](url) and captures the url.
	markdownLink = regexp.MustCompile(`\[[^\]]*\]\(([^)\s]+)\)`)

	// angleLink matches <url> autolinks and captures the url.
	angleLink = regexp.MustCompile(`<([^>\s]+)>`)

	// bareLink matches http(s) URLs appearing as plain text.
	bareLink = regexp.MustCompile(`https?://[^\s<>"')\]]+`)
)

// ResumeScan rebuilds the pending queue from saved artifacts after Restore.
// It reads the saved documents of each domain the run has visited, extracts
// their links, and enqueues every link that is admissible and unvisited,
// all at depth zero.
//
// It returns the number of URLs enqueued. Zero means nothing reachable is
// left: the frontier is marked fully visited and the caller should treat
// resume as a no-op. A non-zero result clears the completion flags so the
// run can continue. Unreadable artifacts are skipped.
func (f *Frontier) ResumeScan(artifacts ArtifactLister, policy ScanPolicy) int {
	base := ""
	if len(f.seeds) > 0 {
		base = f.seeds[0]
	}

	domains := make([]string, 0, len(f.domainCounts))
	for d := range f.domainCounts {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	enqueued := 0
scan:
	for _, domain := range domains {
		for _, path := range artifacts.ArtifactFiles(domain) {
			for _, link := range extractFileLinks(path, base) {
				if !f.Admissible(link) || f.pendingSet[link] {
					continue
				}
				f.Enqueue(link, 0)
				enqueued++
			}
			if policy == ScanUntilFirst && enqueued > 0 {
				break scan
			}
		}
	}

	if enqueued == 0 {
		f.fullyVisited = true
		return 0
	}
	f.finished = false
	f.failedFlag = false
	f.fullyVisited = false
	return enqueued
}

// extractFileLinks reads one saved artifact and returns the absolute URLs it
// references. Markdown files go through the pattern scan; anything else is
// parsed as HTML and mined for anchor hrefs. Candidates that are neither
// absolute http(s) URLs nor root-relative paths are dropped, because the
// source page of an artifact is not known precisely enough to resolve
// directory-relative links against.
func extractFileLinks(path, base string) []string {
	content, err := os.ReadFile(path) //nolint:gosec // Paths come from the run's own output directory.
	if err != nil {
		return nil
	}

	var candidates []string
	if strings.HasSuffix(path, ".md") {
		for _, m := range markdownLink.FindAllStringSubmatch(string(content), -1) {
			candidates = append(candidates, m[1])
		}
		for _, m := range angleLink.FindAllStringSubmatch(string(content), -1) {
			candidates = append(candidates, m[1])
		}
		candidates = append(candidates, bareLink.FindAllString(string(content), -1)...)
	} else {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(content)))
		if err != nil {
			return nil
		}
		doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
			if href, ok := sel.Attr("href"); ok {
				candidates = append(candidates, href)
			}
		})
	}

	seen := make(map[string]bool, len(candidates))
	links := make([]string, 0, len(candidates))
	for _, c := range candidates {
		var abs string
		var err error
		switch {
		case strings.HasPrefix(c, "/"):
			abs, err = urlutil.Resolve(base, c)
		case strings.HasPrefix(c, "http://"), strings.HasPrefix(c, "https://"):
			abs, err = urlutil.Normalize(c)
		default:
			continue
		}
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true
		links = append(links, abs)
	}
	return links
}
