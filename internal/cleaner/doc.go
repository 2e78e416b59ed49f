// Package cleaner normalizes raw HTML into canonical, deduplicated
// documents and extracts their link sets.
//
// # Architecture
//
// Clean is a pure function from (raw HTML, source URL, title, known links)
// to a Document. The same inputs always produce byte-identical output, so a
// content hash over the cleaned HTML detects page changes across crawls.
// Cleaning collapses the head to its title, strips scripts, styles,
// tooltips, comments, and disallowed attributes, removes anchors the crawl
// has already seen, prunes empty elements, and stamps the result with its
// source URL and title.
//
// Design decision: We operate on golang.org/x/net/html trees rather than
// goquery selections because:
//  1. The cleaning steps are structural edits, not queries
//  2. Direct node surgery keeps attribute order intact for determinism
//  3. The same tree feeds rendering, link extraction, and classification
//
// ExtractLinks mines the cleaned tree for anchors and resolves them to
// canonical absolute form. Markdown converts the cleaned document to
// CommonMark for the markdown save format.
package cleaner
