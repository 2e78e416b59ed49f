// Package model defines the core data structures used throughout sitescan.
//
// This package contains the following main types:
//   - Page: Represents a crawled web page with its cleaned content
//   - Element: A classified, scored structural element of a page
//   - CrawlReport: The main crawl result structure
//   - Summary: A summarized, human-readable report
//   - State: The lifecycle state of a crawl run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (crawler, priority, report, database) need to
// use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
