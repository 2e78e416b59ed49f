// Package main provides the entry point for the sitescan CLI.
//
// sitescan is a structure-aware web crawler. It crawls websites
// breadth-first, strips pages down to their meaningful content, scores
// interactive elements by priority, and saves everything as reviewable
// artifacts with full crawl history.
//
// Usage:
//
//	sitescan crawl <url>
//	sitescan crawl <target-name>
//
// See --help for all available options.
package main

// main is the entry point for sitescan.
func main() {
	Execute()
}
