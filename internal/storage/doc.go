// Package storage lays out one crawl target's artifacts on disk.
//
// Each target owns a directory under the configured output root. Cleaned
// pages land under per-host subdirectories mirroring the site's paths, the
// frontier snapshot lives in website_info.json at the target root, and
// screenshots get their own subdirectory. Resume scanning enumerates the
// per-host artifact files through the same store, so the directory layout
// is this package's contract with the frontier.
package storage
