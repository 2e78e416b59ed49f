// Package urlutil provides URL normalization and domain admission policy
// for the crawler.
//
// Normalization produces the canonical form used for frontier deduplication:
// absolute, lowercase scheme and host, explicit path, and no fragment unless
// the fragment is path-like. The same canonical form is applied everywhere a
// URL is stored or compared, so string equality is URL equality.
//
// The admission policy decides whether a discovered URL may enter the
// frontier, combining allow rules (host plus optional path prefix), deny
// rules (substring), and the visited ledger.
package urlutil
