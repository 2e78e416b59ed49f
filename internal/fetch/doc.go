// Package fetch retrieves pages for the crawler.
//
// # Fetchers
//
// Two implementations share the Fetcher interface. Static uses a plain
// HTTP client: fast, proxy-capable, and sufficient for server-rendered
// sites. Browser drives headless Chrome and returns the DOM after scripts
// ran; it is the only fetcher that supports the optional login step and
// screenshots, which both need a live page.
//
// Every navigation is time-bounded by the configured timeout and by the
// caller's context. Transport failures surface as errors; pages the server
// answered but that are unusable (error statuses) come back as a Result
// with Success=false. The crawler records both the same way and moves on.
//
// # Politeness
//
// Both fetchers space requests per host with a rate limiter derived from
// the crawl delay, and RobotsCache checks robots.txt with one fetch per
// host, treating failure as allow-all.
package fetch
