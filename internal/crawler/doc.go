// Package crawler implements the crawl orchestration engine.
//
// A Crawler owns one target's run. It seeds the frontier (or restores a
// previous snapshot when resuming), then steps through pending URLs one at
// a time: admission checks, fetch, clean, classify, save, link discovery,
// snapshot. Every run ends in a terminal state - finished, failed, or
// timed out - and leaves a persisted snapshot behind, so an interrupted
// crawl can always be resumed.
//
// Per-URL problems never end a run: skipped URLs and fetch failures are
// recorded and the loop moves on. The run itself ends only when the queue
// or page quota is exhausted, the context is cancelled, or the inactivity
// watchdog fires because no page has parsed within its window.
//
// BatchProcessor crawls several targets concurrently. Each target gets its
// own Crawler, fetcher, and store; the batch only bounds how many run at
// once and collects their reports.
package crawler
