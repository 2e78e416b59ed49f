// Package frontier holds the mutable crawl state of a single run: the FIFO
// pending queue, the visited and failed ledgers, per-domain page counters,
// and the completion flags.
//
// # Architecture
//
// The package is designed around the Frontier type. The orchestrator's step
// loop is its only writer: it dequeues a URL, fetches it, marks it visited
// or failed, and enqueues the admissible links the page revealed. FIFO
// ordering makes the traversal breadth-first by construction.
//
// Design decision: We keep the Frontier as an explicitly owned value rather
// than process-wide state because:
//  1. Independent targets crawl in parallel, each with its own Frontier
//  2. Single-writer ownership removes every locking question
//  3. A value with accessors is trivial to snapshot and restore in tests
//
// # Persistence
//
// Snapshot and Restore round-trip the ledgers, counters, seeds, rules, and
// completion flags through website_info.json. The pending queue is never
// persisted; ResumeScan rebuilds it by re-reading the documents a previous
// run saved and extracting their links. A corrupt or missing snapshot is
// never fatal: the caller falls back to a cold crawl from the seeds.
//
// # Quotas
//
// QuotaExceeded and DomainQuotaExceeded bound the run. Counters never
// decrease, so a domain that reaches its quota stays closed for the rest
// of the run.
package frontier
