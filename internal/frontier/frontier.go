package frontier

import (
	"github.com/nao1215/sitescan/internal/urlutil"
)

// Entry is one pending URL together with the depth it was discovered at.
// Depth 0 is a seed; links found on a depth-N page enter at depth N+1.
type Entry struct {
	// URL is the canonical absolute URL to fetch.
	URL string

	// Depth is the BFS distance from the seed that discovered this URL.
	Depth int
}

// Frontier is the mutable crawl state of a single run: the FIFO pending
// queue, the visited and failed ledgers, and the per-domain page counters.
//
// Design decision: The Frontier is an explicitly owned value with no internal
// locking because:
//  1. Each crawl run has exactly one writer, the orchestrator's step loop
//  2. Independent runs get independent Frontiers, so nothing is shared
//  3. Lock-free state is trivial to snapshot and to test deterministically
type Frontier struct {
	// target is the configured target name this run belongs to.
	target string

	// seeds are the configured start URLs, kept for persistence.
	seeds []string

	// policy decides which URLs are admissible for this run.
	policy *urlutil.Policy

	// maxPages limits the total number of visited pages. Zero or negative
	// means unlimited.
	maxPages int

	// maxPagesPerDomain limits visited pages per domain. Zero or negative
	// means unlimited. Once a domain reaches the limit it stays closed for
	// the rest of the run because counters never decrease.
	maxPagesPerDomain int

	// pending is the FIFO queue of URLs waiting to be fetched.
	pending []Entry

	// pendingSet mirrors pending for O(1) duplicate checks.
	pendingSet map[string]bool

	// visited tracks URLs that completed a fetch, exactly once each.
	visited map[string]bool

	// visitedOrder preserves the order URLs were visited in, for
	// deterministic persistence and reporting.
	visitedOrder []string

	// failed maps a failed URL to its error message. A URL that fails
	// more than once keeps the most recent message.
	failed map[string]string

	// domainCounts counts visited pages per lowercase host.
	domainCounts map[string]int

	// finished is true once the run reached a terminal state.
	finished bool

	// failedFlag is true when the run ended in error (timeout, or a run
	// that visited nothing).
	failedFlag bool

	// fullyVisited is true when the run ended with an empty pending queue,
	// or when a resume scan found nothing left to crawl.
	fullyVisited bool
}

// Option configures a Frontier.
type Option func(*Frontier)

// WithMaxPages sets the total visited-page quota. Zero or negative means
// unlimited.
func WithMaxPages(n int) Option {
	return func(f *Frontier) {
		f.maxPages = n
	}
}

// WithMaxPagesPerDomain sets the per-domain visited-page quota. Zero or
// negative means unlimited.
func WithMaxPagesPerDomain(n int) Option {
	return func(f *Frontier) {
		f.maxPagesPerDomain = n
	}
}

// New creates an empty Frontier for the named target. A nil policy admits
// every URL. Seeds are recorded for persistence; the caller enqueues them.
func New(target string, seeds []string, policy *urlutil.Policy, opts ...Option) *Frontier {
	if policy == nil {
		policy, _ = urlutil.NewPolicy(nil, nil)
	}
	f := &Frontier{
		target:       target,
		seeds:        append([]string(nil), seeds...),
		policy:       policy,
		maxPages:     1000,
		pendingSet:   make(map[string]bool),
		visited:      make(map[string]bool),
		failed:       make(map[string]string),
		domainCounts: make(map[string]int),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Enqueue appends a URL to the pending queue. It is a no-op when the URL is
// already visited or already pending, so visited and pending never overlap
// and the queue stays duplicate-free. FIFO order gives breadth-first
// traversal by construction.
func (f *Frontier) Enqueue(rawURL string, depth int) {
	if f.visited[rawURL] || f.pendingSet[rawURL] {
		return
	}
	f.pending = append(f.pending, Entry{URL: rawURL, Depth: depth})
	f.pendingSet[rawURL] = true
}

// Dequeue pops the oldest pending entry. The second return value is false
// when the queue is empty.
func (f *Frontier) Dequeue() (Entry, bool) {
	if len(f.pending) == 0 {
		return Entry{}, false
	}
	e := f.pending[0]
	f.pending = f.pending[1:]
	delete(f.pendingSet, e.URL)
	return e, true
}

// MarkVisited records a completed fetch for the URL and counts it against
// the domain. A URL is counted exactly once; marking it again is a no-op.
func (f *Frontier) MarkVisited(rawURL, domain string) {
	if f.visited[rawURL] {
		return
	}
	f.visited[rawURL] = true
	f.visitedOrder = append(f.visitedOrder, rawURL)
	f.domainCounts[domain]++
}

// MarkFailed records a fetch failure. Failed URLs are not retried; a repeat
// failure overwrites the stored message.
func (f *Frontier) MarkFailed(rawURL string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	f.failed[rawURL] = msg
}

// QuotaExceeded reports whether the run-wide visited quota is reached.
func (f *Frontier) QuotaExceeded() bool {
	if f.maxPages <= 0 {
		return false
	}
	return len(f.visited) >= f.maxPages
}

// DomainQuotaExceeded reports whether the domain's visited quota is reached.
// Counters never decrease, so once true for a domain it stays true.
func (f *Frontier) DomainQuotaExceeded(domain string) bool {
	if f.maxPagesPerDomain <= 0 {
		return false
	}
	return f.domainCounts[domain] >= f.maxPagesPerDomain
}

// IsVisited reports whether the URL already completed a fetch.
func (f *Frontier) IsVisited(rawURL string) bool {
	return f.visited[rawURL]
}

// Admissible reports whether the URL may enter the frontier under the run's
// allow/deny rules and the visited ledger.
func (f *Frontier) Admissible(rawURL string) bool {
	return f.policy.Admissible(rawURL, f.IsVisited)
}

// Close marks the run terminal. failed records whether the run ended in
// error rather than by exhausting its work. A healthy close with an empty
// pending queue means every reachable page was visited.
func (f *Frontier) Close(failed bool) {
	f.finished = true
	f.failedFlag = failed
	if !failed && len(f.pending) == 0 {
		f.fullyVisited = true
	}
}

// Target returns the target name this Frontier belongs to.
func (f *Frontier) Target() string {
	return f.target
}

// Seeds returns a copy of the configured start URLs.
func (f *Frontier) Seeds() []string {
	return append([]string(nil), f.seeds...)
}

// PendingCount returns the number of URLs waiting to be fetched.
func (f *Frontier) PendingCount() int {
	return len(f.pending)
}

// VisitedCount returns the number of URLs that completed a fetch.
func (f *Frontier) VisitedCount() int {
	return len(f.visited)
}

// FailedCount returns the number of URLs that failed to fetch.
func (f *Frontier) FailedCount() int {
	return len(f.failed)
}

// VisitedURLs returns the visited URLs in visit order.
func (f *Frontier) VisitedURLs() []string {
	return append([]string(nil), f.visitedOrder...)
}

// FailedURLs returns a copy of the failed URL ledger.
func (f *Frontier) FailedURLs() map[string]string {
	m := make(map[string]string, len(f.failed))
	for k, v := range f.failed {
		m[k] = v
	}
	return m
}

// DomainCounts returns a copy of the per-domain visited counters.
func (f *Frontier) DomainCounts() map[string]int {
	m := make(map[string]int, len(f.domainCounts))
	for k, v := range f.domainCounts {
		m[k] = v
	}
	return m
}
