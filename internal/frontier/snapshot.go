package frontier

import (
	"fmt"
	"time"

	"github.com/nao1215/sitescan/internal/urlutil"
)

// Snapshot is the persistable form of a Frontier. It is what gets written
// to website_info.json after every crawl step and read back on resume.
//
// The pending queue is deliberately absent: resume re-derives it by
// re-scanning saved documents, so a snapshot never goes stale against the
// artifacts on disk.
type Snapshot struct {
	// Target is the configured target name.
	Target string `json:"target"`

	// Seeds are the start URLs the run was configured with.
	Seeds []string `json:"seeds"`

	// AllowedDomains are the allow rules in "host/prefix" form.
	AllowedDomains []string `json:"allowed_domains,omitempty"`

	// DeniedURLs are the deny substrings.
	DeniedURLs []string `json:"denied_urls,omitempty"`

	// DomainLimit is the per-domain quota the run was configured with.
	// Informational: restore keeps the current configuration's quota.
	DomainLimit int `json:"domain_limit,omitempty"`

	// DomainCounts are the visited-page counters per lowercase host.
	DomainCounts map[string]int `json:"domain_counts"`

	// VisitedURLs are the visited URLs in visit order.
	VisitedURLs []string `json:"visited_urls"`

	// FailedURLs maps each failed URL to its error message.
	FailedURLs map[string]string `json:"failed_urls"`

	// Finished is true once the run reached a terminal state.
	Finished bool `json:"finished"`

	// Failed is true when the run ended in error.
	Failed bool `json:"failed"`

	// FullyVisited is true when nothing reachable was left to crawl.
	FullyVisited bool `json:"fully_visited"`

	// Timestamp records when the snapshot was taken.
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot captures the Frontier's persistable state at this moment.
func (f *Frontier) Snapshot() *Snapshot {
	allow := make([]string, 0, len(f.policy.AllowRules()))
	for _, r := range f.policy.AllowRules() {
		allow = append(allow, r.Host+r.PathPrefix)
	}

	counts := make(map[string]int, len(f.domainCounts))
	for k, v := range f.domainCounts {
		counts[k] = v
	}
	failed := make(map[string]string, len(f.failed))
	for k, v := range f.failed {
		failed[k] = v
	}

	return &Snapshot{
		Target:         f.target,
		Seeds:          append([]string(nil), f.seeds...),
		AllowedDomains: allow,
		DeniedURLs:     append([]string(nil), f.policy.DenyRules()...),
		DomainLimit:    f.maxPagesPerDomain,
		DomainCounts:   counts,
		VisitedURLs:    append([]string(nil), f.visitedOrder...),
		FailedURLs:     failed,
		Finished:       f.finished,
		Failed:         f.failedFlag,
		FullyVisited:   f.fullyVisited,
		Timestamp:      time.Now(),
	}
}

// Restore replaces the Frontier's state with a previously taken snapshot:
// target, seeds, rules, visited and failed ledgers, domain counters, and
// completion flags. The pending queue is cleared; ResumeScan rebuilds it.
// Quotas keep their configured values.
//
// Design decision: Restore adopts the snapshot's rules rather than keeping
// the current configuration's because:
//  1. A resumed run should finish under the rules it started under
//  2. Snapshot -> Restore -> Snapshot must round-trip losslessly
//  3. Changing rules mid-site is a new crawl, not a resume
func (f *Frontier) Restore(snap *Snapshot) error {
	policy, err := urlutil.NewPolicy(snap.AllowedDomains, snap.DeniedURLs)
	if err != nil {
		return fmt.Errorf("restore rules: %w", err)
	}

	f.target = snap.Target
	f.seeds = append([]string(nil), snap.Seeds...)
	f.policy = policy

	f.pending = nil
	f.pendingSet = make(map[string]bool)

	f.visited = make(map[string]bool, len(snap.VisitedURLs))
	f.visitedOrder = make([]string, 0, len(snap.VisitedURLs))
	for _, u := range snap.VisitedURLs {
		if f.visited[u] {
			continue
		}
		f.visited[u] = true
		f.visitedOrder = append(f.visitedOrder, u)
	}

	f.failed = make(map[string]string, len(snap.FailedURLs))
	for k, v := range snap.FailedURLs {
		f.failed[k] = v
	}

	f.domainCounts = make(map[string]int, len(snap.DomainCounts))
	for k, v := range snap.DomainCounts {
		f.domainCounts[k] = v
	}

	f.finished = snap.Finished
	f.failedFlag = snap.Failed
	f.fullyVisited = snap.FullyVisited

	return nil
}
