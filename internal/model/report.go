package model

import (
	"time"

	"github.com/google/uuid"
)

// CrawlReport is the main crawl result structure.
// It contains all information collected during a crawl of one target.
//
// Design decision: We use a single large struct rather than many small ones
// to simplify serialization and database storage. The Summary sub-struct
// groups the human-facing digest for easier access.
type CrawlReport struct {
	// === Basic Information ===

	// RunID uniquely identifies this crawl run.
	RunID string `json:"run_id"`

	// Target is the configured target name the run crawled.
	Target string `json:"target"`

	// Seeds are the URLs the crawl started from.
	Seeds []string `json:"seeds,omitempty"`

	// === Run Lifecycle ===

	// State is the run's lifecycle state. Terminal after the run ends.
	State State `json:"state"`

	// StartedAt is when the run was created.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run reached a terminal state.
	// Zero while the run is still in progress.
	FinishedAt time.Time `json:"finished_at"`

	// Resumed is true if the run restored state from a previous snapshot.
	Resumed bool `json:"resumed,omitempty"`

	// === Crawl Statistics ===

	// PagesVisited is the number of pages successfully fetched and parsed.
	PagesVisited int `json:"pages_visited"`

	// PagesFailed is the number of URLs whose fetch or parse failed.
	PagesFailed int `json:"pages_failed"`

	// PagesSkipped is the number of dequeued URLs rejected by depth,
	// admissibility, path, quota, or robots checks.
	PagesSkipped int `json:"pages_skipped"`

	// DomainCounts maps each visited host to its visit count.
	DomainCounts map[string]int `json:"domain_counts,omitempty"`

	// VisitedURLs lists every successfully visited URL in visit order.
	VisitedURLs []string `json:"visited_urls,omitempty"`

	// FailedURLs maps each failed URL to its error message.
	FailedURLs map[string]string `json:"failed_urls,omitempty"`

	// === Crawl Data ===

	// Pages contains the crawled pages with their elements and links.
	// Cleaned HTML is excluded from serialization; see Page.
	Pages []*Page `json:"pages,omitempty"`

	// === Sub-Reports ===

	// Summary contains the summarized results for human-readable output.
	Summary *Summary `json:"summary,omitempty"`

	// === Errors ===

	// Error contains the error that ended the run, if any.
	Error error `json:"-"` // Excluded from JSON

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewCrawlReport creates a new report for the given target.
// The report starts in StateIdle with a fresh run ID.
func NewCrawlReport(target string, seeds []string) *CrawlReport {
	return &CrawlReport{
		RunID:        uuid.NewString(),
		Target:       target,
		Seeds:        seeds,
		State:        StateIdle,
		StartedAt:    time.Now(),
		DomainCounts: make(map[string]int),
		FailedURLs:   make(map[string]string),
	}
}

// AddPage records a successfully crawled page.
func (r *CrawlReport) AddPage(page *Page) {
	r.Pages = append(r.Pages, page)
	r.VisitedURLs = append(r.VisitedURLs, page.URL)
	r.PagesVisited++
}

// AddFailure records a URL whose fetch or parse failed.
// The run continues; failures are data, not fatal conditions.
func (r *CrawlReport) AddFailure(url string, err error) {
	if r.FailedURLs == nil {
		r.FailedURLs = make(map[string]string)
	}
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	r.FailedURLs[url] = msg
	r.PagesFailed++
}

// AddSkip records a dequeued URL that was rejected before fetching.
func (r *CrawlReport) AddSkip() {
	r.PagesSkipped++
}

// Finish moves the report to a terminal state and stamps the end time.
// A non-nil err is recorded in both Error and ErrorMessage.
func (r *CrawlReport) Finish(state State, err error) {
	r.State = state
	r.FinishedAt = time.Now()
	if err != nil {
		r.Error = err
		r.ErrorMessage = err.Error()
	}
}

// Duration returns how long the run took. Returns the elapsed time so far
// if the run has not finished yet.
func (r *CrawlReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// GetPage retrieves a crawled page by URL.
// Returns nil if the page was not crawled.
func (r *CrawlReport) GetPage(url string) *Page {
	for _, p := range r.Pages {
		if p.URL == url {
			return p
		}
	}
	return nil
}

// TotalElements returns the number of elements collected across all pages.
func (r *CrawlReport) TotalElements() int {
	total := 0
	for _, p := range r.Pages {
		total += len(p.Elements)
	}
	return total
}
