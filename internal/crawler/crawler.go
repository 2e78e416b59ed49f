package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/sitescan/internal/cleaner"
	"github.com/nao1215/sitescan/internal/config"
	"github.com/nao1215/sitescan/internal/fetch"
	"github.com/nao1215/sitescan/internal/frontier"
	"github.com/nao1215/sitescan/internal/model"
	"github.com/nao1215/sitescan/internal/priority"
	"github.com/nao1215/sitescan/internal/storage"
	"github.com/nao1215/sitescan/internal/urlutil"
)

// Crawler drives one target's crawl from its seeds (or a restored snapshot)
// to a terminal state. The step loop is single-threaded: dequeue one URL,
// fetch it, run the page through the cleaner and classifier, save the
// artifact, persist a snapshot, repeat.
//
// Design decision: one Crawler per target with a single-threaded step loop
// because:
//  1. The frontier, report, and known-link set need no locks
//  2. Step ordering stays deterministic, which keeps resume and change
//     detection predictable
//  3. Parallelism belongs at the target level (see BatchProcessor), where
//     runs share nothing
type Crawler struct {
	// target describes what to crawl: seeds, admission rules, and quotas.
	// Quotas and depth are already resolved against the global defaults.
	target *config.Target

	// fetcher navigates pages. It is also asked for the optional login
	// step and the first-page screenshot when it supports them.
	fetcher fetch.Fetcher

	// store persists page artifacts and the crawl snapshot.
	store *storage.Store

	// inactivityTimeout is the watchdog window. If no page parses
	// successfully within it, the run ends as timed out. Zero disables
	// the watchdog.
	inactivityTimeout time.Duration

	// resume restores the target's previous snapshot before seeding.
	resume bool

	// resumePolicy controls how many saved artifacts the resume scan
	// reads when rebuilding the queue.
	resumePolicy frontier.ScanPolicy

	// screenshots enables a best-effort capture of the first
	// successfully fetched page.
	screenshots bool

	// robots checks URLs against robots.txt before fetching.
	// Nil disables the check.
	robots *fetch.RobotsCache

	// logger is used for crawl-level logging.
	logger *slog.Logger

	// frontier holds the pending queue and the visited and failed
	// ledgers of the current run.
	frontier *frontier.Frontier

	// report accumulates the current run's results.
	report *model.CrawlReport

	// knownLinks collects the raw hrefs seen on earlier pages so the
	// cleaner can drop navigation blocks that repeat on every page.
	knownLinks map[string]bool

	// lastParse is when a page last parsed successfully. The watchdog
	// compares against it at every step boundary.
	lastParse time.Time

	// screenshotDone records that the first-page screenshot was fired,
	// so it happens at most once per run.
	screenshotDone bool
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithInactivityTimeout sets the watchdog window. Zero disables the
// watchdog entirely.
func WithInactivityTimeout(d time.Duration) Option {
	return func(c *Crawler) {
		c.inactivityTimeout = d
	}
}

// WithResume restores the target's previous snapshot before seeding and
// rebuilds the pending queue from saved artifacts under the given scan
// policy. A missing or corrupt snapshot falls back to a cold start.
func WithResume(policy frontier.ScanPolicy) Option {
	return func(c *Crawler) {
		c.resume = true
		c.resumePolicy = policy
	}
}

// WithScreenshots enables a screenshot of the first successfully fetched
// page. It has no effect when the fetcher cannot capture screenshots.
func WithScreenshots() Option {
	return func(c *Crawler) {
		c.screenshots = true
	}
}

// WithRobots enables robots.txt checks through the given cache.
func WithRobots(robots *fetch.RobotsCache) Option {
	return func(c *Crawler) {
		c.robots = robots
	}
}

// WithLogger sets a custom logger for crawl-level logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// New creates a Crawler for the target using the given fetcher and store.
// The target's quotas and depth limit come from config.ResolveTarget, so
// they already reflect global defaults and per-target overrides.
func New(target *config.Target, fetcher fetch.Fetcher, store *storage.Store, opts ...Option) *Crawler {
	c := &Crawler{
		target:            target,
		fetcher:           fetcher,
		store:             store,
		inactivityTimeout: config.DefaultInactivityTimeout,
		resumePolicy:      frontier.ScanUntilFirst,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// Run executes the crawl and returns its report. The report always carries
// a terminal state: StateFinished when the queue or quota ran out,
// StateFailed when nothing was crawled or the context was cancelled, and
// StateTimedOut when the inactivity watchdog fired. A final snapshot is
// persisted no matter how the run ends.
func (c *Crawler) Run(ctx context.Context) *model.CrawlReport {
	report := model.NewCrawlReport(c.target.Name, c.target.Seeds)
	c.report = report
	c.knownLinks = make(map[string]bool)

	policy, err := urlutil.NewPolicy(c.target.AllowedDomains, c.target.DeniedURLs)
	if err != nil {
		report.Finish(model.StateFailed, fmt.Errorf("build admission rules: %w", err))
		return report
	}

	c.frontier = frontier.New(c.target.Name, c.target.Seeds, policy,
		frontier.WithMaxPages(c.target.MaxPages),
		frontier.WithMaxPagesPerDomain(c.target.MaxPagesPerDomain),
	)

	c.login(ctx)

	if c.resume && c.tryResume() {
		report.Resumed = true
	} else {
		c.seed()
	}

	report.State = model.StateRunning
	c.lastParse = time.Now()

	c.logger.Info("crawl started",
		"target", c.target.Name,
		"seeds", len(c.target.Seeds),
		"max_depth", c.target.MaxDepth,
		"max_pages", c.target.MaxPages,
		"resumed", report.Resumed,
	)

	state, runErr := c.loop(ctx)

	report.DomainCounts = c.frontier.DomainCounts()
	c.frontier.Close(state != model.StateFinished)
	c.saveSnapshot()
	report.Finish(state, runErr)

	c.logger.Info("crawl finished",
		"target", c.target.Name,
		"state", state.String(),
		"visited", report.PagesVisited,
		"failed", report.PagesFailed,
		"skipped", report.PagesSkipped,
		"duration", report.Duration(),
	)

	return report
}

// loop runs crawl steps until a terminal condition. The watchdog and
// context checks happen only here, at step boundaries, so a step that is
// already fetching always completes its bookkeeping.
//
// Design decision: the inactivity watchdog is a step-boundary check of the
// last successful parse time rather than a background timer because:
//  1. Fetchers time-bound themselves, so the loop always returns to a
//     boundary even when a server hangs
//  2. A timer firing mid-step could not interrupt the fetch anyway
//     without tearing half-written state
//  3. Single-threaded bookkeeping stays lock-free
func (c *Crawler) loop(ctx context.Context) (model.State, error) {
	for {
		if err := ctx.Err(); err != nil {
			return model.StateFailed, err
		}
		if c.inactivityTimeout > 0 && time.Since(c.lastParse) > c.inactivityTimeout {
			return model.StateTimedOut, fmt.Errorf("%w: no page parsed in %s",
				ErrInactivityTimeout, c.inactivityTimeout)
		}
		if c.frontier.QuotaExceeded() {
			c.logger.Info("page quota reached",
				"target", c.target.Name,
				"visited", c.frontier.VisitedCount(),
			)
			return model.StateFinished, nil
		}

		entry, ok := c.frontier.Dequeue()
		if !ok {
			if c.frontier.VisitedCount() == 0 {
				return model.StateFailed, ErrNoPagesCrawled
			}
			return model.StateFinished, nil
		}

		c.step(ctx, entry)
		c.saveSnapshot()
	}
}

// step processes one dequeued URL: admission checks, fetch, clean,
// classify, save, and link discovery. Skips and failures are recorded and
// the run moves on; only the loop decides terminal states.
func (c *Crawler) step(ctx context.Context, entry frontier.Entry) {
	if entry.Depth > c.target.MaxDepth {
		c.skip(entry.URL, "depth limit")
		return
	}
	if !c.frontier.Admissible(entry.URL) {
		c.skip(entry.URL, "not admissible")
		return
	}
	if !urlutil.CrawlablePath(entry.URL) {
		c.skip(entry.URL, "non-crawlable path")
		return
	}
	if c.frontier.DomainQuotaExceeded(urlutil.Host(entry.URL)) {
		c.skip(entry.URL, "domain quota")
		return
	}
	if c.robots != nil && !c.robots.Allowed(ctx, entry.URL) {
		c.skip(entry.URL, "robots.txt disallow")
		return
	}

	res, err := c.fetcher.Navigate(ctx, entry.URL)
	if err != nil {
		c.fail(entry.URL, err)
		return
	}
	if !res.Success {
		c.fail(entry.URL, navigationError(res))
		return
	}

	// Redirects record the page under its final URL. A redirect that
	// lands on a visited page or outside the rules is a skip, not a new
	// page.
	pageURL := entry.URL
	if res.FinalURL != "" && res.FinalURL != entry.URL {
		if normalized, err := urlutil.Normalize(res.FinalURL); err == nil {
			pageURL = normalized
		}
		if pageURL != entry.URL && !c.frontier.Admissible(pageURL) {
			c.skip(entry.URL, "redirect target not admissible")
			return
		}
	}

	doc := cleaner.Clean(res.HTML, pageURL, res.Title, c.knownLinks)
	elements := priority.Extract(doc)

	path, err := c.store.SaveDocument(pageURL, doc)
	if err != nil {
		c.fail(pageURL, fmt.Errorf("save document: %w", err))
		return
	}

	// Marking the page visited before following its links keeps
	// self-references out of the queue.
	c.frontier.MarkVisited(pageURL, urlutil.Host(pageURL))

	links := cleaner.ExtractLinks(doc, pageURL)
	for _, link := range links {
		if c.frontier.Admissible(link) && urlutil.CrawlablePath(link) {
			c.frontier.Enqueue(link, entry.Depth+1)
		}
	}
	for _, href := range cleaner.RawHrefs(doc) {
		c.knownLinks[href] = true
	}

	page := &model.Page{
		URL:         pageURL,
		Title:       doc.Title,
		Depth:       entry.Depth,
		StatusCode:  res.StatusCode,
		FetchedAt:   time.Now(),
		CleanedHTML: doc.HTML(),
		Elements:    elements,
		Links:       links,
	}
	if c.store.Format() == config.SaveFormatMarkdown {
		if md, err := doc.Markdown(); err == nil {
			page.Markdown = md
		}
	}
	page.ComputeHash()

	c.report.AddPage(page)
	c.lastParse = time.Now()

	c.logger.Info("page crawled",
		"url", pageURL,
		"depth", entry.Depth,
		"elements", len(elements),
		"links", len(links),
		"artifact", path,
	)

	c.maybeScreenshot(ctx, pageURL)
}

// login runs the optional login step. Login is best-effort: a fetcher that
// cannot log in or a failed login leaves the crawl running
// unauthenticated.
func (c *Crawler) login(ctx context.Context) {
	if c.target.Login == nil {
		return
	}
	lf, ok := c.fetcher.(fetch.LoginFetcher)
	if !ok {
		c.logger.Warn("login configured but the fetcher cannot log in, continuing unauthenticated",
			"target", c.target.Name,
		)
		return
	}
	if err := lf.Login(ctx, c.target.Login); err != nil {
		c.logger.Warn("login failed, continuing unauthenticated",
			"target", c.target.Name,
			"error", err,
		)
	}
}

// tryResume restores the previous snapshot and rebuilds the queue from
// saved artifacts. It returns false when there is nothing usable to resume
// from, in which case the caller seeds a cold start.
func (c *Crawler) tryResume() bool {
	snap, err := c.store.LoadSnapshot()
	if err != nil {
		if errors.Is(err, storage.ErrNoSnapshot) {
			c.logger.Debug("no snapshot to resume from", "target", c.target.Name)
		} else {
			c.logger.Warn("snapshot unreadable, starting cold",
				"target", c.target.Name,
				"error", err,
			)
		}
		return false
	}
	if err := c.frontier.Restore(snap); err != nil {
		c.logger.Warn("snapshot restore failed, starting cold",
			"target", c.target.Name,
			"error", err,
		)
		return false
	}

	enqueued := c.frontier.ResumeScan(c.store, c.resumePolicy)
	c.logger.Info("resumed from snapshot",
		"target", c.target.Name,
		"visited", c.frontier.VisitedCount(),
		"enqueued", enqueued,
	)
	return true
}

// seed enqueues the target's seed URLs at depth zero. A seed that fails
// normalization is recorded as a failure so a run with nothing but broken
// seeds ends failed rather than silently empty.
func (c *Crawler) seed() {
	for _, seed := range c.target.Seeds {
		normalized, err := urlutil.Normalize(seed)
		if err != nil {
			c.frontier.MarkFailed(seed, err)
			c.report.AddFailure(seed, err)
			c.logger.Warn("seed rejected", "url", seed, "error", err)
			continue
		}
		c.frontier.Enqueue(normalized, 0)
	}
}

// skip records a skipped URL. Skips keep the run in the running state.
func (c *Crawler) skip(url, reason string) {
	c.report.AddSkip()
	c.logger.Debug("url skipped", "url", url, "reason", reason)
}

// fail records a per-URL failure in the frontier and the report. Failed
// URLs are not retried.
func (c *Crawler) fail(url string, err error) {
	c.frontier.MarkFailed(url, err)
	c.report.AddFailure(url, err)
	c.logger.Warn("fetch failed", "url", url, "error", err)
}

// saveSnapshot persists the frontier state. Snapshot failures are logged
// and swallowed: losing one snapshot costs resume fidelity, not the run.
func (c *Crawler) saveSnapshot() {
	if err := c.store.SaveSnapshot(c.frontier.Snapshot()); err != nil {
		c.logger.Warn("snapshot save failed",
			"target", c.target.Name,
			"error", err,
		)
	}
}

// maybeScreenshot fires the first-page screenshot. The capture runs in its
// own goroutine and is never awaited: a run that finishes before the
// capture completes simply has no screenshot.
func (c *Crawler) maybeScreenshot(ctx context.Context, pageURL string) {
	if !c.screenshots || c.screenshotDone {
		return
	}
	c.screenshotDone = true

	capturer, ok := c.fetcher.(fetch.ScreenshotCapturer)
	if !ok {
		c.logger.Debug("screenshots requested but the fetcher cannot capture them",
			"target", c.target.Name,
		)
		return
	}

	path := c.store.ScreenshotPath()
	logger := c.logger
	go func() {
		if err := capturer.Capture(ctx, pageURL, path); err != nil {
			logger.Warn("screenshot failed", "url", pageURL, "error", err)
		}
	}()
}

// navigationError converts an unusable navigation result into an error for
// the failure ledger.
func navigationError(res *fetch.Result) error {
	if res.Error != "" {
		return errors.New(res.Error)
	}
	return fmt.Errorf("http status %d", res.StatusCode)
}
