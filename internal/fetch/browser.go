package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// settleDelay lets late DOM mutations land after readyState completes.
const settleDelay = 250 * time.Millisecond

// Browser fetches pages with a headless browser, so the HTML it returns is
// the DOM after scripts ran. One browser process serves the whole crawl;
// each navigation reuses its tab.
//
// Design decision: We keep a single long-lived browser context instead of
// launching Chrome per navigation because:
//  1. A crawl fetches hundreds of pages and launches are the dominant cost
//  2. Login sessions live in the browser and must survive across pages
//  3. Screenshots can open short-lived tabs off the same process
type Browser struct {
	opts    Options
	limiter *hostLimiter

	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

// NewBrowser creates a browser fetcher. Chrome itself starts lazily on the
// first navigation, so construction succeeds even where no browser is
// installed; the first Navigate reports the failure.
func NewBrowser(opts Options) (*Browser, error) {
	opts = opts.withDefaults()

	execOpts := []chromedp.ExecAllocatorOption{
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(opts.UserAgent),
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), execOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	return &Browser{
		opts:          opts,
		limiter:       newHostLimiter(opts.CrawlDelay),
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
	}, nil
}

// Navigate renders rawURL and returns the final DOM. The navigation is
// bounded by the configured timeout and by ctx, whichever ends first.
func (b *Browser) Navigate(ctx context.Context, rawURL string) (*Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if err := b.limiter.wait(ctx, u.Host); err != nil {
		return nil, err
	}

	runCtx, cancel := b.runContext(ctx)
	defer cancel()

	actions := b.headerActions()
	var pageHTML, finalURL, title string
	actions = append(actions,
		chromedp.Navigate(rawURL),
		waitDocumentReady(),
		chromedp.Sleep(settleDelay),
		chromedp.Location(&finalURL),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &pageHTML, chromedp.ByQuery),
	)
	if err := chromedp.Run(runCtx, actions...); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	// The DOM is already in memory, so oversized pages are truncated
	// rather than failed like static fetches.
	if int64(len(pageHTML)) > b.opts.MaxBodySize {
		pageHTML = pageHTML[:b.opts.MaxBodySize]
	}
	if finalURL == "" {
		finalURL = rawURL
	}

	return &Result{
		FinalURL:   finalURL,
		HTML:       pageHTML,
		Title:      title,
		StatusCode: http.StatusOK,
		Success:    true,
	}, nil
}

// Close shuts the browser down gracefully and releases the allocator.
func (b *Browser) Close() error {
	err := chromedp.Cancel(b.browserCtx)
	b.browserCancel()
	b.allocCancel()
	if err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}

// runContext derives a navigation context from the browser context, which
// carries the chromedp session, while still honoring the caller's ctx.
// chromedp.Run needs the browser context as its parent, so the caller's
// cancellation is bridged over with AfterFunc.
func (b *Browser) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(b.browserCtx, b.opts.Timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// headerActions returns the actions that install extra headers and the
// cookie before navigation, or nil when there are none.
func (b *Browser) headerActions() []chromedp.Action {
	if len(b.opts.Headers) == 0 && b.opts.Cookie == "" {
		return nil
	}
	headers := make(network.Headers, len(b.opts.Headers)+1)
	for k, v := range b.opts.Headers {
		headers[k] = v
	}
	if b.opts.Cookie != "" {
		headers["Cookie"] = b.opts.Cookie
	}
	return []chromedp.Action{
		network.Enable(),
		network.SetExtraHTTPHeaders(headers),
	}
}

// waitDocumentReady polls document.readyState until the page finished
// loading or the context ends.
func waitDocumentReady() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			var state string
			if err := chromedp.Evaluate(`document.readyState`, &state).Do(ctx); err != nil {
				return err
			}
			if state == "complete" {
				return nil
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
}
