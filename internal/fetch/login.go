package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/nao1215/sitescan/internal/config"
)

// loginRetryBase is the backoff unit between login attempts. Attempt n
// waits (n-1) * loginRetryBase before retrying.
const loginRetryBase = 2 * time.Second

// Login fills the form described by lc, submits it, and verifies the
// post-login URL. It retries up to lc.MaxAttempts times with a linear
// backoff. Callers treat failure as a warning: the crawl proceeds
// unauthenticated.
func (b *Browser) Login(ctx context.Context, lc *config.LoginConfig) error {
	if lc == nil {
		return nil
	}

	attempts := lc.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(time.Duration(attempt-1) * loginRetryBase):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if lastErr = b.loginOnce(ctx, lc); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrLoginFailed, attempts, lastErr)
}

// loginOnce runs a single login attempt.
func (b *Browser) loginOnce(ctx context.Context, lc *config.LoginConfig) error {
	runCtx, cancel := b.runContext(ctx)
	defer cancel()

	var landedURL string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(lc.URL),
		waitDocumentReady(),
		chromedp.WaitVisible(lc.UsernameSelector, chromedp.ByQuery),
		chromedp.SendKeys(lc.UsernameSelector, lc.Username, chromedp.ByQuery),
		chromedp.SendKeys(lc.PasswordSelector, lc.Password, chromedp.ByQuery),
		chromedp.Click(lc.SubmitSelector, chromedp.ByQuery),
		// Submission triggers a navigation the browser needs a moment to start
		chromedp.Sleep(settleDelay),
		waitDocumentReady(),
		chromedp.Location(&landedURL),
	)
	if err != nil {
		return fmt.Errorf("login form: %w", err)
	}
	return verifyLogin(landedURL, lc)
}

// verifyLogin checks the post-login URL against the configured success
// markers. With no markers, any navigation away from the login URL counts
// as success.
func verifyLogin(landedURL string, lc *config.LoginConfig) error {
	if len(lc.SuccessMarkers) == 0 {
		if landedURL == lc.URL {
			return fmt.Errorf("still on login page %s", landedURL)
		}
		return nil
	}
	for _, marker := range lc.SuccessMarkers {
		if strings.Contains(landedURL, marker) {
			return nil
		}
	}
	return fmt.Errorf("no success marker in post-login url %s", landedURL)
}
