package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Capture navigates to rawURL in its own tab and writes a full-page PNG to
// path. The tab keeps captures from racing crawl navigations, so Capture is
// safe to fire from a goroutine while the crawl continues.
func (b *Browser) Capture(ctx context.Context, rawURL, path string) error {
	tabCtx, closeTab := chromedp.NewContext(b.browserCtx)
	defer closeTab()

	runCtx, cancel := context.WithTimeout(tabCtx, b.opts.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var shot []byte
	err := chromedp.Run(runCtx,
		chromedp.Navigate(rawURL),
		waitDocumentReady(),
		chromedp.Sleep(settleDelay),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			shot, err = page.CaptureScreenshot().
				WithFormat(page.CaptureScreenshotFormatPng).
				WithCaptureBeyondViewport(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create screenshot dir: %w", err)
	}
	if err := os.WriteFile(path, shot, 0600); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}
