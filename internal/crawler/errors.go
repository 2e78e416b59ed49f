package crawler

import "errors"

var (
	// ErrNoPagesCrawled is returned when a run ends with nothing
	// visited: every seed was rejected, denied, or failed to fetch.
	ErrNoPagesCrawled = errors.New("no pages crawled")

	// ErrInactivityTimeout is returned when the watchdog ends a run
	// because no page parsed successfully within the configured window.
	ErrInactivityTimeout = errors.New("crawl inactivity timeout")
)
