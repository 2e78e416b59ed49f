package fetch

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/nao1215/sitescan/internal/config"
)

// Fetcher retrieves a single page for the crawler. Implementations must
// time-bound every navigation: the crawler treats a returned error as a
// per-URL failure and moves on, so a fetcher that hangs stalls the run
// until the inactivity watchdog fires.
type Fetcher interface {
	// Navigate fetches rawURL and returns the final page state.
	// A nil error with Success=false means the server answered but the
	// page is not usable (e.g. an error status).
	Navigate(ctx context.Context, rawURL string) (*Result, error)
}

// LoginFetcher is implemented by fetchers that can run the optional login
// step before a crawl. The static fetcher does not implement it.
type LoginFetcher interface {
	Fetcher

	// Login fills and submits the login form described by lc and verifies
	// the post-login URL. A nil lc is a no-op.
	Login(ctx context.Context, lc *config.LoginConfig) error
}

// ScreenshotCapturer is implemented by fetchers that can capture a page
// screenshot. Captures are best-effort: callers fire them and never block
// a crawl on the outcome.
type ScreenshotCapturer interface {
	// Capture navigates to rawURL and writes a PNG screenshot to path,
	// creating parent directories as needed.
	Capture(ctx context.Context, rawURL, path string) error
}

// Result is the outcome of one page navigation.
type Result struct {
	// FinalURL is the URL after redirects. It may differ from the
	// requested URL and is what the page is recorded under.
	FinalURL string

	// HTML is the page markup: the response body for static fetches, the
	// rendered DOM for browser fetches.
	HTML string

	// Title is the page title, empty when none was found.
	Title string

	// StatusCode is the HTTP status. Browser fetches report 200 because
	// the protocol layer is not exposed once rendering succeeds.
	StatusCode int

	// Success reports whether the page is usable for parsing.
	Success bool

	// Error describes why Success is false, empty otherwise.
	Error string
}

// Options configures a fetcher. The zero value is usable: defaults are
// filled in from the config package.
type Options struct {
	// UserAgent is sent with every request.
	UserAgent string

	// Headers are extra HTTP headers for every request.
	Headers map[string]string

	// Cookie is a raw Cookie header value ("name=value; n2=v2").
	Cookie string

	// Timeout bounds a single navigation.
	Timeout time.Duration

	// MaxBodySize caps the bytes read from a response.
	MaxBodySize int64

	// CrawlDelay is the minimum spacing between requests to one host.
	// Zero disables rate limiting.
	CrawlDelay time.Duration

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format,
	// used by the static fetcher only.
	ProxyAddress string
}

// withDefaults fills unset options from the config defaults.
func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = config.DefaultTimeout
	}
	if o.MaxBodySize <= 0 {
		o.MaxBodySize = config.DefaultMaxBodySize
	}
	if o.UserAgent == "" {
		o.UserAgent = config.DefaultUserAgent
	}
	return o
}

// New builds the fetcher for the given mode (config.FetchModeStatic or
// config.FetchModeBrowser).
func New(mode string, opts Options) (Fetcher, error) {
	switch mode {
	case config.FetchModeStatic:
		return NewStatic(opts)
	case config.FetchModeBrowser:
		return NewBrowser(opts)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFetchMode, mode)
}

// validProxyAddress checks the "host:port" format without connecting.
func validProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	return err == nil && host != "" && port != ""
}
