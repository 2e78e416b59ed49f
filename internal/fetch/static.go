package fetch

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html"
	"golang.org/x/net/proxy"
)

// Static fetches pages with a plain HTTP client. It follows redirects,
// decodes compressed bodies, and enforces the body size cap, but never
// executes scripts: the HTML it returns is what the server sent.
type Static struct {
	client      *http.Client
	limiter     *hostLimiter
	userAgent   string
	headers     map[string]string
	cookie      string
	maxBodySize int64
}

// NewStatic creates a static fetcher. When opts.ProxyAddress is set, all
// connections go through that SOCKS5 proxy.
func NewStatic(opts Options) (*Static, error) {
	opts = opts.withDefaults()

	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if opts.ProxyAddress != "" {
		if !validProxyAddress(opts.ProxyAddress) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidProxyAddress, opts.ProxyAddress)
		}
		// nil auth: SOCKS5 proxies used for crawling rarely require it
		dialer, err := proxy.SOCKS5("tcp", opts.ProxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("create SOCKS5 dialer: %w", err)
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		}
	}

	// Cookie jar for session continuity when sites set cookies mid-crawl
	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	client := &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
		Jar:       jar,
		// Limit redirects to prevent loops
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	headers := make(map[string]string, len(opts.Headers))
	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &Static{
		client:      client,
		limiter:     newHostLimiter(opts.CrawlDelay),
		userAgent:   opts.UserAgent,
		headers:     headers,
		cookie:      opts.Cookie,
		maxBodySize: opts.MaxBodySize,
	}, nil
}

// Navigate fetches rawURL. Transport failures return an error; an error
// status from the server returns a Result with Success=false so the
// crawler can record the page as failed without special-casing.
func (s *Static) Navigate(ctx context.Context, rawURL string) (*Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if err := s.limiter.wait(ctx, u.Host); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	// Setting Accept-Encoding ourselves disables the transport's automatic
	// gzip handling, so readBody decodes every encoding we advertise.
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	if s.cookie != "" {
		req.Header.Set("Cookie", s.cookie)
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	body, err := s.readBody(resp)
	if err != nil {
		return nil, err
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	res := &Result{
		FinalURL:   finalURL,
		HTML:       string(body),
		Title:      scanTitle(string(body)),
		StatusCode: resp.StatusCode,
		Success:    resp.StatusCode < http.StatusBadRequest,
	}
	if !res.Success {
		res.Error = fmt.Sprintf("http status %d", resp.StatusCode)
	}
	return res, nil
}

// readBody decodes the response body per its Content-Encoding and reads at
// most maxBodySize bytes.
func (s *Static) readBody(resp *http.Response) ([]byte, error) {
	reader := io.Reader(resp.Body)
	closers := []io.Closer{resp.Body}

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		reader = gz
		closers = append(closers, gz)
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		reader = fl
		closers = append(closers, fl)
	}

	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	// Read one extra byte to distinguish "exactly at the limit" from over
	limited := io.LimitReader(reader, s.maxBodySize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > s.maxBodySize {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, s.maxBodySize)
	}
	return body, nil
}

// Close releases idle connections. The fetcher stays usable afterwards.
func (s *Static) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// Client exposes the underlying HTTP client so collaborators like the
// robots.txt cache share the proxy and timeout configuration.
func (s *Static) Client() *http.Client {
	return s.client
}

// scanTitle tokenizes markup until the first title element and returns its
// trimmed text. Tokenizing beats a full parse here: titles sit near the top
// of the document and the cleaner re-parses the body anyway.
func scanTitle(markup string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			if name, _ := tokenizer.TagName(); string(name) == "title" {
				if tokenizer.Next() == html.TextToken {
					return strings.TrimSpace(tokenizer.Token().Data)
				}
				return ""
			}
		}
	}
}
