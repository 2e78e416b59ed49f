package fetch

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsCache answers robots.txt questions with one fetch per host.
//
// Failure is permissive: a host whose robots.txt is missing, unreachable,
// or malformed allows everything. The cache remembers that verdict too, so
// a flaky host is asked only once per run.
type RobotsCache struct {
	client    *http.Client
	userAgent string

	mu     sync.Mutex
	groups map[string]*robotstxt.Group
}

// NewRobotsCache creates a robots.txt cache. Passing the fetcher's own
// client keeps robots fetches on the same proxy and timeout settings as
// page fetches; a nil client gets a modest default.
func NewRobotsCache(client *http.Client, userAgent string) *RobotsCache {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RobotsCache{
		client:    client,
		userAgent: userAgent,
		groups:    make(map[string]*robotstxt.Group),
	}
}

// Allowed reports whether rawURL may be fetched under its host's
// robots.txt rules. Unparseable URLs are allowed; the frontier's
// admissibility checks rejected those long before this point.
func (r *RobotsCache) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	r.mu.Lock()
	group, cached := r.groups[u.Host]
	r.mu.Unlock()

	if !cached {
		group = r.fetchGroup(ctx, u)
		r.mu.Lock()
		r.groups[u.Host] = group
		r.mu.Unlock()
	}

	if group == nil {
		return true
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}

// fetchGroup downloads and parses a host's robots.txt. Any failure yields
// nil, the allow-everything verdict.
func (r *RobotsCache) fetchGroup(ctx context.Context, u *url.URL) *robotstxt.Group {
	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil
	}
	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return data.FindGroup(r.userAgent)
}
