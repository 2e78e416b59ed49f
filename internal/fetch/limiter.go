package fetch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// hostLimiter spaces requests per host so a crawl never hammers one
// server, while fetches across hosts stay independent.
type hostLimiter struct {
	delay time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// newHostLimiter builds a limiter enforcing delay between requests to the
// same host. A non-positive delay disables limiting.
func newHostLimiter(delay time.Duration) *hostLimiter {
	return &hostLimiter{
		delay:    delay,
		limiters: make(map[string]*rate.Limiter),
	}
}

// wait blocks until the host's limiter admits a request or ctx is done.
// The first request to a host is admitted immediately.
func (h *hostLimiter) wait(ctx context.Context, host string) error {
	if h.delay <= 0 {
		return nil
	}

	h.mu.Lock()
	limiter, ok := h.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(h.delay), 1)
		h.limiters[host] = limiter
	}
	h.mu.Unlock()

	return limiter.Wait(ctx)
}
