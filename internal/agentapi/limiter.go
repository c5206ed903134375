package agentapi

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter holds one token bucket per host so a chatty view of one agent
// cannot starve requests to the others.
type HostLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	r        rate.Limit
	b        int
}

// NewHostLimiter creates a limiter with r requests per second and burst b per host.
// r <= 0 disables limiting.
func NewHostLimiter(r float64, b int) *HostLimiter {
	limit := rate.Limit(r)
	if r <= 0 {
		limit = rate.Inf
	}
	if b < 1 {
		b = 1
	}
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		r:        limit,
		b:        b,
	}
}

func (l *HostLimiter) get(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.limiters[host]
	if !exists {
		limiter = rate.NewLimiter(l.r, l.b)
		l.limiters[host] = limiter
	}
	return limiter
}

// Wait blocks until host may send a request or ctx is done.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	if l == nil {
		return nil
	}
	return l.get(host).Wait(ctx)
}

// Allow reports whether a request to host may proceed now, consuming a token if so.
func (l *HostLimiter) Allow(host string) bool {
	if l == nil {
		return true
	}
	return l.get(host).Allow()
}
