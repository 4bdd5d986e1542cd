package transport

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// clientLimiter keeps one token bucket per client key, the least recently
// seen clients are evicted.
type clientLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

func newClientLimiter(size int, perSecond float64, burst int) *clientLimiter {
	if size <= 0 {
		size = 1024
	}
	if burst <= 0 {
		burst = 1
	}
	limiters, err := lru.New[string, *rate.Limiter](size)
	if err != nil {
		panic(err)
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &clientLimiter{
		limiters: limiters,
		limit:    limit,
		burst:    burst,
	}
}

func (l *clientLimiter) allow(key string) bool {
	l.mu.Lock()
	lim, ok := l.limiters.Get(key)
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters.Add(key, lim)
	}
	l.mu.Unlock()
	return lim.Allow()
}
