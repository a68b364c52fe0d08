package router

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const maxTrackedClients = 4096

// ipLimiters. bounded set of per-client limiters, the least recently seen client is forgotten first.
type ipLimiters struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters *lru.Cache[string, *rate.Limiter]
}

func newIPLimiters(limit rate.Limit, burst int) *ipLimiters {
	cache, _ := lru.New[string, *rate.Limiter](maxTrackedClients)
	return &ipLimiters{limit: limit, burst: burst, limiters: cache}
}

func (l *ipLimiters) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.limiters.Get(ip); ok {
		return lim
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.limiters.Add(ip, lim)
	return lim
}
