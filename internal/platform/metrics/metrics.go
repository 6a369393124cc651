package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   atomic.Uint64
	clientErrors    atomic.Uint64
	serverErrors    atomic.Uint64
	rateLimited     atomic.Uint64
	totalDurationMs atomic.Uint64

	mu      sync.Mutex
	byRoute map[string]uint64
}

type Snapshot struct {
	RequestsTotal    uint64            `json:"requestsTotal"`
	ClientErrors     uint64            `json:"clientErrorsTotal"`
	ServerErrors     uint64            `json:"serverErrorsTotal"`
	RateLimitedTotal uint64            `json:"rateLimitedTotal"`
	AvgDurationMs    float64           `json:"avgDurationMs"`
	TotalDurationMs  uint64            `json:"totalDurationMs"`
	Routes           map[string]uint64 `json:"routes"`
}

func New() *Collector {
	return &Collector{byRoute: map[string]uint64{}}
}

// Record counts one finished request. route should be the matched pattern,
// not the raw path, to keep cardinality bounded.
func (c *Collector) Record(route string, status int, duration time.Duration) {
	c.totalRequests.Add(1)
	switch {
	case status == 429:
		c.rateLimited.Add(1)
		c.clientErrors.Add(1)
	case status >= 500:
		c.serverErrors.Add(1)
	case status >= 400:
		c.clientErrors.Add(1)
	}
	c.totalDurationMs.Add(uint64(duration.Milliseconds()))

	if route == "" {
		route = "unmatched"
	}
	c.mu.Lock()
	c.byRoute[route]++
	c.mu.Unlock()
}

func (c *Collector) Snapshot() Snapshot {
	total := c.totalRequests.Load()
	totalMs := c.totalDurationMs.Load()
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	routes := make(map[string]uint64, len(c.byRoute))
	for route, count := range c.byRoute {
		routes[route] = count
	}
	c.mu.Unlock()

	return Snapshot{
		RequestsTotal:    total,
		ClientErrors:     c.clientErrors.Load(),
		ServerErrors:     c.serverErrors.Load(),
		RateLimitedTotal: c.rateLimited.Load(),
		AvgDurationMs:    avg,
		TotalDurationMs:  totalMs,
		Routes:           routes,
	}
}
