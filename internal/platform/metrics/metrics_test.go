package metrics

import (
	"testing"
	"time"
)

func TestCollectorSnapshot(t *testing.T) {
	c := New()
	c.Record("/clock-in", 200, 10*time.Millisecond)
	c.Record("/clock-in", 409, 30*time.Millisecond)
	c.Record("/payroll-generate", 500, 20*time.Millisecond)
	c.Record("", 429, 0)

	snap := c.Snapshot()
	if snap.RequestsTotal != 4 {
		t.Fatalf("expected 4 requests, got %d", snap.RequestsTotal)
	}
	if snap.ServerErrors != 1 || snap.ClientErrors != 2 || snap.RateLimitedTotal != 1 {
		t.Fatalf("unexpected error counters: %+v", snap)
	}
	if snap.AvgDurationMs != 15 {
		t.Fatalf("expected avg 15ms, got %v", snap.AvgDurationMs)
	}
	if snap.Routes["/clock-in"] != 2 || snap.Routes["unmatched"] != 1 {
		t.Fatalf("unexpected route counts: %v", snap.Routes)
	}
}
