package telemetry

import (
	"fmt"
	"math"
	"testing"
)

func TestSummaryArithmetic(t *testing.T) {
	a := New()
	a.RecordRequest("u1", "animate", 100, true)
	a.RecordRequest("u2", "animate", 200, false)
	a.RecordRequest("u3", "animate", 300, false)

	s, ok := a.Summary()["animate"]
	if !ok {
		t.Fatalf("no summary for animate")
	}
	if s.TotalRequests != 3 {
		t.Fatalf("TotalRequests = %d, want 3", s.TotalRequests)
	}
	if s.AvgLatencyMS != 200.0 {
		t.Fatalf("AvgLatencyMS = %v, want 200.0", s.AvgLatencyMS)
	}
	if math.Abs(s.CacheHitRate-1.0/3.0) > 1e-9 {
		t.Fatalf("CacheHitRate = %v, want 1/3", s.CacheHitRate)
	}
	if s.TotalErrors != 0 {
		t.Fatalf("TotalErrors = %d, want 0", s.TotalErrors)
	}
}

func TestSummaryRoundsAverageToTwoDecimals(t *testing.T) {
	a := New()
	a.RecordRequest("u", "animate", 100, false)
	a.RecordRequest("u", "animate", 100, false)
	a.RecordRequest("u", "animate", 101, false)

	s := a.Summary()["animate"]
	if s.AvgLatencyMS != 100.33 {
		t.Fatalf("AvgLatencyMS = %v, want 100.33", s.AvgLatencyMS)
	}
}

func TestSummaryEmptyAction(t *testing.T) {
	a := New()
	a.RecordError("u1", "compose", "remote_failed", "boom")

	s, ok := a.Summary()["compose"]
	if !ok {
		t.Fatalf("no summary for compose")
	}
	if s.TotalRequests != 0 || s.CacheHitRate != 0 || s.AvgLatencyMS != 0 {
		t.Fatalf("zero-request action must report zero aggregates: %+v", s)
	}
	if s.TotalErrors != 1 {
		t.Fatalf("TotalErrors = %d, want 1", s.TotalErrors)
	}
}

func TestRequestBufferBounded(t *testing.T) {
	a := New()
	for i := 0; i < maxRequestSamples+50; i++ {
		a.RecordRequest("u", "animate", int64(i), false)
	}
	a.mu.Lock()
	buf := a.requests["animate"]
	a.mu.Unlock()
	if len(buf) != maxRequestSamples {
		t.Fatalf("buffer len = %d, want %d", len(buf), maxRequestSamples)
	}
	// Oldest samples dropped, newest retained.
	if buf[len(buf)-1].LatencyMS != int64(maxRequestSamples+49) {
		t.Fatalf("newest sample missing: %d", buf[len(buf)-1].LatencyMS)
	}
	if buf[0].LatencyMS != 50 {
		t.Fatalf("oldest retained sample = %d, want 50", buf[0].LatencyMS)
	}
}

func TestErrorBufferBounded(t *testing.T) {
	a := New()
	for i := 0; i < maxErrorSamples+10; i++ {
		a.RecordError("u", "animate", "remote_failed", fmt.Sprintf("e%d", i))
	}
	a.mu.Lock()
	buf := a.errors["animate"]
	a.mu.Unlock()
	if len(buf) != maxErrorSamples {
		t.Fatalf("buffer len = %d, want %d", len(buf), maxErrorSamples)
	}
}

func TestIndependentInstances(t *testing.T) {
	a := New()
	b := New()
	a.RecordRequest("u", "animate", 100, false)
	if len(b.Summary()) != 0 {
		t.Fatalf("aggregators must not share state")
	}
}
