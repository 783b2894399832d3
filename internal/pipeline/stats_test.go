package pipeline

import (
	"testing"
	"time"
)

func TestLatencyStatsSnapshotPercentiles(t *testing.T) {
	stats := NewLatencyStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record(time.Duration(ms) * time.Millisecond)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got %d %d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestLatencyStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewLatencyStats(10 * time.Millisecond)
	stats.Record(100 * time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	if snap := stats.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	stats.Record(200 * time.Millisecond)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected a single 200ms sample, got %+v", snap)
	}
}

func TestLatencyStatsClampsNegativeDuration(t *testing.T) {
	stats := NewLatencyStats(time.Hour)
	stats.Record(-10 * time.Millisecond)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MaxMs != 0 {
		t.Fatalf("expected one clamped sample, got %+v", snap)
	}
}

func TestStatsReport_Empty(t *testing.T) {
	report := NewStats(0).Report()
	if report.Parse.Count != 0 || report.Sectionize.Count != 0 || report.Publish.Count != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
}
