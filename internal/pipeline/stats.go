package pipeline

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp  time.Time
	durationMs int64
}

// StatsSnapshot is a point-in-time aggregate of latency samples.
type StatsSnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// LatencyStats tracks recent phase durations within a rolling window.
type LatencyStats struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
}

func NewLatencyStats(maxAge time.Duration) *LatencyStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &LatencyStats{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
	}
}

func (s *LatencyStats) Record(d time.Duration) {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.samples = append(s.samples, sample{timestamp: now, durationMs: ms})
}

func (s *LatencyStats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	if len(s.samples) == 0 {
		return StatsSnapshot{}
	}

	values := make([]int64, 0, len(s.samples))
	var sum int64
	for _, sm := range s.samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return StatsSnapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
}

func (s *LatencyStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	kept := s.samples[:0]
	for _, sm := range s.samples {
		if !sm.timestamp.Before(cutoff) {
			kept = append(kept, sm)
		}
	}
	s.samples = kept
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sorted[0])
	}
	if pct >= 100 {
		return float64(sorted[len(sorted)-1])
	}

	index := (float64(len(sorted)-1) * pct) / 100.0
	lower := int(index)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	weight := index - float64(lower)
	lo := float64(sorted[lower])
	hi := float64(sorted[lower+1])
	return lo + (hi-lo)*weight
}

// Stats groups the per-phase latency trackers of a pipeline.
type Stats struct {
	Parse      *LatencyStats
	Sectionize *LatencyStats
	Publish    *LatencyStats
}

func NewStats(window time.Duration) *Stats {
	return &Stats{
		Parse:      NewLatencyStats(window),
		Sectionize: NewLatencyStats(window),
		Publish:    NewLatencyStats(window),
	}
}

// StatsReport is the JSON form of Stats.
type StatsReport struct {
	Parse      StatsSnapshot `json:"parse"`
	Sectionize StatsSnapshot `json:"sectionize"`
	Publish    StatsSnapshot `json:"publish"`
}

func (s *Stats) Report() StatsReport {
	return StatsReport{
		Parse:      s.Parse.Snapshot(),
		Sectionize: s.Sectionize.Snapshot(),
		Publish:    s.Publish.Snapshot(),
	}
}
