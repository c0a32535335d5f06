// Package stats keeps rolling-window latency aggregates for row
// materialization.
package stats

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp time.Time
	micros    int64
	chunks    int
}

// Snapshot is a point-in-time aggregate of the samples still in the window.
type Snapshot struct {
	Count         int     `json:"count"`
	Chunks        int     `json:"chunks_materialized"`
	MinMicros     int64   `json:"min_us"`
	MaxMicros     int64   `json:"max_us"`
	AvgMicros     float64 `json:"avg_us"`
	P50Micros     float64 `json:"p50_us"`
	P95Micros     float64 `json:"p95_us"`
	P99Micros     float64 `json:"p99_us"`
	WindowSeconds float64 `json:"window_seconds"`
}

// Latency tracks recent getRow latencies within a rolling window.
type Latency struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
	now     func() time.Time
}

func NewLatency(maxAge time.Duration) *Latency {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Latency{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
		now:     time.Now,
	}
}

// Record adds one call that took d and materialized chunks chunks.
func (s *Latency) Record(d time.Duration, chunks int) {
	micros := d.Microseconds()
	if micros < 0 {
		micros = 0
	}
	if chunks < 0 {
		chunks = 0
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.samples = append(s.samples, sample{
		timestamp: now,
		micros:    micros,
		chunks:    chunks,
	})
}

func (s *Latency) Snapshot() Snapshot {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	snap := Snapshot{WindowSeconds: s.maxAge.Seconds()}
	if len(s.samples) == 0 {
		return snap
	}

	values := make([]int64, 0, len(s.samples))
	var sum int64
	for _, sm := range s.samples {
		values = append(values, sm.micros)
		sum += sm.micros
		snap.Chunks += sm.chunks
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	snap.Count = len(values)
	snap.MinMicros = values[0]
	snap.MaxMicros = values[len(values)-1]
	snap.AvgMicros = float64(sum) / float64(len(values))
	snap.P50Micros = percentile(values, 50)
	snap.P95Micros = percentile(values, 95)
	snap.P99Micros = percentile(values, 99)
	return snap
}

func (s *Latency) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range s.samples {
		if !sm.timestamp.Before(cutoff) {
			s.samples[writeIdx] = sm
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
