package gitlabapi

import (
	"sort"
	"sync"
	"time"
)

const maxSamplesPerOperation = 512

// LatencyStats summarizes recent call durations for one upstream operation.
type LatencyStats struct {
	Operation string
	Count     int
	P50       time.Duration
	P95       time.Duration
	Max       time.Duration
}

type latencyTracker struct {
	mu      sync.Mutex
	samples map[string][]time.Duration
}

func newLatencyTracker() *latencyTracker {
	return &latencyTracker{samples: make(map[string][]time.Duration)}
}

func (t *latencyTracker) observeSince(operation string, start time.Time) {
	if t == nil {
		return
	}
	elapsed := time.Since(start)

	t.mu.Lock()
	defer t.mu.Unlock()

	window := append(t.samples[operation], elapsed)
	if len(window) > maxSamplesPerOperation {
		window = window[len(window)-maxSamplesPerOperation:]
	}
	t.samples[operation] = window
}

func (t *latencyTracker) snapshot() []LatencyStats {
	if t == nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	stats := make([]LatencyStats, 0, len(t.samples))
	for operation, durations := range t.samples {
		if len(durations) == 0 {
			continue
		}
		sorted := make([]time.Duration, len(durations))
		copy(sorted, durations)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		stats = append(stats, LatencyStats{
			Operation: operation,
			Count:     len(sorted),
			P50:       sorted[(len(sorted)-1)/2],
			P95:       sorted[int(float64(len(sorted)-1)*0.95)],
			Max:       sorted[len(sorted)-1],
		})
	}

	// Slowest first.
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].P95 == stats[j].P95 {
			return stats[i].Operation < stats[j].Operation
		}
		return stats[i].P95 > stats[j].P95
	})
	return stats
}

// LatencyStats returns the current per-operation latency distribution.
func (c *Client) LatencyStats() []LatencyStats {
	if c == nil {
		return nil
	}
	return c.latency.snapshot()
}
