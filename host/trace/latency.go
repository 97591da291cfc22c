package trace

import (
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"vtimer/core"
)

// LatencySummary describes how far after their deadlines timers fired, in ticks
type LatencySummary struct {
	Count  int
	Mean   float64
	StdDev float64
	P50    float64
	P99    float64
	Max    float64
}

// LatencyRecorder collects fire latencies from a stream of timing events.
// Observe has the Handler signature so it can be passed to NewMonitor.
type LatencyRecorder struct {
	mu      sync.Mutex
	samples []float64
}

// Observe records the latency of fire events and ignores everything else
func (r *LatencyRecorder) Observe(evt core.TimingEvent) {
	if evt.EventType != core.EvtTimerFire || evt.Clock < evt.Deadline {
		return
	}
	r.mu.Lock()
	r.samples = append(r.samples, float64(evt.Clock-evt.Deadline))
	r.mu.Unlock()
}

// Summary computes statistics over everything observed so far
func (r *LatencyRecorder) Summary() LatencySummary {
	r.mu.Lock()
	x := make([]float64, len(r.samples))
	copy(x, r.samples)
	r.mu.Unlock()

	if len(x) == 0 {
		return LatencySummary{}
	}

	// Quantile needs sorted input
	sort.Float64s(x)

	summary := LatencySummary{
		Count: len(x),
		P50:   stat.Quantile(0.5, stat.Empirical, x, nil),
		P99:   stat.Quantile(0.99, stat.Empirical, x, nil),
		Max:   floats.Max(x),
	}
	if len(x) == 1 {
		summary.Mean = x[0]
	} else {
		summary.Mean, summary.StdDev = stat.MeanStdDev(x, nil)
	}
	return summary
}

// Reset drops all samples
func (r *LatencyRecorder) Reset() {
	r.mu.Lock()
	r.samples = r.samples[:0]
	r.mu.Unlock()
}
