package trace

import (
	"math"
	"testing"

	"vtimer/core"
)

func TestLatencyRecorder(t *testing.T) {
	var r LatencyRecorder

	// Out of order on purpose
	for _, late := range []uint64{30, 0, 40, 10, 20} {
		r.Observe(core.TimingEvent{EventType: core.EvtTimerFire, ID: 1, Clock: 1000 + late, Deadline: 1000})
	}
	// Not firings
	r.Observe(core.TimingEvent{EventType: core.EvtTimerStart, ID: 2, Clock: 0, Deadline: 5000})
	r.Observe(core.TimingEvent{EventType: core.EvtTimerRearm, ID: 1, Clock: 1040, Deadline: 2000})

	s := r.Summary()
	if s.Count != 5 {
		t.Fatalf("Expected 5 samples, got %d", s.Count)
	}
	if s.Mean != 20 {
		t.Errorf("Expected mean 20, got %v", s.Mean)
	}
	if math.Abs(s.StdDev-math.Sqrt(250)) > 1e-9 {
		t.Errorf("Expected stddev %v, got %v", math.Sqrt(250), s.StdDev)
	}
	if s.P50 != 20 {
		t.Errorf("Expected median 20, got %v", s.P50)
	}
	if s.P99 != 40 || s.Max != 40 {
		t.Errorf("Expected p99 and max 40, got %v and %v", s.P99, s.Max)
	}

	r.Reset()
	if r.Summary().Count != 0 {
		t.Error("Expected no samples after Reset")
	}
}

func TestLatencyRecorderSingleSample(t *testing.T) {
	var r LatencyRecorder
	r.Observe(core.TimingEvent{EventType: core.EvtTimerFire, ID: 3, Clock: 107, Deadline: 100})

	s := r.Summary()
	if s.Count != 1 || s.Mean != 7 || s.StdDev != 0 || s.Max != 7 {
		t.Errorf("Unexpected summary %+v", s)
	}
}

func TestLatencyFromSimulatedScheduler(t *testing.T) {
	clk := core.NewSimClock(0)
	sched := core.NewScheduler(clk, core.DefaultConfig())

	var r LatencyRecorder
	m := NewMonitor(nil, r.Observe)

	// Each callback holds the interrupt for 20 ticks, so the second of two
	// timers sharing a deadline runs 20 ticks late.
	sched.Start(100, func() { clk.Stall(20) })
	sched.Start(100, func() { clk.Stall(20) })
	clk.AdvanceTo(200)

	sched.ExportTiming(0x10, func(frame []byte) {
		m.Feed(frame)
	})

	s := r.Summary()
	if s.Count != 2 {
		t.Fatalf("Expected 2 firings, got %d", s.Count)
	}
	if s.Max != 20 {
		t.Errorf("Expected worst latency 20, got %v", s.Max)
	}
}
