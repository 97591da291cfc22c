package core

import "math"

// Scheduler multiplexes logical timers onto a single HardwareClock.
//
// Start and Cancel run in the main context with interrupts masked for their
// whole duration. HandleInterrupt runs in the interrupt context; it masks
// only while it touches the list and the comparator, and runs callbacks
// unmasked so a callback may start or cancel timers.
//
// Whenever the mask is released the comparator holds the earliest deadline
// in the list, or is disarmed when the list is empty.
type Scheduler struct {
	hw       HardwareClock
	cfg      Config
	list     *TimerList
	nextID   TimerID
	ring     TimingRing
	stats    Stats
	fireHook func(TimerID)
}

// Stats counts scheduler activity since creation.
type Stats struct {
	Started         uint32
	Fired           uint32
	Rearmed         uint32
	Cancelled       uint32
	CancelMisses    uint32
	LateRechecks    uint32 // comparator found behind the clock after writing it
	BurstLimits     uint32 // interrupts that yielded after MaxBurst firings
	CapacityRejects uint32
}

// NewScheduler takes ownership of hw. The comparator is disarmed and any
// stale pending interrupt is cleared.
func NewScheduler(hw HardwareClock, cfg Config) *Scheduler {
	applyDefaults(&cfg)
	s := &Scheduler{
		hw:   hw,
		cfg:  cfg,
		list: NewTimerList(cfg.Capacity),
	}

	hw.Disarm()
	hw.ClearPending()
	if src, ok := hw.(InterruptSource); ok {
		src.SetInterruptHandler(s.HandleInterrupt)
	}
	return s
}

// Start arms a one-shot timer that fires delay ticks from now.
func (s *Scheduler) Start(delay uint64, callback func()) (TimerID, error) {
	return s.start(delay, callback, false)
}

// StartRepeated arms a timer that fires every period ticks. Successive
// deadlines are spaced exactly period apart regardless of callback latency.
// A period of zero arms a one-shot timer.
func (s *Scheduler) StartRepeated(period uint64, callback func()) (TimerID, error) {
	return s.start(period, callback, true)
}

func (s *Scheduler) start(ticks uint64, callback func(), repeated bool) (TimerID, error) {
	if callback == nil {
		return 0, ErrNilCallback
	}

	state := disableInterrupts()
	defer restoreInterrupts(state)

	now := s.hw.Now()
	t := LogicalTimer{
		ID:       s.allocID(),
		Deadline: addTicks(now, ticks),
		Callback: callback,
	}
	if repeated {
		t.Period = ticks
	}

	if err := s.list.Insert(t); err != nil {
		if err == ErrDuplicateID {
			s.contractViolation(t.ID, now)
		} else {
			s.stats.CapacityRejects++
			s.ring.Record(EvtCapacity, 0, now, t.Deadline)
		}
		return 0, err
	}

	s.stats.Started++
	s.ring.Record(EvtTimerStart, t.ID, now, t.Deadline)
	s.reprogram()
	return t.ID, nil
}

// Cancel disarms a timer. Cancelling an id that already fired, was already
// cancelled, or was never handed out is a no-op. A one-shot callback that the
// interrupt has already taken off the list still runs to completion.
func (s *Scheduler) Cancel(id TimerID) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	now := s.hw.Now()
	t, err := s.list.Remove(id)
	if err != nil {
		s.stats.CancelMisses++
		s.ring.Record(EvtCancelMiss, id, now, 0)
		return
	}

	s.stats.Cancelled++
	s.ring.Record(EvtTimerCancel, id, now, t.Deadline)
	s.reprogram()
}

// HandleInterrupt is the compare interrupt handler. It runs every timer whose
// deadline has been reached, re-arming repeating ones, and leaves the
// comparator on the next deadline. It never waits for the hardware: if the
// clock overtakes the comparator while it is being written, the drain loop
// goes round again instead.
func (s *Scheduler) HandleInterrupt() {
	// Acknowledge first so a match during the drain raises a fresh interrupt.
	s.hw.ClearPending()

	fired := 0
	for {
		state := disableInterrupts()

		now := s.hw.Now()
		deadline, ok := s.list.PeekEarliestDeadline()
		if !ok {
			s.hw.Disarm()
			restoreInterrupts(state)
			return
		}

		if deadline > now {
			if !s.program() {
				restoreInterrupts(state)
				return
			}
			s.stats.LateRechecks++
			s.ring.Record(EvtTimerPast, 0, s.hw.Now(), deadline)
			restoreInterrupts(state)
			continue
		}

		if fired >= s.cfg.MaxBurst {
			// Yield the interrupt context; the forced interrupt resumes the drain.
			s.hw.SetCompare(deadline)
			s.hw.ForceInterrupt()
			s.stats.BurstLimits++
			s.ring.Record(EvtBurstLimit, 0, now, deadline)
			restoreInterrupts(state)
			return
		}

		t, _ := s.list.PopEarliest()
		s.stats.Fired++
		s.ring.Record(EvtTimerFire, t.ID, now, t.Deadline)

		// Re-arm before the callback runs so a Cancel from inside the
		// callback finds the timer.
		if t.Repeating() {
			t.Deadline = addTicks(t.Deadline, t.Period)
			if err := s.list.Insert(t); err != nil {
				s.contractViolation(t.ID, now)
			} else {
				s.stats.Rearmed++
				s.ring.Record(EvtTimerRearm, t.ID, now, t.Deadline)
			}
		}
		s.program()

		id, callback, hook := t.ID, t.Callback, s.fireHook
		restoreInterrupts(state)

		if hook != nil {
			hook(id)
		}
		callback()
		fired++
	}
}

// addTicks returns base+ticks, saturating at the largest deadline instead
// of wrapping into the past.
func addTicks(base, ticks uint64) uint64 {
	if sum := base + ticks; sum >= base {
		return sum
	}
	return math.MaxUint64
}

// allocID returns the next id that is non-zero and not currently armed.
func (s *Scheduler) allocID() TimerID {
	for {
		s.nextID++
		if s.nextID != 0 && !s.list.Contains(s.nextID) {
			return s.nextID
		}
	}
}

// program writes the earliest deadline to the comparator, or disarms it when
// the list is empty. It reports whether the clock had already reached the
// deadline once the write landed, in which case no compare match will come.
func (s *Scheduler) program() bool {
	deadline, ok := s.list.PeekEarliestDeadline()
	if !ok {
		s.hw.Disarm()
		return false
	}
	s.hw.SetCompare(deadline)
	return s.hw.Now() >= deadline
}

// reprogram is program for the main context: a deadline that is already due
// is handed to the interrupt by pending it.
func (s *Scheduler) reprogram() {
	if s.program() {
		deadline, _ := s.list.PeekEarliestDeadline()
		s.ring.Record(EvtTimerPast, 0, s.hw.Now(), deadline)
		s.hw.ForceInterrupt()
	}
}

// Now returns the current hardware tick.
func (s *Scheduler) Now() uint64 {
	return s.hw.Now()
}

// Len returns the number of armed timers.
func (s *Scheduler) Len() int {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return s.list.Len()
}

// Deadline returns the next deadline of an armed timer. Inside the callback
// of a repeating timer this is already the following deadline.
func (s *Scheduler) Deadline(id TimerID) (uint64, bool) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return s.list.Deadline(id)
}

// Stats returns a copy of the activity counters.
func (s *Scheduler) Stats() Stats {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return s.stats
}

// Config returns the effective configuration.
func (s *Scheduler) Config() Config {
	return s.cfg
}

// SetFireHook installs a function called in interrupt context with the id of
// every timer just before its callback runs. It must not block.
func (s *Scheduler) SetFireHook(hook func(TimerID)) {
	state := disableInterrupts()
	s.fireHook = hook
	restoreInterrupts(state)
}

// TicksFromMicros converts microseconds to hardware ticks.
func (s *Scheduler) TicksFromMicros(us uint64) uint64 {
	return TimerFromUS(s.cfg.Frequency, us)
}

// MicrosFromTicks converts hardware ticks to microseconds.
func (s *Scheduler) MicrosFromTicks(ticks uint64) uint64 {
	return TimerToUS(s.cfg.Frequency, ticks)
}

// TimingSnapshot returns the recent timer events, oldest first.
func (s *Scheduler) TimingSnapshot() []TimingEvent {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return s.ring.Snapshot()
}

// DumpTiming prints the recent timer events through the debug writer.
// Printing happens with interrupts enabled.
func (s *Scheduler) DumpTiming() {
	state := disableInterrupts()
	ring := s.ring
	restoreInterrupts(state)

	ring.Dump()
}

// ClearTiming empties the timing ring.
func (s *Scheduler) ClearTiming() {
	state := disableInterrupts()
	s.ring.Clear()
	restoreInterrupts(state)
}
