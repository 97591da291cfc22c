package core

// DefaultTimerFreq is the tick rate of the reference backends (1 MHz).
const DefaultTimerFreq = 1000000

// HardwareClock is one free-running monotonic counter with a single
// comparator feeding a single interrupt line. Backends narrower than 64 bits
// extend their counter in software.
//
// SetCompare, Disarm, ClearPending and ForceInterrupt are plain register
// writes and cannot fail. A comparator programmed at or behind the current
// count is not guaranteed to match; the scheduler detects that case itself.
type HardwareClock interface {
	// Now returns the current tick count.
	Now() uint64

	// SetCompare arms the comparator for the given absolute tick.
	SetCompare(deadline uint64)

	// Disarm stops the comparator from raising the interrupt.
	Disarm()

	// ClearPending acknowledges the compare event.
	ClearPending()

	// ForceInterrupt marks the interrupt pending so the handler runs as soon
	// as interrupts are unmasked.
	ForceInterrupt()
}

// InterruptSource is implemented by clocks whose interrupt handler is
// attached at runtime. Firmware backends bind the handler statically instead.
type InterruptSource interface {
	SetInterruptHandler(handler func())
}

// TimerFromUS converts microseconds to ticks at freq Hz
func TimerFromUS(freq uint32, us uint64) uint64 {
	return us * uint64(freq) / 1000000
}

// TimerToUS converts ticks at freq Hz to microseconds
func TimerToUS(freq uint32, ticks uint64) uint64 {
	return ticks * 1000000 / uint64(freq)
}
