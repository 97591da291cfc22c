package core

import "sync"

// SimClock is a deterministic HardwareClock for host builds and tests.
//
// The comparator matches only when the counter crosses it: a compare value
// written at or behind the current count never fires, as on real hardware.
// Interrupts are delivered by Advance, never by the register writes
// themselves, so a pending interrupt raised inside a masked section runs at
// the next Advance.
type SimClock struct {
	mu      sync.Mutex
	now     uint64
	compare uint64
	armed   bool
	pending bool
	handler func()
}

// NewSimClock creates a clock whose counter starts at start.
func NewSimClock(start uint64) *SimClock {
	return &SimClock{now: start}
}

func (c *SimClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *SimClock) SetCompare(deadline uint64) {
	c.mu.Lock()
	c.compare = deadline
	c.armed = true
	c.mu.Unlock()
}

func (c *SimClock) Disarm() {
	c.mu.Lock()
	c.armed = false
	c.mu.Unlock()
}

func (c *SimClock) ClearPending() {
	c.mu.Lock()
	c.pending = false
	c.mu.Unlock()
}

func (c *SimClock) ForceInterrupt() {
	c.mu.Lock()
	c.pending = true
	c.mu.Unlock()
}

// SetInterruptHandler attaches the interrupt line.
func (c *SimClock) SetInterruptHandler(handler func()) {
	c.mu.Lock()
	c.handler = handler
	c.mu.Unlock()
}

// Compare returns the programmed comparator and whether it is armed.
func (c *SimClock) Compare() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compare, c.armed
}

// Pending reports whether the interrupt is pending.
func (c *SimClock) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Stall moves the counter forward without delivering interrupts. Calling it
// from a timer callback models callback execution time.
func (c *SimClock) Stall(ticks uint64) {
	c.mu.Lock()
	c.now += ticks
	c.mu.Unlock()
}

// Advance moves the counter forward by ticks, stopping at every compare
// match to run the interrupt handler. A pending interrupt is delivered even
// when ticks is zero.
func (c *SimClock) Advance(ticks uint64) {
	c.mu.Lock()
	target := c.now + ticks
	c.mu.Unlock()
	c.AdvanceTo(target)
}

// AdvanceTo moves the counter to the absolute tick target.
func (c *SimClock) AdvanceTo(target uint64) {
	for {
		c.mu.Lock()
		if !c.pending && c.armed && c.now < c.compare && c.compare <= target {
			c.now = c.compare
			c.pending = true
		}
		if !c.pending || c.handler == nil || c.now > target {
			if c.now < target {
				c.now = target
			}
			c.mu.Unlock()
			return
		}
		handler := c.handler
		c.mu.Unlock()

		handler()
	}
}
