//go:build nrf52833

package main

import (
	"device/nrf"
	"runtime/interrupt"

	"vtimer/core"
)

// TIMER4 channel usage
const (
	captureChannel = 1 // snapshot of the counter for Now
	compareChannel = 2 // virtual timer comparator
	wrapChannel    = 3 // fires at counter wrap to keep the 64-bit extension current

	intenCompare2 = 1 << 18
	intenCompare3 = 1 << 19

	timerBitmode32  = 3
	timerPrescale16 = 4 // 16 MHz / 2^4 = 1 MHz
)

// nrfClock drives TIMER4 as a free running 32-bit 1 MHz counter,
// extended to 64 bits in software.
type nrfClock struct {
	high    uint32
	lastLow uint32
}

var clock nrfClock

// InitClock starts TIMER4 and enables its interrupt
func InitClock() *nrfClock {
	t := nrf.TIMER4
	t.TASKS_STOP.Set(1)
	t.MODE.Set(0) // timer mode
	t.BITMODE.Set(timerBitmode32)
	t.PRESCALER.Set(timerPrescale16)
	t.INTENCLR.Set(0xFFFFFFFF)
	t.EVENTS_COMPARE[compareChannel].Set(0)
	t.EVENTS_COMPARE[wrapChannel].Set(0)

	t.CC[wrapChannel].Set(0)
	t.INTENSET.Set(intenCompare3)

	t.TASKS_CLEAR.Set(1)
	t.TASKS_START.Set(1)

	irq := interrupt.New(nrf.IRQ_TIMER4, timer4Handler)
	irq.SetPriority(0xC0)
	irq.Enable()

	return &clock
}

func timer4Handler(interrupt.Interrupt) {
	t := nrf.TIMER4
	if t.EVENTS_COMPARE[wrapChannel].Get() != 0 {
		t.EVENTS_COMPARE[wrapChannel].Set(0)
		clock.Now()
	}
	if t.EVENTS_COMPARE[compareChannel].Get() != 0 {
		core.TimerDispatch()
	}
}

// Now captures the counter and folds in wraps since the last read
func (c *nrfClock) Now() uint64 {
	state := interrupt.Disable()
	nrf.TIMER4.TASKS_CAPTURE[captureChannel].Set(1)
	low := nrf.TIMER4.CC[captureChannel].Get()
	if low < c.lastLow {
		c.high++
	}
	c.lastLow = low
	high := c.high
	interrupt.Restore(state)
	return uint64(high)<<32 | uint64(low)
}

// SetCompare matches the low 32 bits only. A deadline more than one wrap
// away produces an early interrupt that finds nothing due and re-arms.
func (c *nrfClock) SetCompare(deadline uint64) {
	t := nrf.TIMER4
	t.CC[compareChannel].Set(uint32(deadline))
	t.INTENSET.Set(intenCompare2)
}

func (c *nrfClock) Disarm() {
	nrf.TIMER4.INTENCLR.Set(intenCompare2)
	nrf.TIMER4.EVENTS_COMPARE[compareChannel].Set(0)
}

func (c *nrfClock) ClearPending() {
	nrf.TIMER4.EVENTS_COMPARE[compareChannel].Set(0)
}

// ForceInterrupt raises the compare event by hand; the NVIC takes it once
// interrupts are restored.
func (c *nrfClock) ForceInterrupt() {
	nrf.TIMER4.INTENSET.Set(intenCompare2)
	nrf.TIMER4.EVENTS_COMPARE[compareChannel].Set(1)
}
