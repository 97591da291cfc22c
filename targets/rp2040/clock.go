//go:build rp2040

package main

import (
	"device/rp"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"

	"vtimer/core"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerALARM1   = timerBase + 0x14
	timerARMED    = timerBase + 0x20
	timerTIMERAWH = timerBase + 0x24 // Raw timer high word (no latch)
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word (no latch)
	timerINTR     = timerBase + 0x34
	timerINTE     = timerBase + 0x38
	timerINTF     = timerBase + 0x3C

	// ALARM0 belongs to the TinyGo runtime
	alarm1Bit = 1 << 1

	// An alarm matches the low 32 bits only; keep it within half a wrap
	maxAlarmSpan = 1 << 31
)

var (
	timerAlarm1 = (*volatile.Register32)(unsafe.Pointer(uintptr(timerALARM1)))
	timerArmed  = (*volatile.Register32)(unsafe.Pointer(uintptr(timerARMED)))
	timerRAWH   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
	timerIntr   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTR)))
	timerInte   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTE)))
	timerIntf   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTF)))
)

// rpClock is the 64-bit 1 MHz RP2040 timer with ALARM1 as the comparator
type rpClock struct{}

// InitClock enables the ALARM1 interrupt
// The RP2040 has a 64-bit microsecond timer at 1MHz
func InitClock() rpClock {
	timerArmed.Set(alarm1Bit)
	timerIntf.ClearBits(alarm1Bit)
	timerIntr.Set(alarm1Bit)
	timerInte.SetBits(alarm1Bit)

	irq := interrupt.New(rp.IRQ_TIMER_IRQ_1, func(interrupt.Interrupt) {
		core.TimerDispatch()
	})
	irq.Enable()
	return rpClock{}
}

// Now reads the full 64-bit hardware timer
func (rpClock) Now() uint64 {
	// Must read high first, then low, then high again to detect rollover
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()

		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

func (c rpClock) SetCompare(deadline uint64) {
	now := c.Now()
	if deadline > now && deadline-now > maxAlarmSpan {
		// Wake early; the handler finds nothing due and re-arms
		deadline = now + maxAlarmSpan
	}
	// Writing ALARM1 arms it
	timerAlarm1.Set(uint32(deadline))
}

func (rpClock) Disarm() {
	timerArmed.Set(alarm1Bit)
}

func (rpClock) ClearPending() {
	timerIntf.ClearBits(alarm1Bit)
	timerIntr.Set(alarm1Bit)
}

func (rpClock) ForceInterrupt() {
	timerIntf.SetBits(alarm1Bit)
}
