package pio

import "vtimer/core"

// MaxStrobePulses is the longest burst the strobe emits
const MaxStrobePulses = 8

// StrobePulses returns how many pulses a firing of id produces (1..8)
func StrobePulses(id core.TimerID) uint32 {
	return uint32(id)%MaxStrobePulses + 1
}
