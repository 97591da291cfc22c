//go:build tinygo

package core

import "runtime/interrupt"

// State is the saved interrupt state of the CPU.
type State = interrupt.State

// disableInterrupts masks every interrupt, including the timer compare
// interrupt, and returns the previous state. Sections may nest on hardware.
func disableInterrupts() State {
	return interrupt.Disable()
}

// restoreInterrupts unmasks to the saved state. A compare event or forced
// pending raised while masked is taken here.
func restoreInterrupts(state State) {
	interrupt.Restore(state)
}
