//go:build !tinygo

package core

import "sync"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// On the host the "interrupt" is whatever goroutine calls HandleInterrupt,
// so masking is a process-wide lock. Masked sections must not nest.
var interruptMask sync.Mutex

// disableInterrupts blocks the simulated interrupt context
func disableInterrupts() State {
	interruptMask.Lock()
	return 0
}

// restoreInterrupts lets the simulated interrupt context run again
func restoreInterrupts(state State) {
	interruptMask.Unlock()
}
