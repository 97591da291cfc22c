//go:build !vtimerdebug

package core

// contractViolation reports an id-generation bug. Release builds log it and
// drop the offending request. Called with interrupts masked.
func (s *Scheduler) contractViolation(id TimerID, now uint64) {
	s.ring.Record(EvtContract, id, now, 0)
	msg := "vtimer: duplicate timer id " + utoa(uint32(id))
	if debugChan != nil {
		DebugAsync(msg)
		return
	}
	DebugPrintln(msg)
}
