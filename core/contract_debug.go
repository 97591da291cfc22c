//go:build vtimerdebug

package core

// contractViolation reports an id-generation bug. Debug builds stop here.
func (s *Scheduler) contractViolation(id TimerID, now uint64) {
	s.ring.Record(EvtContract, id, now, 0)
	panic("vtimer: duplicate timer id " + utoa(uint32(id)))
}
