package core

import "golang.org/x/exp/slices"

// TimerID identifies an armed logical timer. Zero is never a valid id.
type TimerID uint32

// LogicalTimer is one scheduled callback.
type LogicalTimer struct {
	ID       TimerID
	Deadline uint64 // absolute hardware tick
	Period   uint64 // 0 for one-shot, re-arm interval otherwise
	Callback func()
}

// Repeating reports whether the timer re-arms after firing.
func (t *LogicalTimer) Repeating() bool {
	return t.Period != 0
}

// UnlimitedTimers lets a TimerList grow without bound.
const UnlimitedTimers = -1

// TimerList holds the armed timers ordered by deadline, FIFO among equal
// deadlines. Entries are kept in descending order so the earliest timer sits
// at the tail: insert is O(n), peek and pop of the earliest entry are O(1).
//
// A TimerList is not synchronized. The scheduler is its only writer and
// serializes access by masking interrupts.
type TimerList struct {
	entries []LogicalTimer
	limit   int
}

// NewTimerList creates a list that holds at most capacity timers.
// Pass UnlimitedTimers for a list that grows on demand.
func NewTimerList(capacity int) *TimerList {
	l := &TimerList{limit: capacity}
	if capacity > 0 {
		// Preallocate so inserts from interrupt context never allocate.
		l.entries = make([]LogicalTimer, 0, capacity)
	}
	return l
}

// Len returns the number of armed timers.
func (l *TimerList) Len() int {
	return len(l.entries)
}

// Cap returns the capacity limit, or UnlimitedTimers.
func (l *TimerList) Cap() int {
	return l.limit
}

// Insert adds t in deadline order. A timer whose deadline equals existing
// entries is placed after them.
func (l *TimerList) Insert(t LogicalTimer) error {
	if l.Contains(t.ID) {
		return ErrDuplicateID
	}
	if l.limit >= 0 && len(l.entries) >= l.limit {
		return ErrCapacityExceeded
	}

	// First entry not later than t. Inserting in front of it keeps older
	// equal-deadline entries closer to the tail, so they pop first.
	i := slices.IndexFunc(l.entries, func(e LogicalTimer) bool {
		return e.Deadline <= t.Deadline
	})
	if i < 0 {
		i = len(l.entries)
	}
	l.entries = slices.Insert(l.entries, i, t)
	return nil
}

// Remove unlinks the timer with the given id and returns it.
func (l *TimerList) Remove(id TimerID) (LogicalTimer, error) {
	i := l.index(id)
	if i < 0 {
		return LogicalTimer{}, ErrNotFound
	}
	t := l.entries[i]
	last := len(l.entries) - 1
	l.entries = slices.Delete(l.entries, i, i+1)
	l.clearSlot(last)
	return t, nil
}

// PopEarliest removes and returns the timer with the smallest deadline.
func (l *TimerList) PopEarliest() (LogicalTimer, bool) {
	n := len(l.entries)
	if n == 0 {
		return LogicalTimer{}, false
	}
	t := l.entries[n-1]
	l.entries = l.entries[:n-1]
	l.clearSlot(n - 1)
	return t, true
}

// PeekEarliestDeadline returns the smallest deadline without removing it.
func (l *TimerList) PeekEarliestDeadline() (uint64, bool) {
	n := len(l.entries)
	if n == 0 {
		return 0, false
	}
	return l.entries[n-1].Deadline, true
}

// Contains reports whether id is armed.
func (l *TimerList) Contains(id TimerID) bool {
	return l.index(id) >= 0
}

// Deadline returns the deadline of an armed timer.
func (l *TimerList) Deadline(id TimerID) (uint64, bool) {
	i := l.index(id)
	if i < 0 {
		return 0, false
	}
	return l.entries[i].Deadline, true
}

func (l *TimerList) index(id TimerID) int {
	return slices.IndexFunc(l.entries, func(e LogicalTimer) bool {
		return e.ID == id
	})
}

// clearSlot zeroes a vacated slot beyond len so the backing array does not
// keep a callback alive after the timer left the list.
func (l *TimerList) clearSlot(i int) {
	if i < cap(l.entries) {
		l.entries[:i+1][i] = LogicalTimer{}
	}
}
