package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimingEvent captures a timer event for post-mortem analysis
type TimingEvent struct {
	EventType uint8   // Event type code
	ID        TimerID // Logical timer involved, 0 if none
	Clock     uint64  // Hardware clock at event
	Deadline  uint64  // Deadline involved (new deadline for re-arm)
}

// Event type codes
const (
	EvtTimerStart  = 1 // Timer armed by Start/StartRepeated
	EvtTimerCancel = 2 // Timer removed by Cancel
	EvtCancelMiss  = 3 // Cancel of an id that was not armed
	EvtTimerFire   = 4 // Timer popped, callback about to run
	EvtTimerRearm  = 5 // Repeating timer re-inserted
	EvtTimerPast   = 6 // Comparator written behind the clock
	EvtBurstLimit  = 7 // Handler yielded after MaxBurst firings
	EvtCapacity    = 8 // Start rejected, list full
	EvtContract    = 9 // Duplicate id handed out
)

const (
	TimingRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking).
// Safe from interrupt context: drops the message when the channel is full.
func DebugAsync(msg string) {
	if debugChan != nil {
		select {
		case debugChan <- msg:
		default:
		}
	}
}

// TimingRing is a fixed-size buffer of the most recent timer events.
// It never allocates and overwrites the oldest entry when full.
// Not synchronized; the scheduler writes it with interrupts masked.
type TimingRing struct {
	events [TimingRingSize]TimingEvent
	head   uint8 // Next write position
}

// Record captures an event in the ring buffer
func (r *TimingRing) Record(eventType uint8, id TimerID, clock, deadline uint64) {
	idx := r.head
	r.events[idx] = TimingEvent{
		EventType: eventType,
		ID:        id,
		Clock:     clock,
		Deadline:  deadline,
	}
	r.head = (idx + 1) % TimingRingSize
}

// Snapshot returns the recorded events from oldest to newest
func (r *TimingRing) Snapshot() []TimingEvent {
	out := make([]TimingEvent, 0, TimingRingSize)
	start := r.head
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := r.events[(start+i)%TimingRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// Clear empties the ring
func (r *TimingRing) Clear() {
	for i := range r.events {
		r.events[i] = TimingEvent{}
	}
	r.head = 0
}

// Dump writes the ring through the debug writer, oldest first
func (r *TimingRing) Dump() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TIMING] === Timing Ring Dump ===")
	for _, evt := range r.Snapshot() {
		debugPrintln("[TIMING] " + EventName(evt.EventType) +
			" id=" + utoa(uint32(evt.ID)) +
			" clock=" + FormatUint(evt.Clock) +
			" deadline=" + FormatUint(evt.Deadline))
	}
	debugPrintln("[TIMING] === End Dump ===")
}

// EventName returns the printable name of an event type
func EventName(eventType uint8) string {
	switch eventType {
	case EvtTimerStart:
		return "START"
	case EvtTimerCancel:
		return "CANCEL"
	case EvtCancelMiss:
		return "CANCEL_MISS"
	case EvtTimerFire:
		return "FIRE"
	case EvtTimerRearm:
		return "REARM"
	case EvtTimerPast:
		return "TIMER_PAST!"
	case EvtBurstLimit:
		return "BURST_LIMIT"
	case EvtCapacity:
		return "NO_CAPACITY"
	case EvtContract:
		return "DUPLICATE_ID!"
	default:
		return "UNKNOWN"
	}
}
