package core

import (
	"errors"

	"vtimer/protocol"
)

var ErrInvalidTimingEvent = errors.New("invalid timing event")

// EncodeTimingEvent writes evt as a frame payload
func EncodeTimingEvent(output protocol.OutputBuffer, evt TimingEvent) {
	protocol.EncodeVLQUint(output, uint32(evt.EventType))
	protocol.EncodeVLQUint(output, uint32(evt.ID))
	protocol.EncodeVLQUint64(output, evt.Clock)
	protocol.EncodeVLQUint64(output, evt.Deadline)
}

// DecodeTimingEvent parses a payload written by EncodeTimingEvent
func DecodeTimingEvent(payload []byte) (TimingEvent, error) {
	var evt TimingEvent

	eventType, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return evt, err
	}
	if eventType == 0 || eventType > EvtContract {
		return evt, ErrInvalidTimingEvent
	}
	id, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return evt, err
	}
	if evt.Clock, err = protocol.DecodeVLQUint64(&payload); err != nil {
		return evt, err
	}
	if evt.Deadline, err = protocol.DecodeVLQUint64(&payload); err != nil {
		return evt, err
	}
	if len(payload) != 0 {
		return evt, ErrInvalidTimingEvent
	}

	evt.EventType = uint8(eventType)
	evt.ID = TimerID(id)
	return evt, nil
}

// ExportTiming frames every event in the timing ring, oldest first, and
// passes each frame to emit. The frame slice is reused between calls.
// A lone sync byte goes out first so a reader that was fed text on the same
// line resynchronizes before the first frame.
// It returns the sequence number to use for the next export.
func (s *Scheduler) ExportTiming(seq uint8, emit func(frame []byte)) uint8 {
	events := s.TimingSnapshot()
	if len(events) == 0 {
		return seq
	}

	emit([]byte{protocol.MessageValueSync})
	output := protocol.NewScratchOutput()
	for _, evt := range events {
		output.Reset()
		protocol.EncodeFrame(output, seq, func(out protocol.OutputBuffer) {
			EncodeTimingEvent(out, evt)
		})
		emit(output.Result())
		seq = protocol.NextSequence(seq)
	}
	return seq
}
