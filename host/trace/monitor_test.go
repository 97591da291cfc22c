package trace

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"vtimer/core"
	"vtimer/protocol"
)

func encodeEvents(seq uint8, events []core.TimingEvent) []byte {
	var stream []byte
	output := protocol.NewScratchOutput()
	for _, evt := range events {
		output.Reset()
		protocol.EncodeFrame(output, seq, func(out protocol.OutputBuffer) {
			core.EncodeTimingEvent(out, evt)
		})
		stream = append(stream, output.Result()...)
		seq = protocol.NextSequence(seq)
	}
	return stream
}

var sampleEvents = []core.TimingEvent{
	{EventType: core.EvtTimerStart, ID: 1, Clock: 0, Deadline: 100},
	{EventType: core.EvtTimerFire, ID: 1, Clock: 100, Deadline: 100},
	{EventType: core.EvtTimerRearm, ID: 1, Clock: 100, Deadline: 150},
	{EventType: core.EvtTimerCancel, ID: 1, Clock: 120, Deadline: 150},
}

func TestMonitorFeed(t *testing.T) {
	var got []core.TimingEvent
	m := NewMonitor(nil, func(evt core.TimingEvent) {
		got = append(got, evt)
	})

	stream := encodeEvents(protocol.MessageDest, sampleEvents)
	// Deliver in small pieces to exercise reassembly
	for len(stream) > 0 {
		n := 5
		if n > len(stream) {
			n = len(stream)
		}
		m.Feed(stream[:n])
		stream = stream[n:]
	}

	if len(got) != len(sampleEvents) {
		t.Fatalf("Expected %d events, got %d", len(sampleEvents), len(got))
	}
	for i := range got {
		if got[i] != sampleEvents[i] {
			t.Errorf("Event %d: expected %+v, got %+v", i, sampleEvents[i], got[i])
		}
	}

	stats := m.Stats()
	if stats.Frames != 4 || stats.Events != 4 || stats.SequenceGaps != 0 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestMonitorReportsBadPayload(t *testing.T) {
	var errs int
	var events int
	m := NewMonitor(nil, func(core.TimingEvent) { events++ })
	m.SetErrorHandler(func(error) { errs++ })

	output := protocol.NewScratchOutput()
	protocol.EncodeFrame(output, protocol.MessageDest, func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, 0xEE)
	})
	stream := append([]byte{}, output.Result()...)
	stream = append(stream, encodeEvents(protocol.NextSequence(protocol.MessageDest), sampleEvents[:1])...)

	m.Feed(stream)

	if errs != 1 {
		t.Errorf("Expected 1 decode error, got %d", errs)
	}
	if events != 1 {
		t.Errorf("Expected decoding to continue after a bad frame, got %d events", events)
	}
	if m.Stats().DecodeErrors != 1 {
		t.Errorf("Expected DecodeErrors 1, got %d", m.Stats().DecodeErrors)
	}
}

func TestMonitorCountsSequenceGaps(t *testing.T) {
	m := NewMonitor(nil, nil)

	first := encodeEvents(protocol.MessageDest, sampleEvents[:1])
	// Skip two sequence numbers
	later := encodeEvents(protocol.MessageDest|3, sampleEvents[1:2])
	m.Feed(append(first, later...))

	if gaps := m.Stats().SequenceGaps; gaps != 1 {
		t.Errorf("Expected 1 sequence gap, got %d", gaps)
	}
}

func TestMonitorSkipsCorruption(t *testing.T) {
	var got []core.TimingEvent
	m := NewMonitor(nil, func(evt core.TimingEvent) { got = append(got, evt) })

	stream := encodeEvents(protocol.MessageDest, sampleEvents[:2])
	garbage := []byte{0x01, 0xFF, 0x33, 0x7E}
	m.Feed(append(garbage, stream...))

	if len(got) != 2 {
		t.Fatalf("Expected 2 events after resync, got %d", len(got))
	}
}

func TestMonitorReadLoop(t *testing.T) {
	r, w := io.Pipe()
	events := make(chan core.TimingEvent, len(sampleEvents))
	m := NewMonitor(r, func(evt core.TimingEvent) { events <- evt })
	m.Start()

	go func() {
		w.Write(encodeEvents(protocol.MessageDest, sampleEvents))
	}()

	for i := range sampleEvents {
		select {
		case evt := <-events:
			if evt != sampleEvents[i] {
				t.Errorf("Event %d: expected %+v, got %+v", i, sampleEvents[i], evt)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("Timed out waiting for event %d", i)
		}
	}

	if err := m.Stop(); err != nil {
		t.Errorf("Stop returned %v", err)
	}
	select {
	case <-m.Done():
	default:
		t.Error("Expected read loop to have exited")
	}
	// Second stop is a no-op
	m.Stop()
}

func TestMonitorEndsOnEOF(t *testing.T) {
	var count int
	m := NewMonitor(bytes.NewReader(encodeEvents(protocol.MessageDest, sampleEvents)), func(core.TimingEvent) {
		count++
	})
	m.Start()

	select {
	case <-m.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for EOF")
	}
	if count != len(sampleEvents) {
		t.Errorf("Expected %d events, got %d", len(sampleEvents), count)
	}
}

func TestMonitorDecodesExportAfterTextLine(t *testing.T) {
	clk := core.NewSimClock(0)
	sched := core.NewScheduler(clk, core.DefaultConfig())
	sched.StartRepeated(50, func() {})
	clk.AdvanceTo(100)

	expected := sched.TimingSnapshot()

	// Firmware prints a status line on the same UART just before exporting
	stream := []byte("[VTIMER] armed=4 beats=2\r\n")
	sched.ExportTiming(protocol.MessageDest, func(frame []byte) {
		stream = append(stream, frame...)
	})

	var got []core.TimingEvent
	m := NewMonitor(nil, func(evt core.TimingEvent) { got = append(got, evt) })
	m.Feed(stream)

	if len(got) != len(expected) {
		t.Fatalf("Expected %d events, got %d (stats %+v)", len(expected), len(got), m.Stats())
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Errorf("Event %d: expected %+v, got %+v", i, expected[i], got[i])
		}
	}
}

func TestMonitorErrorHandlerSetWhileRunning(t *testing.T) {
	r, w := io.Pipe()
	m := NewMonitor(r, nil)
	m.Start()
	defer m.Stop()

	errs := make(chan error, 1)
	m.SetErrorHandler(func(err error) { errs <- err })

	output := protocol.NewScratchOutput()
	protocol.EncodeFrame(output, protocol.MessageDest, func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, 0xEE)
	})
	go w.Write(append([]byte(nil), output.Result()...))

	select {
	case err := <-errs:
		if !errors.Is(err, core.ErrInvalidTimingEvent) {
			t.Errorf("Expected ErrInvalidTimingEvent, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for decode error")
	}
}
