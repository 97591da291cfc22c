// Package trace captures timing events streamed by the firmware.
package trace

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"vtimer/core"
	"vtimer/host/serial"
	"vtimer/protocol"
)

// Handler receives each decoded timing event
type Handler func(evt core.TimingEvent)

// Stats counts what the monitor has seen so far
type Stats struct {
	Frames       uint32
	Events       uint32
	DecodeErrors uint32
	Dropped      uint32 // decoder resyncs
	SequenceGaps uint32
}

// Monitor reads framed timing events from a byte stream
type Monitor struct {
	src     io.Reader
	handler Handler

	mu      sync.Mutex
	onError func(err error)
	decoder *protocol.FrameDecoder
	stats   Stats
	lastSeq uint8
	haveSeq bool

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

// NewMonitor creates a monitor reading from src
func NewMonitor(src io.Reader, handler Handler) *Monitor {
	return &Monitor{
		src:      src,
		handler:  handler,
		decoder:  protocol.NewFrameDecoder(),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Open opens the serial device described by cfg and starts monitoring it.
// onError may be nil.
func Open(cfg *serial.Config, handler Handler, onError func(err error)) (*Monitor, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open trace port: %w", err)
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, fmt.Errorf("flush trace port: %w", err)
	}

	m := NewMonitor(port, handler)
	m.SetErrorHandler(onError)
	m.Start()
	return m, nil
}

// SetErrorHandler installs fn to receive decode and read errors. It may be
// called while the read loop is running.
func (m *Monitor) SetErrorHandler(fn func(err error)) {
	m.mu.Lock()
	m.onError = fn
	m.mu.Unlock()
}

// Start launches the read loop
func (m *Monitor) Start() {
	go m.readLoop()
}

// Stop ends the read loop and closes the source if it is closable.
// It is safe to call more than once.
func (m *Monitor) Stop() error {
	var err error
	m.stopOnce.Do(func() {
		close(m.stopChan)
		if c, ok := m.src.(io.Closer); ok {
			err = c.Close()
		}
		<-m.doneChan
	})
	return err
}

// Done is closed when the read loop exits
func (m *Monitor) Done() <-chan struct{} {
	return m.doneChan
}

// Stats returns a copy of the counters
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := m.stats
	stats.Dropped = m.decoder.Dropped
	return stats
}

// Feed decodes data synchronously. The read loop uses it; it can also
// replay a capture without a live port.
func (m *Monitor) Feed(data []byte) {
	m.mu.Lock()
	frames := m.decoder.Feed(data)
	events := make([]core.TimingEvent, 0, len(frames))
	var errs []error

	for _, frame := range frames {
		m.stats.Frames++
		if m.haveSeq && frame.Sequence != protocol.NextSequence(m.lastSeq) {
			m.stats.SequenceGaps++
		}
		m.lastSeq = frame.Sequence
		m.haveSeq = true

		evt, err := core.DecodeTimingEvent(frame.Payload)
		if err != nil {
			m.stats.DecodeErrors++
			errs = append(errs, fmt.Errorf("frame seq 0x%02x: %w", frame.Sequence, err))
			continue
		}
		m.stats.Events++
		events = append(events, evt)
	}
	onError := m.onError
	m.mu.Unlock()

	// Callbacks run without the lock so they may query Stats
	if onError != nil {
		for _, err := range errs {
			onError(err)
		}
	}
	if m.handler != nil {
		for _, evt := range events {
			m.handler(evt)
		}
	}
}

func (m *Monitor) readLoop() {
	defer close(m.doneChan)

	buf := make([]byte, 4096)
	for {
		select {
		case <-m.stopChan:
			return
		default:
		}

		n, err := m.src.Read(buf)
		if n > 0 {
			m.Feed(buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || m.stopping() {
				return
			}
			m.mu.Lock()
			onError := m.onError
			m.mu.Unlock()
			if onError != nil {
				onError(fmt.Errorf("read: %w", err))
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (m *Monitor) stopping() bool {
	select {
	case <-m.stopChan:
		return true
	default:
		return false
	}
}
