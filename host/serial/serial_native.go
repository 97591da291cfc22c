//go:build !wasm

package serial

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// NativePort wraps a tarm/serial port
type NativePort struct {
	port *serial.Port
	cfg  Config
}

// Open opens a native serial port
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Device == "" {
		return nil, fmt.Errorf("serial device is required")
	}

	baud := cfg.Baud
	if baud == 0 {
		baud = DefaultBaud
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	return &NativePort{port: port, cfg: *cfg}, nil
}

// Read returns (0, nil) when the read timeout expires with no data
func (p *NativePort) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if n == 0 && errors.Is(err, io.EOF) && p.cfg.ReadTimeout > 0 {
		return 0, nil
	}
	return n, err
}

func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

func (p *NativePort) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// Flush drops stale bytes so a capture starts on fresh frames
func (p *NativePort) Flush() error {
	return p.port.Flush()
}

// Device returns the path the port was opened on
func (p *NativePort) Device() string {
	return p.cfg.Device
}
