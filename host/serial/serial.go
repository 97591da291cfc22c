package serial

import (
	"io"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Pipes and fakes in tests
type Port interface {
	io.ReadWriteCloser

	// Flush discards data buffered in the driver
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate of the firmware's trace UART
	Baud int

	// Read timeout in milliseconds (0 = blocking). A non-zero timeout lets
	// readers notice shutdown without closing the port.
	ReadTimeout int
}

// DefaultBaud matches the UART rate the targets configure for trace output
const DefaultBaud = 115200

// DefaultConfig returns the configuration the trace monitor expects
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100,
	}
}
