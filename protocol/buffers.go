package protocol

// OutputBuffer provides an abstraction for writing outgoing protocol data
type OutputBuffer interface {
	// Output writes data to the buffer
	Output(data []byte)

	// CurPosition returns the current write position
	CurPosition() int

	// Update modifies a byte at a specific position
	Update(pos int, val byte)

	// DataSince returns data from a specific position to current
	DataSince(pos int) []byte
}

// ScratchOutput implements OutputBuffer using a fixed-size scratch buffer.
// It never allocates, so frames can be built from interrupt context.
type ScratchOutput struct {
	buf [MessageMax]byte
	pos int
}

// NewScratchOutput creates a new ScratchOutput
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

// Output appends data; bytes beyond the scratch size are dropped
func (s *ScratchOutput) Output(data []byte) {
	n := copy(s.buf[s.pos:], data)
	s.pos += n
}

func (s *ScratchOutput) CurPosition() int {
	return s.pos
}

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos < len(s.buf) {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Result returns the accumulated output data
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Reset clears the buffer
func (s *ScratchOutput) Reset() {
	s.pos = 0
}

// FifoBuffer is a circular buffer for serial input
type FifoBuffer struct {
	buf   []byte
	read  int
	write int
	size  int
}

// NewFifoBuffer creates a new FifoBuffer with the specified capacity.
// One slot is reserved to tell full from empty.
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{
		buf:  make([]byte, capacity),
		size: capacity,
	}
}

// Write appends as much of data as fits and returns the count written
func (f *FifoBuffer) Write(data []byte) int {
	written := 0
	for _, b := range data {
		nextWrite := (f.write + 1) % f.size
		if nextWrite == f.read {
			break
		}
		f.buf[f.write] = b
		f.write = nextWrite
		written++
	}
	return written
}

// Available returns the number of bytes available for reading
func (f *FifoBuffer) Available() int {
	if f.write >= f.read {
		return f.write - f.read
	}
	return f.size - f.read + f.write
}

// Free returns the number of bytes available for writing
func (f *FifoBuffer) Free() int {
	return f.size - f.Available() - 1
}

// Data returns available data as a contiguous slice.
// A wrapped buffer is copied; the result must not be retained across writes.
func (f *FifoBuffer) Data() []byte {
	if f.read <= f.write {
		return f.buf[f.read:f.write]
	}
	result := make([]byte, f.Available())
	firstLen := f.size - f.read
	copy(result, f.buf[f.read:])
	copy(result[firstLen:], f.buf[:f.write])
	return result
}

// Pop removes n bytes from the front
func (f *FifoBuffer) Pop(n int) {
	if avail := f.Available(); n > avail {
		n = avail
	}
	f.read = (f.read + n) % f.size
}

// IsEmpty returns true if the buffer is empty
func (f *FifoBuffer) IsEmpty() bool {
	return f.read == f.write
}

// Reset clears the buffer
func (f *FifoBuffer) Reset() {
	f.read = 0
	f.write = 0
}
