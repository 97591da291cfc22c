package protocol

import "testing"

func TestScratchOutput(t *testing.T) {
	scratch := NewScratchOutput()

	scratch.Output([]byte{1, 2, 3})
	if scratch.CurPosition() != 3 {
		t.Errorf("Expected position 3, got %d", scratch.CurPosition())
	}

	scratch.Output([]byte{4, 5})
	if scratch.CurPosition() != 5 {
		t.Errorf("Expected position 5, got %d", scratch.CurPosition())
	}

	scratch.Update(0, 99)
	if result := scratch.Result(); result[0] != 99 {
		t.Errorf("Expected first byte to be 99, got %d", result[0])
	}

	since := scratch.DataSince(2)
	if len(since) != 3 || since[0] != 3 {
		t.Errorf("DataSince(2) failed: expected [3 4 5], got %v", since)
	}

	scratch.Reset()
	if scratch.CurPosition() != 0 {
		t.Errorf("After reset, expected position 0, got %d", scratch.CurPosition())
	}
}

func TestScratchOutputDropsOverflow(t *testing.T) {
	scratch := NewScratchOutput()
	scratch.Output(make([]byte, MessageMax+10))
	if scratch.CurPosition() != MessageMax {
		t.Errorf("Expected position %d, got %d", MessageMax, scratch.CurPosition())
	}
}

func TestFifoBuffer(t *testing.T) {
	fifo := NewFifoBuffer(10)

	if !fifo.IsEmpty() {
		t.Error("New FIFO should be empty")
	}

	written := fifo.Write([]byte{1, 2, 3, 4, 5})
	if written != 5 {
		t.Errorf("Expected to write 5 bytes, wrote %d", written)
	}
	if fifo.Available() != 5 {
		t.Errorf("Expected 5 bytes available, got %d", fifo.Available())
	}

	fifo.Pop(3)
	if data := fifo.Data(); len(data) != 2 || data[0] != 4 {
		t.Errorf("After popping 3, expected [4 5], got %v", data)
	}

	fifo.Reset()
	written = fifo.Write(make([]byte, 12))
	if written != 9 { // one slot reserved
		t.Errorf("Expected to write 9 bytes to size-10 FIFO, wrote %d", written)
	}
	if fifo.Free() != 0 {
		t.Errorf("Expected full FIFO, %d free", fifo.Free())
	}
}

func TestFifoBufferWrapAround(t *testing.T) {
	fifo := NewFifoBuffer(5)

	fifo.Write([]byte{1, 2, 3, 4})
	fifo.Pop(2)

	written := fifo.Write([]byte{5, 6})
	if written != 2 {
		t.Errorf("Expected to write 2 bytes, wrote %d", written)
	}

	data := fifo.Data()
	if len(data) != 4 || data[0] != 3 || data[1] != 4 || data[2] != 5 || data[3] != 6 {
		t.Errorf("Wrap-around data mismatch: got %v", data)
	}

	fifo.Pop(10)
	if !fifo.IsEmpty() {
		t.Errorf("Pop past the end should empty the FIFO, %d left", fifo.Available())
	}
}
