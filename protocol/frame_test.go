package protocol

import (
	"bytes"
	"testing"
)

func buildFrame(seq uint8, values ...uint32) []byte {
	output := NewScratchOutput()
	EncodeFrame(output, seq, func(out OutputBuffer) {
		for _, v := range values {
			EncodeVLQUint(out, v)
		}
	})
	frame := make([]byte, output.CurPosition())
	copy(frame, output.Result())
	return frame
}

func decodeValues(t *testing.T, payload []byte) []uint32 {
	t.Helper()
	var values []uint32
	for len(payload) > 0 {
		v, err := DecodeVLQUint(&payload)
		if err != nil {
			t.Fatalf("Failed to decode payload: %v", err)
		}
		values = append(values, v)
	}
	return values
}

func TestEncodeFrameLayout(t *testing.T) {
	frame := buildFrame(3, 1, 2)

	if int(frame[MessagePositionLen]) != len(frame) {
		t.Errorf("Length byte %d does not match frame size %d", frame[MessagePositionLen], len(frame))
	}
	if frame[MessagePositionSeq] != MessageDest|3 {
		t.Errorf("Expected sequence 0x13, got 0x%02x", frame[MessagePositionSeq])
	}
	if frame[len(frame)-1] != MessageValueSync {
		t.Errorf("Frame does not end with sync byte: %v", frame)
	}

	crc := CRC16(frame[:len(frame)-MessageTrailerSize])
	if frame[len(frame)-3] != byte(crc>>8) || frame[len(frame)-2] != byte(crc) {
		t.Errorf("CRC trailer mismatch in %v", frame)
	}
}

func TestFrameDecoderRoundTrip(t *testing.T) {
	var stream []byte
	stream = append(stream, buildFrame(0, 10, 20)...)
	stream = append(stream, buildFrame(1, 1000000)...)

	dec := NewFrameDecoder()
	frames := dec.Feed(stream)
	if len(frames) != 2 {
		t.Fatalf("Expected 2 frames, got %d", len(frames))
	}

	if got := decodeValues(t, frames[0].Payload); len(got) != 2 || got[0] != 10 || got[1] != 20 {
		t.Errorf("Frame 0 payload mismatch: %v", got)
	}
	if got := decodeValues(t, frames[1].Payload); len(got) != 1 || got[0] != 1000000 {
		t.Errorf("Frame 1 payload mismatch: %v", got)
	}
	if frames[1].Sequence != MessageDest|1 {
		t.Errorf("Expected sequence 0x11, got 0x%02x", frames[1].Sequence)
	}
}

func TestFrameDecoderSplitInput(t *testing.T) {
	frame := buildFrame(5, 42)
	dec := NewFrameDecoder()

	var frames []Frame
	for i := range frame {
		frames = append(frames, dec.Feed(frame[i:i+1])...)
	}

	if len(frames) != 1 {
		t.Fatalf("Expected 1 frame from byte-at-a-time input, got %d", len(frames))
	}
	if got := decodeValues(t, frames[0].Payload); got[0] != 42 {
		t.Errorf("Payload mismatch: %v", got)
	}
}

func TestFrameDecoderResyncAfterCorruption(t *testing.T) {
	bad := buildFrame(0, 7, 8, 9)
	bad[3] ^= 0x01 // break the CRC

	var stream []byte
	stream = append(stream, 0x01, 0x02, 0x03) // line noise
	stream = append(stream, MessageValueSync)
	stream = append(stream, bad...)
	stream = append(stream, buildFrame(1, 99)...)

	dec := NewFrameDecoder()
	frames := dec.Feed(stream)

	if len(frames) != 1 {
		t.Fatalf("Expected only the intact frame, got %d frames", len(frames))
	}
	if got := decodeValues(t, frames[0].Payload); got[0] != 99 {
		t.Errorf("Payload mismatch: %v", got)
	}
	if dec.Dropped == 0 {
		t.Error("Expected corrupted input to be counted as dropped")
	}
}

func TestFrameDecoderLargeStream(t *testing.T) {
	var stream bytes.Buffer
	for i := 0; i < 100; i++ {
		stream.Write(buildFrame(uint8(i), uint32(i)))
	}

	dec := NewFrameDecoder()
	frames := dec.Feed(stream.Bytes())
	if len(frames) != 100 {
		t.Fatalf("Expected 100 frames, got %d", len(frames))
	}
	for i, f := range frames {
		if got := decodeValues(t, f.Payload); got[0] != uint32(i) {
			t.Errorf("Frame %d payload mismatch: %v", i, got)
		}
	}
}

func TestNextSequenceWraps(t *testing.T) {
	if got := NextSequence(MessageDest | 0x0F); got != MessageDest {
		t.Errorf("Expected wrap to 0x10, got 0x%02x", got)
	}
}
