package protocol

// CRC16 calculates the CRC16-CCITT checksum used by Klipper message blocks
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b ^= uint8(crc & 0xFF)
		b ^= b << 4
		b16 := uint16(b)
		crc = (b16<<8 | crc>>8) ^ (b16 >> 4) ^ (b16 << 3)
	}
	return crc
}

// NextSequence returns the sequence byte following seq
func NextSequence(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}

// EncodeFrame writes one message block to output. The payload callback
// writes the frame body; the length byte and CRC are filled in afterwards.
func EncodeFrame(output OutputBuffer, seq uint8, payload func(output OutputBuffer)) {
	cursor := output.CurPosition()

	// Length placeholder and sequence
	output.Output([]byte{0, (seq & MessageSeqMask) | MessageDest})

	if payload != nil {
		payload(output)
	}

	changed := len(output.DataSince(cursor))
	output.Update(cursor, uint8(changed+MessageTrailerSize))

	crc := CRC16(output.DataSince(cursor))
	output.Output([]byte{
		uint8((crc & 0xFF00) >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})
}

// FrameDecoder reassembles frames from a byte stream. Corrupt or truncated
// blocks are discarded and the decoder resynchronizes on the next sync byte.
type FrameDecoder struct {
	input        *FifoBuffer
	synchronized bool

	// Dropped counts desynchronization events
	Dropped uint32
}

// NewFrameDecoder creates a decoder with room for several frames in flight
func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{
		input:        NewFifoBuffer(8 * MessageLengthMax),
		synchronized: true,
	}
}

// Feed consumes data and returns every complete frame it finished
func (d *FrameDecoder) Feed(data []byte) []Frame {
	var frames []Frame
	for len(data) > 0 {
		n := d.input.Write(data)
		data = data[n:]
		frames = d.process(frames)

		if n == 0 && d.input.Free() == 0 {
			// Nothing parseable in a full buffer
			d.input.Reset()
			d.desync()
		}
	}
	return frames
}

// Reset discards buffered input
func (d *FrameDecoder) Reset() {
	d.input.Reset()
	d.synchronized = true
}

func (d *FrameDecoder) desync() {
	d.synchronized = false
	d.Dropped++
}

func (d *FrameDecoder) process(frames []Frame) []Frame {
	data := d.input.Data()

	for len(data) > 0 {
		if !d.synchronized {
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}

			if syncPos >= 0 {
				data = data[syncPos+1:]
				d.synchronized = true
			} else {
				data = nil
			}
			continue
		}

		// Skip leading sync bytes
		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			d.desync()
			continue
		}

		seq := data[MessagePositionSeq]
		if seq&^MessageSeqMask != MessageDest {
			d.desync()
			continue
		}

		// Wait for full message
		if len(data) < msgLen {
			break
		}

		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			d.desync()
			continue
		}

		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			d.desync()
			continue
		}

		payload := make([]byte, msgLen-MessageLengthMin)
		copy(payload, data[MessageHeaderSize:msgLen-MessageTrailerSize])
		frames = append(frames, Frame{Sequence: seq, Payload: payload})

		data = data[msgLen:]
	}

	consumed := d.input.Available() - len(data)
	if consumed > 0 {
		d.input.Pop(consumed)
	}
	return frames
}
