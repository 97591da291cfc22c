// Package protocol frames timer trace records for transport over a serial
// link. Frames use the Klipper block layout: a length byte, a sequence byte,
// a VLQ payload, a CRC16 and a trailing sync byte.
package protocol

// Frame layout constants
const (
	MessageHeaderSize  = 2 // length, sequence
	MessageTrailerSize = 3 // crc hi, crc lo, sync
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10

	// Message sequence masks
	MessageSeqMask = 0x0F

	// MessageMax is the scratch space needed for one frame
	MessageMax = MessageLengthMax
)

// Frame is a decoded message block
type Frame struct {
	Sequence uint8
	Payload  []byte
}
