//go:build rp2040

package pio

// PIO fire strobe using tinygo-org/pio package
// Each timer firing pushes one word; the state machine emits that many
// pulses on a single pin, so a logic analyser shows which timer fired.

import (
	"machine"
	"sync/atomic"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"

	"vtimer/core"
)

// buildStrobeProgram creates the strobe PIO program using AssemblerV0
// Command word: pulse count minus one in the low 8 bits
func buildStrobeProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),        // 0: pull block
		asm.Out(rp2pio.OutDestX, 8).Encode(),  // 1: out x, 8 (pulses - 1)
		// pulse_loop:
		asm.Set(rp2pio.SetDestPins, 1).Delay(7).Encode(), // 2: set pins, 1 [7]
		asm.Set(rp2pio.SetDestPins, 0).Delay(7).Encode(), // 3: set pins, 0 [7]
		asm.Jmp(2, rp2pio.JmpXNZeroDec).Encode(),         // 4: jmp x--, 2
		// .wrap
	}
}

const strobePIOOrigin = 0 // Load at offset 0 for correct jump addresses

// FireStrobe emits a pulse burst per timer firing
type FireStrobe struct {
	pio     *rp2pio.PIO
	sm      rp2pio.StateMachine
	pin     machine.Pin
	ready   bool
	dropped atomic.Uint32
}

// NewFireStrobe creates a strobe on the given PIO block and state machine
// pioNum: 0 for PIO0, 1 for PIO1
func NewFireStrobe(pioNum, smNum uint8) *FireStrobe {
	pioHW := rp2pio.PIO0
	if pioNum != 0 {
		pioHW = rp2pio.PIO1
	}
	return &FireStrobe{
		pio: pioHW,
		sm:  pioHW.StateMachine(smNum),
	}
}

// Init loads the program and starts the state machine on pin
func (s *FireStrobe) Init(pin uint8) error {
	s.pin = machine.Pin(pin)
	s.sm.TryClaim()

	program := buildStrobeProgram()
	offset, err := s.pio.AddProgram(program, strobePIOOrigin)
	if err != nil {
		return err
	}

	s.pin.Configure(machine.PinConfig{Mode: s.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(s.pin, 1)
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	// ~1 MHz pulses at 125 MHz system clock
	cfg.SetClkDivIntFrac(8, 0)

	s.sm.Init(offset, cfg)
	s.sm.SetPindirsConsecutive(s.pin, 1, true)
	s.sm.SetPinsConsecutive(s.pin, 1, false)
	s.sm.SetEnabled(true)

	s.ready = true
	return nil
}

// Fire queues a burst for id. It runs from the timer interrupt, so it
// never waits: a full TX FIFO drops the burst.
func (s *FireStrobe) Fire(id core.TimerID) {
	if !s.ready {
		return
	}
	if s.sm.IsTxFIFOFull() {
		s.dropped.Add(1)
		return
	}
	s.sm.TxPut(StrobePulses(id) - 1)
}

// Dropped returns how many bursts were skipped on a full FIFO
func (s *FireStrobe) Dropped() uint32 {
	return s.dropped.Load()
}
