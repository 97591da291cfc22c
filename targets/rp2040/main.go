//go:build rp2040

// Demo firmware for the Raspberry Pi Pico: a blinking LED and a PIO
// strobe that pulses once per timer firing, all on virtual timers.
package main

import (
	"machine"
	"sync/atomic"

	"vtimer/core"
	"vtimer/targets/pio"
)

const (
	blinkPeriodUS  = 500000
	burstPeriodUS  = 1000
	reportPeriodUS = 5000000

	strobePin = machine.GPIO15
)

var (
	reportDue atomic.Bool
	ledOn     bool
)

func main() {
	machine.Serial.Configure(machine.UARTConfig{BaudRate: 115200})
	core.SetDebugWriter(func(msg string) {
		machine.Serial.Write([]byte(msg))
		machine.Serial.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)
	core.InitAsyncDebug()

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	sched, err := core.TimerInit(InitClock(), core.DefaultConfig())
	if err != nil {
		core.DebugPrintln("timer init failed: " + err.Error())
		return
	}

	strobe := pio.NewFireStrobe(0, 0)
	if err := strobe.Init(uint8(strobePin)); err != nil {
		core.DebugPrintln("pio strobe: " + err.Error())
	} else {
		sched.SetFireHook(strobe.Fire)
	}

	start(sched.StartRepeated(sched.TicksFromMicros(blinkPeriodUS), func() {
		ledOn = !ledOn
		led.Set(ledOn)
	}))
	start(sched.StartRepeated(sched.TicksFromMicros(reportPeriodUS), func() {
		reportDue.Store(true)
	}))

	// A one-shot that keeps re-arming itself with a growing delay
	var delay uint64 = burstPeriodUS
	var chain func()
	chain = func() {
		delay *= 2
		if delay > reportPeriodUS {
			delay = burstPeriodUS
		}
		start(sched.Start(sched.TicksFromMicros(delay), chain))
	}
	start(sched.Start(sched.TicksFromMicros(delay), chain))

	var seq uint8 = 0x10
	for {
		if reportDue.Swap(false) {
			st := sched.Stats()
			core.DebugPrintln("[VTIMER] fired=" + core.FormatUint(uint64(st.Fired)) +
				" rearmed=" + core.FormatUint(uint64(st.Rearmed)) +
				" late=" + core.FormatUint(uint64(st.LateRechecks)) +
				" strobe_drops=" + core.FormatUint(uint64(strobe.Dropped())))
			seq = sched.ExportTiming(seq, func(frame []byte) {
				machine.Serial.Write(frame)
			})
			sched.ClearTiming()
		}
	}
}

func start(_ core.TimerID, err error) {
	if err != nil {
		core.DebugPrintln("timer start failed: " + err.Error())
	}
}
