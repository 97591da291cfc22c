//go:build nrf52833

// Demo firmware for the micro:bit v2. All periodic work is driven by
// virtual timers on TIMER4: the interrupt side only raises flags, and the
// main loop does the I2C and display work.
package main

import (
	"image/color"
	"machine"
	"sync/atomic"

	"tinygo.org/x/drivers/lsm303agr"
	"tinygo.org/x/drivers/microbitmatrix"

	"vtimer/core"
)

const (
	refreshPeriodUS = 4000    // display scan
	samplePeriodUS  = 50000   // accelerometer
	exportPeriodUS  = 2000000 // timing ring to UART
	heartbeatUS     = 1000000

	// Tilt beyond this many milli-g moves the dot one column or row
	tiltStep = 250
)

var (
	refreshDue atomic.Bool
	sampleDue  atomic.Bool
	exportDue  atomic.Bool
	heartbeats atomic.Uint32

	pixelOn  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	pixelOff = color.RGBA{}
)

func main() {
	machine.Serial.Configure(machine.UARTConfig{BaudRate: 115200})
	core.SetDebugWriter(func(msg string) {
		machine.Serial.Write([]byte(msg))
		machine.Serial.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)
	core.InitAsyncDebug()

	sched, err := core.TimerInit(InitClock(), core.DefaultConfig())
	if err != nil {
		core.DebugPrintln("timer init failed: " + err.Error())
		return
	}

	machine.I2C0.Configure(machine.I2CConfig{})
	accel := lsm303agr.New(machine.I2C0)
	if err := accel.Configure(lsm303agr.Configuration{}); err != nil {
		core.DebugPrintln("lsm303agr: " + err.Error())
	}

	display := microbitmatrix.New()
	display.Configure(microbitmatrix.Config{})
	display.ClearDisplay()

	startRepeated(sched, refreshPeriodUS, func() { refreshDue.Store(true) })
	startRepeated(sched, samplePeriodUS, func() { sampleDue.Store(true) })
	startRepeated(sched, exportPeriodUS, func() { exportDue.Store(true) })
	startRepeated(sched, heartbeatUS, func() { heartbeats.Add(1) })

	var seq uint8 = 0x10
	dotX, dotY := int16(2), int16(2)

	for {
		if sampleDue.Swap(false) {
			x, y, _, err := accel.ReadAcceleration()
			if err == nil {
				nx, ny := tiltToPixel(x, y)
				if nx != dotX || ny != dotY {
					display.SetPixel(dotX, dotY, pixelOff)
					dotX, dotY = nx, ny
				}
				display.SetPixel(dotX, dotY, pixelOn)
			}
		}

		if refreshDue.Swap(false) {
			display.Display()
		}

		if exportDue.Swap(false) {
			core.DebugPrintln("[VTIMER] armed=" + core.FormatUint(uint64(sched.Len())) +
				" beats=" + core.FormatUint(uint64(heartbeats.Load())))
			seq = sched.ExportTiming(seq, func(frame []byte) {
				machine.Serial.Write(frame)
			})
			sched.ClearTiming()
		}
	}
}

func startRepeated(sched *core.Scheduler, periodUS uint64, cb func()) {
	if _, err := sched.StartRepeated(sched.TicksFromMicros(periodUS), cb); err != nil {
		core.DebugPrintln("timer start failed: " + err.Error())
	}
}

// tiltToPixel maps acceleration in micro-g to a 5x5 matrix position
func tiltToPixel(x, y int32) (int16, int16) {
	return clampPixel(2 + x/(tiltStep*1000)), clampPixel(2 + y/(tiltStep*1000))
}

func clampPixel(v int32) int16 {
	if v < 0 {
		return 0
	}
	if v > 4 {
		return 4
	}
	return int16(v)
}
