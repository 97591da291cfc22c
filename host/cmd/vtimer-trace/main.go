package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"vtimer/core"
	"vtimer/host/serial"
	"vtimer/host/trace"
)

var (
	captureOpts = struct {
		device   string
		baud     int
		duration time.Duration
		quiet    bool
	}{}

	rootCmd = &cobra.Command{
		Use:   "vtimer-trace",
		Short: "Capture virtual timer events from a board",
		Long:  "Read timing frames exported by the firmware over serial, print them and summarise firing latency.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return capture()
		},
	}
)

func init() {
	rootCmd.Flags().StringVarP(&captureOpts.device, "device", "d", "/dev/ttyACM0", "Serial device path")
	rootCmd.Flags().IntVarP(&captureOpts.baud, "baud", "b", serial.DefaultBaud, "Baud rate")
	rootCmd.Flags().DurationVarP(&captureOpts.duration, "duration", "t", 0, "Stop after this long (0 = until interrupted)")
	rootCmd.Flags().BoolVarP(&captureOpts.quiet, "quiet", "q", false, "Only print the summary")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func capture() error {
	cfg := serial.DefaultConfig(captureOpts.device)
	cfg.Baud = captureOpts.baud

	var latency trace.LatencyRecorder
	handler := func(evt core.TimingEvent) {
		latency.Observe(evt)
		if !captureOpts.quiet {
			fmt.Printf("%-13s id=%-4d clock=%-12d deadline=%d\n",
				core.EventName(evt.EventType), evt.ID, evt.Clock, evt.Deadline)
		}
	}

	fmt.Printf("Capturing from %s at %d baud...\n", cfg.Device, cfg.Baud)
	monitor, err := trace.Open(cfg, handler, func(err error) {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	})
	if err != nil {
		return err
	}

	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)
	defer signal.Stop(interrupted)

	var timeout <-chan time.Time
	if captureOpts.duration > 0 {
		timeout = time.After(captureOpts.duration)
	}

	select {
	case <-interrupted:
	case <-timeout:
	case <-monitor.Done():
		fmt.Println("Port closed")
	}

	if err := monitor.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: close: %v\n", err)
	}

	printSummary(monitor.Stats(), latency.Summary())
	return nil
}

func printSummary(stats trace.Stats, lat trace.LatencySummary) {
	fmt.Println()
	fmt.Printf("Frames: %d  Events: %d  Decode errors: %d  Resyncs: %d  Sequence gaps: %d\n",
		stats.Frames, stats.Events, stats.DecodeErrors, stats.Dropped, stats.SequenceGaps)

	if lat.Count == 0 {
		fmt.Println("No firings captured")
		return
	}
	fmt.Printf("Firings: %d  latency ticks mean=%.1f stddev=%.1f p50=%.0f p99=%.0f max=%.0f\n",
		lat.Count, lat.Mean, lat.StdDev, lat.P50, lat.P99, lat.Max)
}
