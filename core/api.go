package core

// Process-wide timer API. Each board has one timer peripheral driving the
// subsystem, so firmware initializes a single default scheduler and its
// interrupt vector calls TimerDispatch.

var defaultScheduler *Scheduler

// TimerInit creates the process-wide scheduler on hw. It must be called
// exactly once, before any TimerStart.
func TimerInit(hw HardwareClock, cfg Config) (*Scheduler, error) {
	if defaultScheduler != nil {
		return nil, ErrAlreadyInitialized
	}
	defaultScheduler = NewScheduler(hw, cfg)
	return defaultScheduler, nil
}

// DefaultScheduler returns the scheduler created by TimerInit, or nil.
func DefaultScheduler() *Scheduler {
	return defaultScheduler
}

// TimerStart arms a one-shot timer on the default scheduler.
func TimerStart(delay uint64, callback func()) (TimerID, error) {
	if defaultScheduler == nil {
		return 0, ErrNotInitialized
	}
	return defaultScheduler.Start(delay, callback)
}

// TimerStartRepeated arms a repeating timer on the default scheduler.
func TimerStartRepeated(period uint64, callback func()) (TimerID, error) {
	if defaultScheduler == nil {
		return 0, ErrNotInitialized
	}
	return defaultScheduler.StartRepeated(period, callback)
}

// TimerCancel cancels a timer on the default scheduler.
func TimerCancel(id TimerID) {
	if defaultScheduler == nil {
		return
	}
	defaultScheduler.Cancel(id)
}

// TimerDispatch is the interrupt entry point for firmware targets.
func TimerDispatch() {
	if defaultScheduler == nil {
		return
	}
	defaultScheduler.HandleInterrupt()
}
