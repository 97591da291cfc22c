package core

// Config holds the scheduler tunables.
type Config struct {
	// Capacity is the maximum number of armed timers. UnlimitedTimers lets
	// the list grow; zero selects the default.
	Capacity int

	// MaxBurst bounds the number of callbacks a single interrupt runs before
	// it re-pends itself and yields.
	MaxBurst int

	// Frequency is the hardware clock rate in Hz.
	Frequency uint32
}

// Defaults
const (
	DefaultCapacity = 32
	DefaultMaxBurst = 16
)

// DefaultConfig returns the configuration used by the reference targets.
func DefaultConfig() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(cfg *Config) {
	if cfg.Capacity == 0 || cfg.Capacity < UnlimitedTimers {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.MaxBurst <= 0 {
		cfg.MaxBurst = DefaultMaxBurst
	}
	if cfg.Frequency == 0 {
		cfg.Frequency = DefaultTimerFreq
	}
}
