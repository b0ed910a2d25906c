package hint

import (
	"fmt"
	"log/slog"
)

const (
	// DefaultLogCapacity is the number of ranges a shard log holds before it
	// migrates into the candidate list.
	DefaultLogCapacity = 1000

	// DefaultListCapacity is the number of merged ranges the candidate list holds.
	DefaultListCapacity = 1000

	// DefaultThreshold is the occupied count at which the candidate list is
	// handed to the transport.
	DefaultThreshold = 500
)

// Config controls engine sizing and behavior.
type Config struct {
	// LogCapacity is the fixed capacity of each shard's free log.
	LogCapacity int

	// ListCapacity is the fixed capacity of the global candidate list.
	ListCapacity int

	// Threshold is the occupied count that triggers a dispatch.
	// Must satisfy 1 <= Threshold <= ListCapacity.
	Threshold int

	// Shards is the number of per-CPU logs. Zero selects the number of CPUs
	// this process may run on.
	Shards int

	// Enabled is the initial state of the feature gate.
	Enabled bool

	// Logger receives debug output for migrations and dispatches. If nil,
	// the package logger from internal/logger is used.
	Logger *slog.Logger
}

// DefaultConfig returns the stock sizing with hinting enabled.
func DefaultConfig() Config {
	return Config{
		LogCapacity:  DefaultLogCapacity,
		ListCapacity: DefaultListCapacity,
		Threshold:    DefaultThreshold,
		Enabled:      true,
	}
}

// Validate checks sizing constraints.
func (c Config) Validate() error {
	switch {
	case c.LogCapacity < 1:
		return fmt.Errorf("%w: LogCapacity %d < 1", ErrBadConfig, c.LogCapacity)
	case c.ListCapacity < 1:
		return fmt.Errorf("%w: ListCapacity %d < 1", ErrBadConfig, c.ListCapacity)
	case c.Threshold < 1 || c.Threshold > c.ListCapacity:
		return fmt.Errorf("%w: Threshold %d outside [1, %d]", ErrBadConfig, c.Threshold, c.ListCapacity)
	case c.Shards < 0:
		return fmt.Errorf("%w: Shards %d < 0", ErrBadConfig, c.Shards)
	}
	return nil
}
