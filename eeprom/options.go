package eeprom

import (
	"time"

	"github.com/moffa90/go-meepromer/protocol"
)

// Config holds the programmer configuration.
type Config struct {
	// ProgressCallback is called during transfers to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// ReadyAttempts bounds how many bytes are read while waiting for the
	// device ready marker
	ReadyAttempts int

	// ReadyTimeout bounds the wall clock time spent waiting for the ready marker
	ReadyTimeout time.Duration

	// DumpSettleDelay is an optional pause between receiving a dump and
	// writing it out. Default is 0.
	DumpSettleDelay time.Duration

	// ChunkSize is the maximum payload size per device write.
	// Default is protocol.StreamChunkBytes.
	ChunkSize int
}

// Defaults for the ready handshake.
const (
	DefaultReadyAttempts = 50
	DefaultReadyTimeout  = 10 * time.Second
)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		ReadyAttempts: DefaultReadyAttempts,
		ReadyTimeout:  DefaultReadyTimeout,
		ChunkSize:     protocol.StreamChunkBytes,
	}
}

// Option is a functional option for configuring the Programmer.
type Option func(*Config)

// WithProgressCallback sets a callback function to track transfer progress.
//
// Example:
//
//	prog := eeprom.New(dev,
//	    eeprom.WithProgressCallback(func(p eeprom.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the programmer operations.
//
// Example:
//
//	prog := eeprom.New(dev, eeprom.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithReadyAttempts sets how many reads may be spent waiting for the ready marker.
// Non-positive values are ignored.
//
// Example:
//
//	prog := eeprom.New(dev, eeprom.WithReadyAttempts(100))
func WithReadyAttempts(attempts int) Option {
	return func(c *Config) {
		if attempts > 0 {
			c.ReadyAttempts = attempts
		}
	}
}

// WithReadyTimeout sets the total time budget for the ready handshake.
// Non-positive values are ignored.
//
// Example:
//
//	prog := eeprom.New(dev, eeprom.WithReadyTimeout(30*time.Second))
func WithReadyTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.ReadyTimeout = timeout
		}
	}
}

// WithDumpSettleDelay sets a pause between receiving a dump and writing it out.
//
// Example:
//
//	prog := eeprom.New(dev, eeprom.WithDumpSettleDelay(100*time.Millisecond))
func WithDumpSettleDelay(delay time.Duration) Option {
	return func(c *Config) {
		if delay >= 0 {
			c.DumpSettleDelay = delay
		}
	}
}

// WithChunkSize sets the maximum payload size per device write.
// Sizes above protocol.StreamChunkBytes are ignored.
//
// Example:
//
//	prog := eeprom.New(dev, eeprom.WithChunkSize(256))
func WithChunkSize(size int) Option {
	return func(c *Config) {
		if size > 0 && size <= protocol.StreamChunkBytes {
			c.ChunkSize = size
		}
	}
}
