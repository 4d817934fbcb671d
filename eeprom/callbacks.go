package eeprom

import (
	"time"

	"github.com/moffa90/go-meepromer/protocol"
)

// Transfer phases reported through Progress.Phase.
const (
	PhaseHeader    = "header"
	PhaseReady     = "awaiting-ready"
	PhaseStreaming = "streaming"
	PhaseReceiving = "receiving"
	PhaseComplete  = "complete"
)

// Progress contains information about the transfer progress.
// Passed to ProgressCallback during Write and Dump.
type Progress struct {
	// Phase describes the current operation phase:
	//   "header"         - Command header being sent
	//   "awaiting-ready" - Waiting for the device ready marker (write only)
	//   "streaming"      - Sending payload chunks (write only)
	//   "receiving"      - Receiving payload bytes (dump only)
	//   "complete"       - Operation completed successfully
	Phase string

	// Direction is the transfer direction
	Direction protocol.Direction

	// Bytes is the number of payload bytes transferred so far
	Bytes int

	// TotalBytes is the payload size of the whole window
	TotalBytes int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// ElapsedTime is the time elapsed since the operation started
	ElapsedTime time.Duration
}

// ProgressCallback is called during transfers to report progress.
// Implementations should return quickly to avoid stalling the serial link.
//
// Example:
//
//	prog := eeprom.New(dev,
//	    eeprom.WithProgressCallback(func(p eeprom.Progress) {
//	        fmt.Printf("[%s] %.1f%% - %d/%d bytes\n",
//	            p.Phase, p.Percentage, p.Bytes, p.TotalBytes)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the programmer.
// This allows integration with any logging framework.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	prog := eeprom.New(dev, eeprom.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

// percentOf returns done/total as a percentage; an empty window is 100%.
func percentOf(done, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(done) / float64(total) * 100
}
