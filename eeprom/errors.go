package eeprom

import (
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-meepromer/protocol"
)

// Sentinel errors matched by the typed errors below through errors.Is.
var (
	// ErrTransferIncomplete is matched by *TransferIncompleteError
	ErrTransferIncomplete = errors.New("transfer incomplete")

	// ErrProtocolTimeout is matched by *ProtocolTimeoutError
	ErrProtocolTimeout = errors.New("device not ready")
)

// FileError indicates that a local file could not be opened or written.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file %q cannot be opened for %s, verify it is not in use: %v", e.Path, e.Op, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// TransferIncompleteError indicates that fewer payload bytes crossed the
// link than the request asked for.
type TransferIncompleteError struct {
	Direction   protocol.Direction
	Transferred int
	Expected    int

	// Err is the underlying cause, nil when the link timed out
	Err error
}

func (e *TransferIncompleteError) Error() string {
	msg := fmt.Sprintf("%s incomplete: transferred %d of %d bytes", e.Direction, e.Transferred, e.Expected)
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg + ": link timed out"
}

func (e *TransferIncompleteError) Unwrap() error {
	return e.Err
}

func (e *TransferIncompleteError) Is(target error) bool {
	return target == ErrTransferIncomplete
}

// ProtocolTimeoutError indicates that the device never sent the ready marker.
type ProtocolTimeoutError struct {
	Attempts int
	Elapsed  time.Duration
}

func (e *ProtocolTimeoutError) Error() string {
	return fmt.Sprintf("device did not signal ready (%q) after %d attempts in %s",
		protocol.ReadyMarker, e.Attempts, e.Elapsed.Round(time.Millisecond))
}

func (e *ProtocolTimeoutError) Is(target error) bool {
	return target == ErrProtocolTimeout
}
