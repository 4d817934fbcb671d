package link

import (
	"errors"
	"fmt"
	"io/fs"

	"go.bug.st/serial"
)

// ErrReadTimeoutFixed is returned by SetReadTimeout when the driver can only
// apply a read timeout at open time.
var ErrReadTimeoutFixed = errors.New("read timeout cannot be changed on an open port")

// Reason classifies why a port could not be opened.
type Reason string

const (
	ReasonNotFound         Reason = "port not found"
	ReasonBusy             Reason = "port busy"
	ReasonPermissionDenied Reason = "permission denied"
	ReasonInvalidPort      Reason = "invalid port"
	ReasonUnknown          Reason = "open failed"
)

// ConnectionError indicates that the serial port could not be opened.
type ConnectionError struct {
	Port   string
	Reason Reason
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("serial port %q is not valid (%s): %v", e.Port, e.Reason, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsConnectionError returns true if err is or wraps a ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// classify maps driver specific open errors to a Reason.
func classify(err error) Reason {
	var pe *serial.PortError
	if errors.As(err, &pe) {
		switch pe.Code() {
		case serial.PortNotFound:
			return ReasonNotFound
		case serial.PortBusy:
			return ReasonBusy
		case serial.PermissionDenied:
			return ReasonPermissionDenied
		case serial.InvalidSerialPort:
			return ReasonInvalidPort
		}
		return ReasonUnknown
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ReasonNotFound
	case errors.Is(err, fs.ErrPermission):
		return ReasonPermissionDenied
	}
	return ReasonUnknown
}
