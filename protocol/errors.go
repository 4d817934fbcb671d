package protocol

import "fmt"

// RequestError reports a transfer window the device cannot serve.
type RequestError struct {
	// Request is the rejected request
	Request Request

	// Reason describes what is wrong with it
	Reason string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("invalid %s request (count=%d, offset=%d): %s",
		e.Request.Direction, e.Request.Count, e.Request.Offset, e.Reason)
}

// HeaderError indicates a command header that does not follow the wire format.
type HeaderError struct {
	// Header is the raw header that failed to parse
	Header []byte

	// Reason describes the violation
	Reason string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("malformed command header %q: %s", e.Header, e.Reason)
}

// IsHeaderError returns true if the error is a HeaderError.
func IsHeaderError(err error) bool {
	_, ok := err.(*HeaderError)
	return ok
}
