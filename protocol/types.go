package protocol

// Direction selects which way payload bytes flow.
type Direction int

const (
	// Write transfers bytes from the host into the EEPROM
	Write Direction = iota

	// Read transfers bytes from the EEPROM to the host
	Read
)

// String returns "write" or "read".
func (d Direction) String() string {
	switch d {
	case Write:
		return "write"
	case Read:
		return "read"
	default:
		return "unknown"
	}
}

// Tag returns the header tag byte for the direction.
func (d Direction) Tag() byte {
	if d == Read {
		return TagRead
	}
	return TagWrite
}

// Request describes a transfer window in kilobyte units.
//
// The device transfers the units in [Offset, Count), so the effective length
// is Count-Offset units.
type Request struct {
	// Direction of the transfer
	Direction Direction

	// Count is the window end in kilobyte units
	Count uint16

	// Offset is the window start in kilobyte units
	Offset uint16
}

// Validate checks that the window is not inverted.
func (r Request) Validate() error {
	if r.Direction != Write && r.Direction != Read {
		return &RequestError{Request: r, Reason: "unknown direction"}
	}
	if r.Offset > r.Count {
		return &RequestError{Request: r, Reason: "offset exceeds byte count"}
	}
	return nil
}

// Units returns the effective transfer length in kilobyte units.
// Callers must Validate first; an inverted window returns 0.
func (r Request) Units() int {
	if r.Offset > r.Count {
		return 0
	}
	return int(r.Count) - int(r.Offset)
}

// Bytes returns the effective transfer length in bytes.
func (r Request) Bytes() int {
	return r.Units() * UnitSizeBytes
}

// Chunks returns how many device writes of at most StreamChunkBytes
// are needed to stream the window.
func (r Request) Chunks() int {
	return (r.Bytes() + StreamChunkBytes - 1) / StreamChunkBytes
}
