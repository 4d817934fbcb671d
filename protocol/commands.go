package protocol

import "fmt"

// BuildWriteCmd constructs a Write command header.
//
// Header structure:
//
//	['W'][' '][COUNT(4 hex)][' '][OFFSET(4 hex)]['\n']
//
// Returns the header ready to send, or an error if the window is inverted.
func BuildWriteCmd(count, offset uint16) ([]byte, error) {
	return BuildCommand(Request{Direction: Write, Count: count, Offset: offset})
}

// BuildReadCmd constructs a Read command header.
//
// Header structure:
//
//	['R'][' '][COUNT(4 hex)][' '][OFFSET(4 hex)][' ']['\n']
//
// The trailing space is part of the firmware's expected framing.
func BuildReadCmd(count, offset uint16) ([]byte, error) {
	return BuildCommand(Request{Direction: Read, Count: count, Offset: offset})
}

// BuildCommand constructs the command header for an arbitrary request.
func BuildCommand(req Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	size := WriteHeaderSize
	if req.Direction == Read {
		size = ReadHeaderSize
	}

	header := make([]byte, 0, size)
	header = append(header, req.Direction.Tag(), FieldSeparator)
	header = appendField(header, req.Count)
	header = append(header, FieldSeparator)
	header = appendField(header, req.Offset)

	if req.Direction == Read {
		header = append(header, FieldSeparator)
	}
	header = append(header, Terminator)

	return header, nil
}

// appendField appends v as FieldDigits zero-padded lower-case hex digits.
func appendField(dst []byte, v uint16) []byte {
	return fmt.Appendf(dst, "%0*x", FieldDigits, v)
}
