package protocol

import (
	"bytes"
	"strconv"
)

// ParseCommand decodes a command header produced by BuildCommand.
// Validates the tag, separators, hex fields and terminator.
//
// Returns the decoded request, or a *HeaderError describing the first
// violation found.
func ParseCommand(header []byte) (Request, error) {
	if len(header) < WriteHeaderSize {
		return Request{}, &HeaderError{Header: header, Reason: "header too short"}
	}

	var req Request
	switch header[0] {
	case TagWrite:
		req.Direction = Write
	case TagRead:
		req.Direction = Read
	default:
		return Request{}, &HeaderError{Header: header, Reason: "unknown direction tag"}
	}

	wantLen := WriteHeaderSize
	if req.Direction == Read {
		wantLen = ReadHeaderSize
	}
	if len(header) != wantLen {
		return Request{}, &HeaderError{Header: header, Reason: "unexpected header length"}
	}

	if header[1] != FieldSeparator || header[2+FieldDigits] != FieldSeparator {
		return Request{}, &HeaderError{Header: header, Reason: "missing field separator"}
	}
	if req.Direction == Read && header[wantLen-2] != FieldSeparator {
		return Request{}, &HeaderError{Header: header, Reason: "missing trailing separator"}
	}
	if header[wantLen-1] != Terminator {
		return Request{}, &HeaderError{Header: header, Reason: "missing terminator"}
	}

	count, err := parseField(header[2 : 2+FieldDigits])
	if err != nil {
		return Request{}, &HeaderError{Header: header, Reason: "invalid count field"}
	}
	offsetStart := 3 + FieldDigits
	offset, err := parseField(header[offsetStart : offsetStart+FieldDigits])
	if err != nil {
		return Request{}, &HeaderError{Header: header, Reason: "invalid offset field"}
	}

	req.Count = count
	req.Offset = offset
	return req, nil
}

// SplitHeader returns the first command header contained in buf and the
// remaining bytes. ok is false if buf does not hold a complete header yet.
func SplitHeader(buf []byte) (header, rest []byte, ok bool) {
	i := bytes.IndexByte(buf, Terminator)
	if i < 0 {
		return nil, buf, false
	}
	return buf[:i+1], buf[i+1:], true
}

func parseField(field []byte) (uint16, error) {
	v, err := strconv.ParseUint(string(field), 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}
