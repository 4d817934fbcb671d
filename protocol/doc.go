// Package protocol implements the wire contract of the Meepromer EEPROM programmer.
//
// This package provides functions to build and parse command headers and the
// constants shared by the host and the device firmware.
//
// # Protocol Overview
//
// Every transfer starts with a fixed-width ASCII command header:
//
//	Write: "W <COUNT> <OFFSET>\n"
//	Read:  "R <COUNT> <OFFSET> \n"
//
// Where:
//   - COUNT  = window end, in kilobyte units, as 4 lower-case hex digits
//   - OFFSET = window start, in kilobyte units, as 4 lower-case hex digits
//
// The read header carries a trailing space before the newline. Existing device
// firmware expects exactly these bytes, so the asymmetry is preserved.
//
// After a write header the device answers with the ReadyMarker ('-') once it
// can accept data. The host then sends the StartMarker ('~') followed by
// (COUNT-OFFSET)*UnitSizeBytes raw bytes. After a read header the device streams
// the same amount of raw bytes back without any handshake.
//
// # Command Builders
//
// Use the Build* functions to create command headers:
//
//	header, err := protocol.BuildWriteCmd(64, 0) // "W 0040 0000\n"
//	header, err := protocol.BuildReadCmd(64, 0)  // "R 0040 0000 \n"
//
// # Parsing
//
// ParseCommand is the inverse of the builders and is what a device simulator
// uses to decode incoming headers:
//
//	req, err := protocol.ParseCommand([]byte("W 0040 0000\n"))
package protocol
