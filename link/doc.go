// Package link owns the serial connection to a Meepromer programmer board.
//
// # Overview
//
// The board resets whenever its serial port is opened and ignores traffic
// until the reset completes, so opening a link is a two step operation:
//   - Open the port at the configured baud rate and read timeout
//   - Wait Config.SettleDelay (2 seconds by default) before any I/O
//
// Closing a link discards both the input and the output buffers before the
// handle is released.
//
// # Basic Usage
//
//	cfg := link.DefaultConfig("/dev/ttyUSB0")
//
//	err := link.Run(ctx, cfg, func(l *link.Link) error {
//	    prog := eeprom.New(l)
//	    _, err := prog.DumpFile(ctx, req, "dump.bin")
//	    return err
//	})
//
// Run guarantees Close is called on every exit path. Callers that need the
// link for longer can use Open and defer Close themselves.
//
// # Drivers
//
// Two serial backends are available through Config.Driver:
//   - DriverBugst: go.bug.st/serial (default)
//   - DriverTarm:  github.com/tarm/serial
//
// Both report a read that times out without data as (0, nil).
//
// Only DriverBugst can change the read timeout of an open port
// (Link.SetReadTimeout). The tarm driver fixes it at open time and, on POSIX
// systems, cannot wait longer than MaxTarmReadTimeout per read.
package link
