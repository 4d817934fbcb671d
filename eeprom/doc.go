// Package eeprom provides a high-level API for reading and writing the EEPROM
// of a Meepromer programmer board.
//
// # Overview
//
// This package runs the two transfers the board firmware understands:
//   - Write: send a "W" header, wait for the ready marker, send the start
//     marker and stream the payload in chunks
//   - Dump: send an "R" header and receive the window as one binary stream
//
// A window is described by a protocol.Request in kilobyte units: the
// transfer covers units [Offset, Count).
//
// # Basic Usage
//
//	err := link.Run(ctx, link.DefaultConfig("/dev/ttyUSB0"), func(l *link.Link) error {
//	    prog := eeprom.New(l)
//	    req := protocol.Request{Count: 64}
//	    _, err := prog.DumpFile(ctx, req, "backup.bin")
//	    return err
//	})
//
// # Progress Tracking
//
//	prog := eeprom.New(l,
//	    eeprom.WithProgressCallback(func(p eeprom.Progress) {
//	        fmt.Printf("[%s] %.1f%% - %d/%d bytes\n",
//	            p.Phase, p.Percentage, p.Bytes, p.TotalBytes)
//	    }),
//	)
//
// # Configuration Options
//
//	prog := eeprom.New(l,
//	    eeprom.WithLogger(myLogger),
//	    eeprom.WithReadyAttempts(50),
//	    eeprom.WithReadyTimeout(10*time.Second),
//	    eeprom.WithDumpSettleDelay(100*time.Millisecond),
//	)
//
// # Error Handling
//
// The package provides structured error types:
//   - FileError: a local file could not be opened or written
//   - TransferIncompleteError: fewer bytes crossed the link than requested
//   - ProtocolTimeoutError: the device never sent the ready marker
//   - protocol.RequestError: the window is invalid (Offset > Count)
//
// TransferIncompleteError and ProtocolTimeoutError also match the sentinels
// ErrTransferIncomplete and ErrProtocolTimeout through errors.Is.
//
// # Hardware Independence
//
// The Programmer only needs a Device: an io.ReadWriter that can discard its
// input and output buffers. *link.Link is the serial implementation; tests
// and examples use in-memory devices.
package eeprom
