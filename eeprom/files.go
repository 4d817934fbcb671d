package eeprom

import (
	"context"
	"fmt"
	"os"

	"github.com/moffa90/go-meepromer/protocol"
)

// WriteFile programs the window described by req with the contents of path.
//
// The file must hold at least req.Bytes() bytes; only the first req.Bytes()
// bytes are sent.
func (p *Programmer) WriteFile(ctx context.Context, req protocol.Request, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileError{Path: path, Op: "read", Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &FileError{Path: path, Op: "read", Err: err}
	}
	if info.IsDir() {
		return nil, &FileError{Path: path, Op: "read", Err: fmt.Errorf("is a directory")}
	}

	p.logDebug("source opened", "path", path, "size", info.Size())
	return p.Write(ctx, req, f)
}

// DumpFile reads the window described by req and stores it at path.
//
// The file is created (or truncated) only after the whole window has been
// received, so a failed transfer never leaves a partial file behind.
func (p *Programmer) DumpFile(ctx context.Context, req protocol.Request, path string) (*Result, error) {
	return p.dump(ctx, req, func(payload []byte) error {
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return &FileError{Path: path, Op: "write", Err: err}
		}

		if _, err := f.Write(payload); err != nil {
			f.Close()
			return &FileError{Path: path, Op: "write", Err: err}
		}
		if err := f.Close(); err != nil {
			return &FileError{Path: path, Op: "write", Err: err}
		}

		p.logDebug("dump stored", "path", path, "bytes", len(payload))
		return nil
	})
}
