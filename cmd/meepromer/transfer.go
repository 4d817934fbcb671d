package main

import (
	"context"
	"errors"

	"github.com/moffa90/go-meepromer/eeprom"
	"github.com/moffa90/go-meepromer/internal/cliconfig"
	"github.com/moffa90/go-meepromer/link"
)

type logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// runTransfer performs the transfer selected by cfg.Mode.
func runTransfer(ctx context.Context, prog *eeprom.Programmer, cfg cliconfig.Config) (*eeprom.Result, error) {
	if cfg.Mode == cliconfig.ModeWrite {
		return prog.WriteFile(ctx, cfg.Request(), cfg.File)
	}
	return prog.DumpFile(ctx, cfg.Request(), cfg.File)
}

// progressLogger reports streaming progress at debug level.
func progressLogger(log logger) eeprom.ProgressCallback {
	return func(p eeprom.Progress) {
		if p.Phase != eeprom.PhaseStreaming && p.Phase != eeprom.PhaseReceiving {
			return
		}
		log.Debug("progress",
			"phase", p.Phase,
			"bytes", p.Bytes,
			"total", p.TotalBytes,
			"percent", p.Percentage,
		)
	}
}

// loggedError wraps an error that logFailure has already reported.
type loggedError struct {
	error
}

func (e loggedError) Unwrap() error {
	return e.error
}

// reportError logs err unless it was already reported during the run.
func reportError(log logger, err error) {
	var logged loggedError
	if errors.As(err, &logged) {
		return
	}
	log.Error("meepromer failed", "error", err)
}

// logFailure adds the details a user needs to act on a failed run and
// marks the error as reported.
func logFailure(log logger, err error) error {
	var (
		connErr    *link.ConnectionError
		fileErr    *eeprom.FileError
		incomplete *eeprom.TransferIncompleteError
		timeout    *eeprom.ProtocolTimeoutError
	)

	switch {
	case errors.As(err, &connErr):
		log.Error("serial port is not valid, please select a valid port",
			"port", connErr.Port, "reason", string(connErr.Reason), "error", err)
	case errors.As(err, &fileErr):
		log.Error("file cannot be opened, verify it is not in use",
			"path", fileErr.Path, "op", fileErr.Op, "error", err)
	case errors.As(err, &incomplete):
		log.Error("transfer incomplete",
			"direction", incomplete.Direction.String(),
			"transferred", incomplete.Transferred,
			"expected", incomplete.Expected,
			"error", err)
	case errors.As(err, &timeout):
		log.Error("device did not become ready",
			"attempts", timeout.Attempts, "elapsed", timeout.Elapsed, "error", err)
	default:
		log.Error("transfer failed", "error", err)
	}
	return loggedError{err}
}
