package link

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// maxLoggedBytes caps how much of each write is echoed at debug level.
const maxLoggedBytes = 16

// Link is an open serial connection to the programmer board.
//
// A Link is owned by a single goroutine; it is not safe for concurrent use.
type Link struct {
	port   Port
	config Config
	logger Logger
	closed bool

	// readTimeout is the per-read timeout currently applied to the port
	readTimeout time.Duration
}

// Open opens the configured serial port and waits out the board's reset.
//
// Returns a *ConnectionError if the port cannot be opened. If ctx is
// cancelled during the settle period the port is closed again and the
// context error is returned.
//
// Example:
//
//	l, err := link.Open(ctx, link.DefaultConfig("COM3"))
//	if err != nil {
//	    return err
//	}
//	defer l.Close()
func Open(ctx context.Context, cfg Config, opts ...Option) (*Link, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid link config: %w", err)
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverBugst
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	open := o.open
	if open == nil {
		open = openers[cfg.Driver]
	}

	port, err := open(cfg)
	if err != nil {
		return nil, &ConnectionError{
			Port:   cfg.Port,
			Reason: classify(err),
			Err:    err,
		}
	}

	l := &Link{
		port:   port,
		config: cfg,
		logger: o.logger,

		readTimeout: cfg.ReadTimeout,
	}

	l.logInfo("serial port opened",
		"port", cfg.Port,
		"baud", cfg.Baud,
		"driver", cfg.Driver,
		"read_timeout", cfg.ReadTimeout.String(),
	)

	if err := l.settle(ctx); err != nil {
		_ = l.Close()
		return nil, err
	}

	return l, nil
}

// Run opens a link, calls fn with it and always closes it afterwards.
// A close failure is joined with fn's error.
func Run(ctx context.Context, cfg Config, fn func(*Link) error, opts ...Option) (err error) {
	l, err := Open(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := l.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close link: %w", cerr))
		}
	}()

	return fn(l)
}

// settle waits for the board to finish its reset after the port opened.
func (l *Link) settle(ctx context.Context) error {
	if l.config.SettleDelay <= 0 {
		return nil
	}

	l.logDebug("waiting for device reset", "delay", l.config.SettleDelay.String())

	timer := time.NewTimer(l.config.SettleDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("cancelled while waiting for device reset: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// Config returns the configuration the link was opened with.
func (l *Link) Config() Config {
	return l.config
}

// Read reads from the port. A read that times out without data returns (0, nil).
func (l *Link) Read(p []byte) (int, error) {
	return l.port.Read(p)
}

// Write writes to the port.
func (l *Link) Write(p []byte) (int, error) {
	n, err := l.port.Write(p)
	if l.logger != nil {
		head := p
		if len(head) > maxLoggedBytes {
			head = head[:maxLoggedBytes]
		}
		l.logger.Debug("write", "bytes", n, "head", fmt.Sprintf("% X", head))
	}
	return n, err
}

// ReadTimeout returns the per-read timeout currently applied to the port.
func (l *Link) ReadTimeout() time.Duration {
	return l.readTimeout
}

// SetReadTimeout changes the per-read timeout without reopening the port.
// Returns ErrReadTimeoutFixed when the driver cannot change it.
func (l *Link) SetReadTimeout(d time.Duration) error {
	setter, ok := l.port.(interface {
		SetReadTimeout(time.Duration) error
	})
	if !ok {
		return ErrReadTimeoutFixed
	}
	if err := setter.SetReadTimeout(d); err != nil {
		return fmt.Errorf("set read timeout: %w", err)
	}
	l.readTimeout = d
	return nil
}

// ResetInputBuffer discards any received but unread bytes.
func (l *Link) ResetInputBuffer() error {
	return l.port.ResetInputBuffer()
}

// ResetOutputBuffer discards any written but untransmitted bytes.
func (l *Link) ResetOutputBuffer() error {
	return l.port.ResetOutputBuffer()
}

// Close flushes both buffers and releases the port.
// Calling Close more than once is a no-op.
func (l *Link) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true

	var errs []error
	if err := l.port.ResetInputBuffer(); err != nil {
		errs = append(errs, fmt.Errorf("reset input buffer: %w", err))
	}
	if err := l.port.ResetOutputBuffer(); err != nil {
		errs = append(errs, fmt.Errorf("reset output buffer: %w", err))
	}
	if err := l.port.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close port: %w", err))
	}

	err := errors.Join(errs...)
	if err != nil {
		l.logError("serial port close failed", "port", l.config.Port, "error", err)
	} else {
		l.logDebug("serial port closed", "port", l.config.Port)
	}
	return err
}

func (l *Link) logDebug(msg string, keysAndValues ...interface{}) {
	if l.logger != nil {
		l.logger.Debug(msg, keysAndValues...)
	}
}

func (l *Link) logInfo(msg string, keysAndValues ...interface{}) {
	if l.logger != nil {
		l.logger.Info(msg, keysAndValues...)
	}
}

func (l *Link) logError(msg string, keysAndValues ...interface{}) {
	if l.logger != nil {
		l.logger.Error(msg, keysAndValues...)
	}
}
