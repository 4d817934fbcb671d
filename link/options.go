package link

// Logger is an optional logging interface, compatible with eeprom.Logger.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type options struct {
	logger Logger
	open   opener
}

// Option is a functional option for Open and Run.
type Option func(*options)

// WithLogger sets a logger for link operations.
//
// Example:
//
//	l, err := link.Open(ctx, cfg, link.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// withOpener replaces the driver lookup, used by tests.
func withOpener(open opener) Option {
	return func(o *options) {
		o.open = open
	}
}
