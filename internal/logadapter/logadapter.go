// Package logadapter connects the key/value Logger interfaces of the link and
// eeprom packages to zerolog.
package logadapter

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// Verbose enables debug level output
	Verbose bool

	// Console receives human readable output. Defaults to os.Stderr.
	Console io.Writer

	// File, when set, also receives JSON lines through a rotating writer
	File       string
	MaxSizeMB  int
	MaxBackups int

	// SessionID is attached to every line when set
	SessionID string
}

// Adapter implements eeprom.Logger and link.Logger using zerolog.
type Adapter struct {
	logger zerolog.Logger
	closer io.Closer
}

// New creates an adapter with console output and an optional log file.
func New(opts Options) *Adapter {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var out io.Writer = zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.RFC3339,
	}

	var closer io.Closer
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB, // MB
			MaxBackups: opts.MaxBackups,
		}
		out = zerolog.MultiLevelWriter(out, file)
		closer = file
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if opts.SessionID != "" {
		ctx = ctx.Str("session", opts.SessionID)
	}

	return &Adapter{logger: ctx.Logger(), closer: closer}
}

// NewWithLogger creates an adapter wrapping an existing zerolog.Logger.
func NewWithLogger(logger zerolog.Logger) *Adapter {
	return &Adapter{logger: logger}
}

// Debug logs a debug-level message.
func (a *Adapter) Debug(msg string, keysAndValues ...interface{}) {
	addFields(a.logger.Debug(), keysAndValues).Msg(msg)
}

// Info logs an info-level message.
func (a *Adapter) Info(msg string, keysAndValues ...interface{}) {
	addFields(a.logger.Info(), keysAndValues).Msg(msg)
}

// Error logs an error-level message.
func (a *Adapter) Error(msg string, keysAndValues ...interface{}) {
	addFields(a.logger.Error(), keysAndValues).Msg(msg)
}

// Logger returns the underlying zerolog.Logger.
func (a *Adapter) Logger() zerolog.Logger {
	return a.logger
}

// Close flushes and closes the log file, if any.
func (a *Adapter) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// addFields adds alternating key/value pairs to a zerolog.Event.
// A trailing key without a value is logged under "!BADKEY".
func addFields(event *zerolog.Event, kv []interface{}) *zerolog.Event {
	for i := 0; i < len(kv); i += 2 {
		if i+1 >= len(kv) {
			event = event.Interface("!BADKEY", kv[i])
			break
		}
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		event = addField(event, key, kv[i+1])
	}
	return event
}

func addField(event *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return event.Str(key, v)
	case int:
		return event.Int(key, v)
	case int64:
		return event.Int64(key, v)
	case uint16:
		return event.Uint16(key, v)
	case uint32:
		return event.Uint32(key, v)
	case uint64:
		return event.Uint64(key, v)
	case float64:
		return event.Float64(key, v)
	case bool:
		return event.Bool(key, v)
	case time.Duration:
		return event.Dur(key, v)
	case error:
		return event.AnErr(key, v)
	case fmt.Stringer:
		return event.Stringer(key, v)
	default:
		return event.Interface(key, v)
	}
}
