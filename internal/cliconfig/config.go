package cliconfig

import (
	"fmt"
	"time"

	"github.com/moffa90/go-meepromer/eeprom"
	"github.com/moffa90/go-meepromer/link"
	"github.com/moffa90/go-meepromer/protocol"
)

// Transfer modes.
const (
	ModeWrite = "write"
	ModeDump  = "dump"
)

// Config holds CLI configuration for meepromer.
type Config struct {
	Mode string
	File string

	// Offset and Count are kilobyte units
	Offset int
	Count  int

	Port        string
	Baud        int
	Driver      string
	Timeout     time.Duration
	SettleDelay time.Duration

	ReadyAttempts int
	ReadyTimeout  time.Duration
	DumpDelay     time.Duration

	LogFile string
	Verbose bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Offset:        protocol.DefaultOffset,
		Count:         protocol.DefaultCount,
		Port:          link.DefaultPort(),
		Baud:          link.DefaultBaudRate,
		Driver:        link.DriverBugst,
		Timeout:       link.DefaultReadTimeout,
		SettleDelay:   link.DefaultSettleDelay,
		ReadyAttempts: eeprom.DefaultReadyAttempts,
		ReadyTimeout:  eeprom.DefaultReadyTimeout,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeWrite, ModeDump:
	case "":
		return fmt.Errorf("select what to do: --write or --dump")
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}

	if c.File == "" {
		return fmt.Errorf("file is required")
	}

	if c.Offset < 0 || c.Offset > protocol.MaxFieldValue {
		return fmt.Errorf("offset must be between 0 and %d, got %d", protocol.MaxFieldValue, c.Offset)
	}
	if c.Count < 0 || c.Count > protocol.MaxFieldValue {
		return fmt.Errorf("bytes must be between 0 and %d, got %d", protocol.MaxFieldValue, c.Count)
	}
	if err := c.Request().Validate(); err != nil {
		return err
	}

	if c.ReadyAttempts <= 0 {
		return fmt.Errorf("ready attempts must be positive")
	}
	if c.ReadyTimeout <= 0 {
		return fmt.Errorf("ready timeout must be positive")
	}
	if c.DumpDelay < 0 {
		return fmt.Errorf("dump delay cannot be negative")
	}

	return c.LinkConfig().Validate()
}

// Request returns the transfer window described by the configuration.
func (c *Config) Request() protocol.Request {
	dir := protocol.Write
	if c.Mode == ModeDump {
		dir = protocol.Read
	}
	return protocol.Request{
		Direction: dir,
		Count:     uint16(c.Count),
		Offset:    uint16(c.Offset),
	}
}

// LinkConfig returns the serial link configuration.
func (c *Config) LinkConfig() link.Config {
	return link.Config{
		Port:        c.Port,
		Baud:        c.Baud,
		ReadTimeout: c.Timeout,
		SettleDelay: c.SettleDelay,
		Driver:      c.Driver,
	}
}

// ProgrammerOptions returns the transfer engine options for the configuration.
func (c *Config) ProgrammerOptions() []eeprom.Option {
	return []eeprom.Option{
		eeprom.WithReadyAttempts(c.ReadyAttempts),
		eeprom.WithReadyTimeout(c.ReadyTimeout),
		eeprom.WithDumpSettleDelay(c.DumpDelay),
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntPtr sets an int value, zero included, if present and flag not changed.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}
