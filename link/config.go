package link

import (
	"fmt"
	"runtime"
	"time"
)

// Serial driver names accepted by Config.Driver.
const (
	DriverBugst = "bugst"
	DriverTarm  = "tarm"
)

const (
	// DefaultBaudRate matches the programmer firmware
	DefaultBaudRate = 115200

	// DefaultReadTimeout bounds every single read on the port
	DefaultReadTimeout = 20 * time.Second

	// DefaultSettleDelay covers the board's reset after the port opens.
	// The board has been measured to need at least ~1.8s.
	DefaultSettleDelay = 2 * time.Second

	// MaxTarmReadTimeout is the longest read timeout tarm/serial honors on
	// POSIX systems (VTIME counts tenths of a second in one byte).
	MaxTarmReadTimeout = 25500 * time.Millisecond
)

// Config holds the link configuration.
type Config struct {
	// Port is the serial port name (e.g. "COM3" or "/dev/ttyUSB0")
	Port string

	// Baud is the serial speed in bits per second
	Baud int

	// ReadTimeout is the timeout for a single read
	ReadTimeout time.Duration

	// SettleDelay is how long to wait after opening before any I/O
	SettleDelay time.Duration

	// Driver selects the serial backend (DriverBugst or DriverTarm)
	Driver string
}

// DefaultConfig returns the default configuration for the given port.
func DefaultConfig(port string) Config {
	return Config{
		Port:        port,
		Baud:        DefaultBaudRate,
		ReadTimeout: DefaultReadTimeout,
		SettleDelay: DefaultSettleDelay,
		Driver:      DriverBugst,
	}
}

// DefaultPort returns a platform specific placeholder port name.
func DefaultPort() string {
	switch runtime.GOOS {
	case "windows":
		return "COM3"
	case "darwin":
		return "/dev/cu.usbserial"
	default:
		return "/dev/ttyUSB0"
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.Baud <= 0 {
		return fmt.Errorf("baud rate must be positive, got %d", c.Baud)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("settle delay cannot be negative")
	}
	switch c.Driver {
	case "", DriverBugst:
	case DriverTarm:
		if c.ReadTimeout > MaxTarmReadTimeout {
			return fmt.Errorf("read timeout %s exceeds the %s maximum of the tarm driver", c.ReadTimeout, MaxTarmReadTimeout)
		}
	default:
		return fmt.Errorf("unknown serial driver %q", c.Driver)
	}
	return nil
}
