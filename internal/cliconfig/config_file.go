package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
// The transfer mode and file are per invocation and stay flag only.
type FileConfig struct {
	Port          string `toml:"port"`
	Baud          int    `toml:"baud"`
	Driver        string `toml:"driver"`
	Timeout       string `toml:"timeout"`
	SettleDelay   string `toml:"settle_delay"`
	Offset        *int   `toml:"offset"`
	Count         *int   `toml:"bytes"`
	ReadyAttempts int    `toml:"ready_attempts"`
	ReadyTimeout  string `toml:"ready_timeout"`
	DumpDelay     string `toml:"dump_delay"`
	LogFile       string `toml:"log_file"`
	Verbose       *bool  `toml:"verbose"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.meepromer/config.toml, or "" without a home directory.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".meepromer", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("com", fc.Port, &cfg.Port)
	s.setString("driver", fc.Driver, &cfg.Driver)
	s.setString("log-file", fc.LogFile, &cfg.LogFile)

	s.setInt("speed", fc.Baud, &cfg.Baud)
	s.setInt("ready-attempts", fc.ReadyAttempts, &cfg.ReadyAttempts)
	s.setIntPtr("offset", fc.Offset, &cfg.Offset)
	s.setIntPtr("bytes", fc.Count, &cfg.Count)

	if err := s.setDuration("timeout", fc.Timeout, &cfg.Timeout); err != nil {
		return err
	}
	if err := s.setDuration("settle", fc.SettleDelay, &cfg.SettleDelay); err != nil {
		return err
	}
	if err := s.setDuration("ready-timeout", fc.ReadyTimeout, &cfg.ReadyTimeout); err != nil {
		return err
	}
	if err := s.setDuration("dump-delay", fc.DumpDelay, &cfg.DumpDelay); err != nil {
		return err
	}

	s.setBool("verbose", fc.Verbose, &cfg.Verbose)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
